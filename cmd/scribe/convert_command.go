package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/transcript"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "convert <media-file>",
		Short: "Convert an existing JSON artifact into timestamped text",
		Long: `Locates the JSON artifact a previous WhisperX run produced for the given
media file and writes a .timestamped.txt file next to it. No process is
launched; this only reads and writes files in the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.OutputDir
			}
			if dir == "" {
				dir = filepath.Join(filepath.Dir(args[0]), "transcripts")
			}

			converter := transcript.NewConverter(logger)
			result, err := converter.Convert(args[0], dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s (%d lines", result.Path, result.Lines)
			if result.Skipped > 0 {
				fmt.Fprintf(out, ", %d segments skipped", result.Skipped)
			}
			fmt.Fprintln(out, ")")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory holding the JSON artifact (default from config)")
	return cmd
}
