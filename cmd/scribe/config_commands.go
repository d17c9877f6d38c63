package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --force to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.output_dir and the [whisperx] options, then transcribe with 'scribe run <media-file>'.")
			fmt.Fprintln(out, "Diarization needs whisperx.hf_token (or the HF_TOKEN environment variable).")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing configuration file")
	return cmd
}

func resolveInitTarget(raw string) (string, error) {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		expanded, err := config.ExpandPath(trimmed)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and show the resolved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path, exists := ctx.configSource()

			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Config file: %s\n", path)
			} else {
				fmt.Fprintf(out, "Config file: %s (not found, defaults in effect)\n", path)
			}
			fmt.Fprintf(out, "Output directory: %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "Log directory: %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "WhisperX: %s (model %s, format %s, %s on %s)\n",
				cfg.WhisperX.Binary, cfg.WhisperX.Model, cfg.WhisperX.OutputFormat,
				cfg.WhisperX.ComputeType, cfg.WhisperX.Device)
			if cfg.WhisperX.Diarize {
				fmt.Fprintln(out, "Diarization: enabled (token set)")
			}
			fmt.Fprintf(out, "Timestamped text: %v\n", cfg.Postprocess.TimestampedText)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
