package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/history"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded transcription jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}

			headers := []string{"ID", "Status", "Exit", "Input", "Derived", "Updated"}
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					shortID(record.ID),
					string(record.Status),
					exitLabel(record.ExitCode),
					record.InputPath,
					record.DerivedPath,
					record.UpdatedAt.Local().Format(time.DateTime),
				})
			}

			if stdoutIsTerminal() {
				fmt.Fprintln(out, renderTable(headers, rows))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintln(out, strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func exitLabel(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}
