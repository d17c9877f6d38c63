package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/history"
	"scribe/internal/jobs"
	"scribe/internal/whisperx"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir       string
		model           string
		outputFormat    string
		computeType     string
		device          string
		languageHint    string
		diarize         bool
		hfToken         string
		timestampedText bool
	)

	cmd := &cobra.Command{
		Use:   "run <media-file>",
		Short: "Transcribe a media file with WhisperX",
		Long: `Launches the external WhisperX command against a media file, streams its
output live, and records the job in the history database. With
--timestamped-txt (or postprocess.timestamped_text in the config) the JSON
artifact is converted into a .timestamped.txt file after a successful run.`,
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

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			opts := whisperx.FromConfig(cfg)
			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				opts.OutputDir = outputDir
			}
			if flags.Changed("model") {
				opts.Model = model
			}
			if flags.Changed("format") {
				opts.OutputFormat = outputFormat
			}
			if flags.Changed("compute") {
				opts.ComputeType = computeType
			}
			if flags.Changed("device") {
				opts.Device = device
			}
			if flags.Changed("language") {
				opts.Language = languageHint
			}
			if flags.Changed("diarize") {
				opts.Diarize = diarize
			}
			if flags.Changed("hf-token") {
				opts.HFToken = hfToken
			}
			timestamped := cfg.Postprocess.TimestampedText
			if flags.Changed("timestamped-txt") {
				timestamped = timestampedText
			}

			manager := jobs.NewManager(cfg, store, logger)
			execution, err := manager.Start(cmd.Context(), jobs.Request{
				InputPath:       args[0],
				Options:         opts,
				TimestampedText: timestamped,
			})
			if err != nil {
				return err
			}

			// An interrupt requests cancellation but does not kill the
			// process; the job's real outcome is still awaited.
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)
			go func() {
				<-signals
				fmt.Fprintln(cmd.ErrOrStderr(), "cancel requested (best effort); waiting for the process to exit")
				execution.Cancel()
			}()

			out := cmd.OutOrStdout()
			var failure error
			for event := range execution.Events() {
				switch event.Type {
				case jobs.EventTypeLog:
					fmt.Fprintln(out, event.Message)
				case jobs.EventTypeStatus:
					fmt.Fprintf(out, "== %s\n", event.Message)
				case jobs.EventTypeError:
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", event.Message)
					if event.Status != "" {
						failure = fmt.Errorf("transcription failed: %s", event.Message)
					}
				case jobs.EventTypeResult:
					fmt.Fprintf(out, "== %s (job %s)\n", event.Message, event.JobID)
					if event.DerivedPath != "" {
						fmt.Fprintf(out, "== timestamped text: %s\n", event.DerivedPath)
					}
				}
			}
			return failure
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for WhisperX output (default from config, falling back to <input dir>/transcripts)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "WhisperX model name")
	cmd.Flags().StringVar(&outputFormat, "format", "", "WhisperX output format (txt, srt, json, vtt, tsv, all)")
	cmd.Flags().StringVar(&computeType, "compute", "", "Compute precision (float32, int8, ...)")
	cmd.Flags().StringVar(&device, "device", "", "Device selector (cpu, cuda)")
	cmd.Flags().StringVarP(&languageHint, "language", "l", "", "Language hint (ISO 639-1 code or name; empty autodetects)")
	cmd.Flags().BoolVar(&diarize, "diarize", false, "Enable speaker diarization (requires a Hugging Face token)")
	cmd.Flags().StringVar(&hfToken, "hf-token", "", "Hugging Face token for the gated diarization model")
	cmd.Flags().BoolVarP(&timestampedText, "timestamped-txt", "t", false, "Convert the JSON artifact into a timestamped text file afterwards")

	return cmd
}
