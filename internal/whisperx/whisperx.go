package whisperx

import (
	"errors"
	"fmt"
	"strings"

	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/runner"
)

// TokenPlaceholder replaces the Hugging Face token in displayed commands.
const TokenPlaceholder = "<HF_TOKEN>"

// Options are the recognized pass-through options for one invocation.
type Options struct {
	Binary       string
	Model        string
	OutputDir    string
	OutputFormat string
	ComputeType  string
	Device       string
	Language     string
	Diarize      bool
	HFToken      string
}

// FromConfig seeds Options from configuration; the caller overlays
// per-invocation flags on top.
func FromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		Binary:       cfg.WhisperX.Binary,
		Model:        cfg.WhisperX.Model,
		OutputFormat: cfg.WhisperX.OutputFormat,
		ComputeType:  cfg.WhisperX.ComputeType,
		Device:       cfg.WhisperX.Device,
		Language:     cfg.WhisperX.Language,
		Diarize:      cfg.WhisperX.Diarize,
		HFToken:      cfg.WhisperX.HFToken,
		OutputDir:    cfg.Paths.OutputDir,
	}
}

// EnsureJSONArtifact coerces the output format so the JSON artifact needed
// for timestamped text is actually produced. It reports whether the format
// was changed.
func (o *Options) EnsureJSONArtifact() bool {
	format := strings.ToLower(strings.TrimSpace(o.OutputFormat))
	if format == "all" || format == "json" || strings.Contains(format, "json") {
		return false
	}
	o.OutputFormat = "all"
	return true
}

// BuildSpec constructs the job spec for transcribing input. The returned
// spec is handed to the runner by value and never mutated afterwards.
func BuildSpec(input string, opts Options) (runner.Spec, error) {
	if strings.TrimSpace(input) == "" {
		return runner.Spec{}, errors.New("input path required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return runner.Spec{}, errors.New("output directory required")
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "whisperx"
	}
	if opts.Diarize && strings.TrimSpace(opts.HFToken) == "" {
		return runner.Spec{}, errors.New("diarization requires a Hugging Face token")
	}

	args := make([]string, 0, 16)
	args = append(args, binary, input)

	// An empty value would reach the child as `--model ""`; omitted options
	// fall back to WhisperX's own defaults instead.
	appendOption := func(flag, value string) {
		if value = strings.TrimSpace(value); value != "" {
			args = append(args, flag, value)
		}
	}
	appendOption("--model", opts.Model)
	appendOption("--output_dir", opts.OutputDir)
	appendOption("--output_format", opts.OutputFormat)
	appendOption("--compute_type", opts.ComputeType)
	appendOption("--device", opts.Device)
	appendOption("--language", language.ToISO2(opts.Language))

	spec := runner.Spec{Args: args}
	if opts.Diarize {
		spec.Args = append(spec.Args, "--diarize", "--hf_token", opts.HFToken)
		// The token also travels in the environment so WhisperX can reach
		// the gated diarization model without shell indirection.
		spec.Env = []string{"HF_TOKEN=" + opts.HFToken}
	}
	return spec, nil
}

// DisplayCommand renders a spec for logs with the token masked.
func DisplayCommand(spec runner.Spec, token string) string {
	parts := make([]string, 0, len(spec.Args))
	for _, arg := range spec.Args {
		if token != "" && arg == token {
			parts = append(parts, TokenPlaceholder)
			continue
		}
		if strings.ContainsAny(arg, " \t\"") {
			parts = append(parts, fmt.Sprintf("%q", arg))
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
