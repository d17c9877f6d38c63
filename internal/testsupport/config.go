package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "transcripts")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBinary overrides the transcription binary on the test config.
func WithBinary(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.WhisperX.Binary = path
	}
}

// WithOutputFormat overrides the output format on the test config.
func WithOutputFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.WhisperX.OutputFormat = format
	}
}
