package config

const (
	defaultOutputDir    = "~/transcripts"
	defaultLogDir       = "~/.local/share/scribe/logs"
	defaultBinary       = "whisperx"
	defaultModel        = "medium"
	defaultOutputFormat = "txt"
	defaultComputeType  = "float32"
	defaultDevice       = "cpu"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		WhisperX: WhisperX{
			Binary:       defaultBinary,
			Model:        defaultModel,
			OutputFormat: defaultOutputFormat,
			ComputeType:  defaultComputeType,
			Device:       defaultDevice,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
