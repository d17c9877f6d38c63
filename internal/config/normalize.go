package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWhisperX()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Binary = strings.TrimSpace(c.WhisperX.Binary)
	if c.WhisperX.Binary == "" {
		c.WhisperX.Binary = defaultBinary
	}
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultModel
	}
	c.WhisperX.OutputFormat = strings.ToLower(strings.TrimSpace(c.WhisperX.OutputFormat))
	if c.WhisperX.OutputFormat == "" {
		c.WhisperX.OutputFormat = defaultOutputFormat
	}
	c.WhisperX.ComputeType = strings.TrimSpace(c.WhisperX.ComputeType)
	if c.WhisperX.ComputeType == "" {
		c.WhisperX.ComputeType = defaultComputeType
	}
	c.WhisperX.Device = strings.TrimSpace(c.WhisperX.Device)
	if c.WhisperX.Device == "" {
		c.WhisperX.Device = defaultDevice
	}
	c.WhisperX.Language = strings.TrimSpace(c.WhisperX.Language)
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = value
		}
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
