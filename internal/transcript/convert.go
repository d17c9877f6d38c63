package transcript

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"scribe/internal/logging"
)

// Result describes a completed conversion.
type Result struct {
	// Path is the derived file location, co-located with the artifact.
	Path string
	// Lines is the number of timestamped lines written.
	Lines int
	// Skipped counts segments dropped for missing or invalid fields.
	Skipped int
}

// Converter turns a located artifact into a timestamped text file.
type Converter struct {
	logger *slog.Logger
}

// NewConverter constructs a converter that logs through the provided
// logger.
func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{logger: logging.NewComponentLogger(logger, "transcript")}
}

// Convert locates the artifact for inputPath inside outputDir, renders its
// segments, and writes the derived file next to the artifact. Per-segment
// problems are skipped and counted; artifact-level problems surface as
// ErrArtifactNotFound, ErrSchema, or ErrEmptyResult.
func (c *Converter) Convert(inputPath, outputDir string) (Result, error) {
	artifactPath, err := Locate(inputPath, outputDir)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("artifact located", logging.String("path", artifactPath))

	doc, err := Load(artifactPath)
	if err != nil {
		return Result{}, err
	}

	lines := make([]string, 0, len(doc.Segments))
	skipped := 0
	for i, seg := range doc.Segments {
		if seg.invalidStart {
			c.logger.Warn("skipping segment with invalid start offset",
				logging.Int("segment", i))
			skipped++
			continue
		}
		if seg.Start == nil || seg.Text == nil {
			skipped++
			continue
		}
		if *seg.Start < 0 {
			c.logger.Warn("skipping segment with negative start offset",
				logging.Int("segment", i),
				logging.Float64("start", *seg.Start))
			skipped++
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", FormatClock(*seg.Start), strings.TrimSpace(*seg.Text)))
	}

	if len(lines) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrEmptyResult, artifactPath)
	}

	derivedPath := DerivedPath(artifactPath)
	if err := os.WriteFile(derivedPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return Result{}, fmt.Errorf("write derived file: %w", err)
	}

	c.logger.Info("timestamped text created",
		logging.String("path", derivedPath),
		logging.Int("lines", len(lines)),
		logging.Int("skipped", skipped))

	return Result{Path: derivedPath, Lines: len(lines), Skipped: skipped}, nil
}

// DerivedPath maps an artifact path to its derived file path. The distinct
// suffix keeps it from colliding with the artifact or other exported
// formats.
func DerivedPath(artifactPath string) string {
	return strings.TrimSuffix(artifactPath, ".json") + ".timestamped.txt"
}

// FormatClock renders a start offset in seconds as H:MM:SS. Sub-second
// precision is truncated, not rounded, and a zero hours field is always
// present.
func FormatClock(seconds float64) string {
	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
}
