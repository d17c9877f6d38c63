package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Segment is one parsed unit from the artifact. Start and Text use
// pointers so a missing field is distinguishable from a zero value; fields
// with the wrong JSON type are recorded as invalid rather than failing the
// whole document.
type Segment struct {
	Start *float64
	End   *float64
	Text  *string

	invalidStart bool
}

// UnmarshalJSON tolerates per-segment type drift: a field of the wrong
// type is treated as absent (or, for start, as invalid) instead of
// aborting the batch.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start json.RawMessage `json:"start"`
		End   json.RawMessage `json:"end"`
		Text  json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Start) > 0 && string(raw.Start) != "null" {
		var start float64
		if err := json.Unmarshal(raw.Start, &start); err != nil {
			s.invalidStart = true
		} else {
			s.Start = &start
		}
	}
	if len(raw.End) > 0 && string(raw.End) != "null" {
		var end float64
		if err := json.Unmarshal(raw.End, &end); err == nil {
			s.End = &end
		}
	}
	if len(raw.Text) > 0 && string(raw.Text) != "null" {
		var text string
		if err := json.Unmarshal(raw.Text, &text); err == nil {
			s.Text = &text
		}
	}
	return nil
}

// Document is the ordered segment list read once from an artifact.
type Document struct {
	Path     string
	Segments []Segment
}

// Load decodes the artifact at path. A decode failure or a payload without
// a segment list is an ErrSchema.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var payload struct {
		Segments *[]Segment `json:"segments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrSchema, filepath.Base(path), err)
	}
	if payload.Segments == nil {
		return nil, fmt.Errorf("%w: %s: segments key missing or not a list", ErrSchema, filepath.Base(path))
	}

	return &Document{Path: path, Segments: *payload.Segments}, nil
}

// Locate resolves the JSON artifact for an input file inside outputDir.
// The expected name is <input base>.json; when that does not exist it
// falls back to a base-scoped glob and then to any JSON file in the
// directory, first match (lexicographic) wins. A miss returns
// ErrArtifactNotFound carrying the attempted path and the directory's
// actual contents for diagnosability.
func Locate(inputPath, outputDir string) (string, error) {
	base := ArtifactBase(inputPath)
	expected := filepath.Join(outputDir, base+".json")
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	patterns := []string{
		filepath.Join(outputDir, base+"*.json"),
		filepath.Join(outputDir, "*.json"),
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", fmt.Errorf("glob artifacts: %w", err)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}

	return "", fmt.Errorf("%w: expected %s (directory contains: %s)",
		ErrArtifactNotFound, expected, describeDir(outputDir))
}

// ArtifactBase derives the artifact base name from the input identity: the
// input's file name without its extension.
func ArtifactBase(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func describeDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Sprintf("unreadable: %v", err)
	}
	if len(entries) == 0 {
		return "nothing"
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return strings.Join(names, ", ")
}
