package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/logging"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestConvertWritesTimestampedText(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip.json",
		`{"segments": [{"start": 0.0, "end": 1.5, "text": " Hi"}, {"start": 65.2, "end": 66.0, "text": "Bye "}]}`)

	result, err := NewConverter(logging.NewNop()).Convert("/media/clip.mp4", dir)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	wantPath := filepath.Join(dir, "clip.timestamped.txt")
	if result.Path != wantPath {
		t.Fatalf("derived path %q, want %q", result.Path, wantPath)
	}
	if result.Lines != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read derived file: %v", err)
	}
	want := "[0:00:00] Hi\n[0:01:05] Bye"
	if string(data) != want {
		t.Fatalf("derived content:\n%q\nwant:\n%q", data, want)
	}
}

func TestConvertIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip.json", `{"segments": [{"start": 1, "text": "only"}]}`)

	converter := NewConverter(logging.NewNop())
	first, err := converter.Convert("clip.wav", dir)
	if err != nil {
		t.Fatalf("first convert: %v", err)
	}
	firstData, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read first output: %v", err)
	}

	second, err := converter.Convert("clip.wav", dir)
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	secondData, err := os.ReadFile(second.Path)
	if err != nil {
		t.Fatalf("read second output: %v", err)
	}

	if first.Path != second.Path || string(firstData) != string(secondData) {
		t.Fatal("repeated conversion must produce identical output")
	}
}

func TestConvertSkipsUnusableSegments(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "talk.json", `{"segments": [
		{"start": 2.0, "text": "keep me"},
		{"start": 3.0},
		{"text": "no start"},
		{"start": "soon", "text": "bad type"},
		{"start": -4.0, "text": "negative"},
		{"start": 9.0, "text": null}
	]}`)

	result, err := NewConverter(logging.NewNop()).Convert("talk.mkv", dir)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if result.Lines != 1 {
		t.Fatalf("expected 1 rendered line, got %d", result.Lines)
	}
	if result.Skipped != 5 {
		t.Fatalf("expected 5 skipped segments, got %d", result.Skipped)
	}

	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read derived file: %v", err)
	}
	if string(data) != "[0:00:02] keep me" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestConvertMissingSegmentsKeyIsSchemaError(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip.json", `{"language": "en"}`)

	_, err := NewConverter(logging.NewNop()).Convert("clip.mp4", dir)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "clip.timestamped.txt")); !os.IsNotExist(statErr) {
		t.Fatal("no derived file may be written on a schema error")
	}
}

func TestConvertSegmentsNotListIsSchemaError(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip.json", `{"segments": {"start": 0}}`)

	_, err := NewConverter(logging.NewNop()).Convert("clip.mp4", dir)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestConvertAllSegmentsUnusableIsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip.json", `{"segments": [{"start": 1.0}, {"text": "x"}]}`)

	_, err := NewConverter(logging.NewNop()).Convert("clip.mp4", dir)
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "clip.timestamped.txt")); !os.IsNotExist(statErr) {
		t.Fatal("no derived file may be written for an empty result")
	}
}

func TestConvertMissingArtifactListsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "notes.txt", "not an artifact")

	_, err := NewConverter(logging.NewNop()).Convert("clip.mp4", dir)
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(dir, "clip.json")) {
		t.Fatalf("error must name the expected artifact path: %v", err)
	}
	if !strings.Contains(err.Error(), "notes.txt") {
		t.Fatalf("error must list the directory contents: %v", err)
	}
}

func TestLocateExactMatchWins(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip.json", `{}`)
	writeArtifact(t, dir, "clip_extra.json", `{}`)

	path, err := Locate("/media/clip.mp4", dir)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if path != filepath.Join(dir, "clip.json") {
		t.Fatalf("expected exact match, got %s", path)
	}
}

func TestLocateFallsBackToBaseGlob(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "clip_whisperx.json", `{}`)
	writeArtifact(t, dir, "other.json", `{}`)

	path, err := Locate("clip.mp4", dir)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if path != filepath.Join(dir, "clip_whisperx.json") {
		t.Fatalf("expected base-scoped match, got %s", path)
	}
}

func TestLocateFallsBackToAnyJSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "zeta.json", `{}`)
	writeArtifact(t, dir, "alpha.json", `{}`)

	path, err := Locate("clip.mp4", dir)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	// Lexicographic first match keeps repeated lookups deterministic.
	if path != filepath.Join(dir, "alpha.json") {
		t.Fatalf("expected first lexicographic match, got %s", path)
	}
}

func TestArtifactBase(t *testing.T) {
	cases := map[string]string{
		"/media/clip.mp4":       "clip",
		"talk.wav":              "talk",
		"/a/b/archive.tar.gz":   "archive.tar",
		"noextension":           "noextension",
		"/media/dir.name/c.m4a": "c",
	}
	for input, want := range cases {
		if got := ArtifactBase(input); got != want {
			t.Fatalf("ArtifactBase(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDerivedPath(t *testing.T) {
	if got := DerivedPath("/out/clip.json"); got != "/out/clip.timestamped.txt" {
		t.Fatalf("DerivedPath = %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00"},
		{0.9, "0:00:00"},
		{65.2, "0:01:05"},
		{3599.999, "0:59:59"},
		{3600, "1:00:00"},
		{3661.9, "1:01:01"},
		{7322, "2:02:02"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.seconds); got != tc.want {
			t.Fatalf("FormatClock(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
