package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/testsupport"
	"scribe/internal/whisperx"
)

func newManager(t *testing.T) (*Manager, *config.Config, *history.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return NewManager(cfg, store, logging.NewNop()), cfg, store
}

func newRequest(t *testing.T, cfg *config.Config, scriptBody string) Request {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	testsupport.WriteFile(t, input, "media")
	script := testsupport.WriteScript(t, dir, "whisperx-stub.sh", scriptBody)

	return Request{
		InputPath: input,
		Options: whisperx.Options{
			Binary:       script,
			Model:        "medium",
			OutputDir:    cfg.Paths.OutputDir,
			OutputFormat: "txt",
			ComputeType:  "float32",
			Device:       "cpu",
		},
	}
}

func drain(t *testing.T, exec *Execution) []Event {
	t.Helper()

	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case event, ok := <-exec.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("timed out draining events")
		}
	}
}

func outputLogs(events []Event) []Event {
	var logs []Event
	for _, event := range events {
		if event.Type == EventTypeLog && strings.HasPrefix(event.Message, "line") {
			logs = append(logs, event)
		}
	}
	return logs
}

func TestStartRejectsBadInput(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	if _, err := manager.Start(ctx, Request{}); err == nil {
		t.Fatal("empty input path must be rejected")
	}
	if _, err := manager.Start(ctx, Request{InputPath: "/nonexistent/clip.mp4"}); err == nil {
		t.Fatal("missing input file must be rejected")
	}
}

func TestRunCompletesWithoutPostprocessing(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "echo line one\necho line two\nexit 0\n")

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := drain(t, exec)

	if len(events) < 3 {
		t.Fatalf("expected status, logs, and result, got %d events", len(events))
	}
	if events[0].Type != EventTypeStatus || !strings.HasPrefix(events[0].Message, "Launching: ") {
		t.Fatalf("first event must announce the launch, got %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Type != EventTypeResult || last.Status != history.StatusCompleted {
		t.Fatalf("last event must be the completed result, got %+v", last)
	}
	if last.DerivedPath != "" {
		t.Fatalf("no derived file expected without post-processing, got %q", last.DerivedPath)
	}
	if logs := outputLogs(events); len(logs) != 2 {
		t.Fatalf("expected 2 output lines, got %d", len(logs))
	}

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil || record.Status != history.StatusCompleted {
		t.Fatalf("record not completed: %+v", record)
	}
	if record.ExitCode == nil || *record.ExitCode != 0 {
		t.Fatalf("exit code not recorded: %+v", record.ExitCode)
	}
}

func TestRunFailureSkipsPostprocessing(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "for i in 1 2 3 4 5; do echo line $i; done\nexit 1\n")
	req.TimestampedText = true

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := drain(t, exec)

	if logs := outputLogs(events); len(logs) != 5 {
		t.Fatalf("expected all 5 output lines before the failure, got %d", len(logs))
	}
	last := events[len(events)-1]
	if last.Type != EventTypeError || last.Status != history.StatusFailed {
		t.Fatalf("last event must be the failure, got %+v", last)
	}
	if last.ExitCode != 1 {
		t.Fatalf("failure event must carry the exit code, got %d", last.ExitCode)
	}
	for _, event := range events {
		if event.Type == EventTypeResult {
			t.Fatal("a failed run must not emit a result event")
		}
		if event.Status == history.StatusPostProcessing {
			t.Fatal("post-processing must not run after a failed exit")
		}
	}

	entries, err := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "*.timestamped.txt"))
	if err != nil {
		t.Fatalf("glob output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no derived file may exist after a failed run: %v", entries)
	}

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != history.StatusFailed {
		t.Fatalf("record not failed: %+v", record)
	}
	if record.ExitCode == nil || *record.ExitCode != 1 {
		t.Fatalf("exit code not recorded: %v", record.ExitCode)
	}
}

func TestLaunchFailureRecordsError(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "exit 0\n")
	req.Options.Binary = "/nonexistent/scribe-test-binary"

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := drain(t, exec)

	if logs := outputLogs(events); len(logs) != 0 {
		t.Fatalf("a launch failure must emit no output lines, got %d", len(logs))
	}
	last := events[len(events)-1]
	if last.Type != EventTypeError || last.Status != history.StatusFailed {
		t.Fatalf("last event must be the launch failure, got %+v", last)
	}

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != history.StatusFailed {
		t.Fatalf("record not failed: %+v", record)
	}
	if record.ExitCode != nil {
		t.Fatalf("a process that never started has no exit code, got %d", *record.ExitCode)
	}
	if record.ErrorMessage == "" {
		t.Fatal("launch error message not recorded")
	}
}

func TestRunWithTimestampedText(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "echo line transcribing\nexit 0\n")
	req.TimestampedText = true

	artifact := filepath.Join(cfg.Paths.OutputDir, "clip.json")
	testsupport.WriteFile(t, artifact,
		`{"segments": [{"start": 0.0, "text": "Hi"}, {"start": 65.2, "text": "Bye"}]}`)

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := drain(t, exec)

	sawPostProcessing := false
	for _, event := range events {
		if event.Type == EventTypeStatus && event.Status == history.StatusPostProcessing {
			sawPostProcessing = true
		}
	}
	if !sawPostProcessing {
		t.Fatal("post-processing status event missing")
	}

	last := events[len(events)-1]
	if last.Type != EventTypeResult || last.DerivedPath == "" {
		t.Fatalf("result event must carry the derived path, got %+v", last)
	}

	data, err := os.ReadFile(last.DerivedPath)
	if err != nil {
		t.Fatalf("read derived file: %v", err)
	}
	want := "[0:00:00] Hi\n[0:01:05] Bye"
	if string(data) != want {
		t.Fatalf("derived content %q, want %q", data, want)
	}

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != history.StatusCompleted || record.DerivedLines != 2 {
		t.Fatalf("record not completed with derived lines: %+v", record)
	}
	if record.DerivedPath != last.DerivedPath {
		t.Fatalf("derived path mismatch: %q vs %q", record.DerivedPath, last.DerivedPath)
	}
}

func TestConversionFailureStillCompletesJob(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "echo line transcribing\nexit 0\n")
	req.TimestampedText = true
	// No artifact is placed, so the conversion cannot succeed.

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events := drain(t, exec)

	sawConversionError := false
	for _, event := range events {
		if event.Type == EventTypeError && strings.Contains(event.Message, "timestamped text") {
			sawConversionError = true
		}
	}
	if !sawConversionError {
		t.Fatal("conversion failure must surface as an error event")
	}

	last := events[len(events)-1]
	if last.Type != EventTypeResult || last.Status != history.StatusCompleted {
		t.Fatalf("the transcription itself succeeded; job must still complete, got %+v", last)
	}

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != history.StatusCompleted {
		t.Fatalf("record not completed: %+v", record)
	}
	if !strings.Contains(record.ErrorMessage, "timestamped text") {
		t.Fatalf("conversion failure not recorded: %q", record.ErrorMessage)
	}
}

func TestStartRejectsConcurrentJob(t *testing.T) {
	manager, cfg, _ := newManager(t)
	first := newRequest(t, cfg, "sleep 0.3\nexit 0\n")

	exec, err := manager.Start(context.Background(), first)
	if err != nil {
		t.Fatalf("start first job: %v", err)
	}

	second := newRequest(t, cfg, "exit 0\n")
	if _, err := manager.Start(context.Background(), second); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("expected ErrJobAlreadyRunning, got %v", err)
	}

	drain(t, exec)

	// Once the first job settles, a new one is accepted again.
	third, err := manager.Start(context.Background(), second)
	if err != nil {
		t.Fatalf("start after completion: %v", err)
	}
	drain(t, third)
}

func TestStartDefaultsOutputDirNextToInput(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "exit 0\n")
	req.Options.OutputDir = ""

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(t, exec)

	want := filepath.Join(filepath.Dir(req.InputPath), "transcripts")
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Fatalf("default output directory not created at %s: %v", want, err)
	}

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.OutputDir != want {
		t.Fatalf("record output dir %q, want %q", record.OutputDir, want)
	}
}

func TestDisplayCommandMasksTokenInRecord(t *testing.T) {
	manager, cfg, store := newManager(t)
	req := newRequest(t, cfg, "exit 0\n")
	req.Options.Diarize = true
	req.Options.HFToken = "hf_secret"

	exec, err := manager.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(t, exec)

	record, err := store.Get(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if strings.Contains(record.Command, "hf_secret") {
		t.Fatalf("token leaked into recorded command %q", record.Command)
	}
	if !strings.Contains(record.Command, whisperx.TokenPlaceholder) {
		t.Fatalf("placeholder missing from recorded command %q", record.Command)
	}
}
