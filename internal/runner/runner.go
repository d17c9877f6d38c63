package runner

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"scribe/internal/logging"
)

var command = exec.Command

// maxLineBytes bounds a single output line; WhisperX progress lines can be
// long but never megabytes.
const maxLineBytes = 1 << 20

// Spec describes one job: the program and its arguments, an optional
// working directory, and an optional environment overlay applied on top of
// the parent environment. A Spec is handed to Start by value and must not
// be mutated afterwards.
type Spec struct {
	Args []string
	Dir  string
	Env  []string
}

// Job is a live handle to a started process. Lines yields output events
// until the stream is exhausted and the process has exited; Done then
// yields exactly one Outcome. No line is ever delivered after the outcome.
type Job struct {
	lines     chan LogEvent
	done      chan Outcome
	cancelled atomic.Bool
	logger    *slog.Logger
}

// Lines returns the ordered stream of output lines. The channel is closed
// before the outcome is delivered.
func (j *Job) Lines() <-chan LogEvent {
	return j.lines
}

// Done returns the terminal outcome channel. It is buffered, so the worker
// never blocks on an absent reader.
func (j *Job) Done() <-chan Outcome {
	return j.done
}

// Cancel records a best-effort cancellation request. The request is
// accepted and logged but does not terminate the process: no process
// handle is retained across the streaming boundary, so the real outcome
// still arrives whenever the process naturally exits.
func (j *Job) Cancel() {
	if j.cancelled.Swap(true) {
		return
	}
	j.logger.Warn("cancel requested, best effort only",
		logging.String("effect", "process keeps running until natural exit"))
}

// CancelRequested reports whether Cancel was called.
func (j *Job) CancelRequested() bool {
	return j.cancelled.Load()
}

// Runner starts external processes described by Specs. It holds no state
// across jobs; each Spec/Job pair is fully independent.
type Runner struct {
	logger *slog.Logger
}

// New constructs a runner that logs through the provided logger.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger.With(logging.String("component", "runner"))}
}

// Start launches the process described by spec and returns immediately.
// All blocking work (reading lines, waiting for exit) happens on a
// dedicated goroutine. Launch failures surface as an Outcome with
// LaunchErr set and zero line events; Start itself never fails.
func (r *Runner) Start(spec Spec) *Job {
	job := &Job{
		lines:  make(chan LogEvent, 64),
		done:   make(chan Outcome, 1),
		logger: r.logger,
	}
	go r.run(spec, job)
	return job
}

func (r *Runner) run(spec Spec, job *Job) {
	outcome := r.stream(spec, job)

	// Closing the line channel before delivering the outcome is what
	// guarantees consumers see every line first.
	close(job.lines)
	job.done <- outcome
	close(job.done)

	if outcome.Launched() {
		r.logger.Info("process finished",
			logging.Int("exit_code", outcome.ExitCode),
			logging.Bool("cancel_requested", job.CancelRequested()))
	} else {
		r.logger.Error("process launch failed",
			logging.String("error_message", outcome.LaunchErr))
	}
}

// stream does the blocking part of a job: spawn, read merged output until
// exhausted, then collect the exit status. Every internal failure is
// converted into an Outcome; nothing propagates past this boundary.
func (r *Runner) stream(spec Spec, job *Job) Outcome {
	if len(spec.Args) == 0 || strings.TrimSpace(spec.Args[0]) == "" {
		return Outcome{LaunchErr: "empty command"}
	}

	cmd := command(spec.Args[0], spec.Args[1:]...) //nolint:gosec
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{LaunchErr: "stdout pipe: " + err.Error()}
	}
	// Operators need one chronological log, not two unsynchronized ones.
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return Outcome{LaunchErr: err.Error()}
	}

	r.logger.Info("process started",
		logging.String("program", spec.Args[0]),
		logging.Int("arg_count", len(spec.Args)-1))

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	seq := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		job.lines <- LogEvent{Seq: seq, Line: line, Tag: TagCombined}
		seq++
	}
	readErr := scanner.Err()

	// Wait must run even after a read error so the child is reaped and
	// trailing buffered output is not mistaken for a live stream.
	waitErr := cmd.Wait()

	if readErr != nil {
		return Outcome{LaunchErr: "read output: " + readErr.Error()}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return Outcome{ExitCode: exitErr.ExitCode()}
		}
		return Outcome{LaunchErr: waitErr.Error()}
	}
	return Outcome{ExitCode: 0}
}
