package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/runner"
	"scribe/internal/transcript"
	"scribe/internal/whisperx"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// Request describes one transcription job.
type Request struct {
	InputPath       string
	Options         whisperx.Options
	TimestampedText bool
}

// Execution is a live handle to a started job. Events yields the job's
// sequenced event stream and closes after the terminal result or error
// event; Cancel forwards the advisory cancellation request.
type Execution struct {
	ID     string
	events chan Event
	job    *runner.Job
}

// Events returns the job's event stream.
func (e *Execution) Events() <-chan Event {
	return e.events
}

// Cancel records a best-effort cancellation request on the underlying
// process. The job's real outcome still arrives when the process exits.
func (e *Execution) Cancel() {
	e.job.Cancel()
}

// Manager runs at most one job at a time and coordinates the runner, the
// history store, and the transcript converter.
type Manager struct {
	cfg       *config.Config
	store     *history.Store
	runner    *runner.Runner
	converter *transcript.Converter
	bus       *Bus
	logger    *slog.Logger
	lock      *flock.Flock

	mu     sync.Mutex
	active bool
}

// NewManager wires a manager from its collaborators. The lock file lives
// next to the history database so independent scribe processes exclude
// each other too.
func NewManager(cfg *config.Config, store *history.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		store:     store,
		runner:    runner.New(logger),
		converter: transcript.NewConverter(logger),
		bus:       NewBus(),
		logger:    logging.NewComponentLogger(logger, "jobs"),
		lock:      flock.New(filepath.Join(cfg.Paths.LogDir, "scribe.lock")),
	}
}

// Start validates the request, persists the initial history record, and
// launches the job on a worker goroutine. The caller's goroutine never
// blocks on child-process I/O.
func (m *Manager) Start(ctx context.Context, req Request) (*Execution, error) {
	input := strings.TrimSpace(req.InputPath)
	if input == "" {
		return nil, errors.New("input path required")
	}
	if _, err := os.Stat(input); err != nil {
		return nil, fmt.Errorf("cannot access input media: %w", err)
	}

	opts := req.Options
	if strings.TrimSpace(opts.OutputDir) == "" {
		opts.OutputDir = filepath.Join(filepath.Dir(input), "transcripts")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	formatChanged := false
	if req.TimestampedText {
		formatChanged = opts.EnsureJSONArtifact()
	}

	spec, err := whisperx.BuildSpec(input, opts)
	if err != nil {
		return nil, err
	}
	display := whisperx.DisplayCommand(spec, opts.HFToken)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return nil, ErrJobAlreadyRunning
	}
	locked, err := m.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: another scribe process holds %s", ErrJobAlreadyRunning, m.lock.Path())
	}

	record := &history.Record{
		ID:        uuid.NewString(),
		InputPath: input,
		OutputDir: opts.OutputDir,
		Command:   display,
		Status:    history.StatusRunning,
	}
	persistCtx := context.WithoutCancel(ctx)
	if err := m.store.Insert(persistCtx, record); err != nil {
		_ = m.lock.Unlock()
		return nil, fmt.Errorf("record job: %w", err)
	}
	m.active = true

	exec := &Execution{
		ID:     record.ID,
		events: make(chan Event, 64),
		job:    m.runner.Start(spec),
	}

	m.publish(exec, Event{
		JobID:   record.ID,
		Type:    EventTypeStatus,
		Status:  history.StatusRunning,
		Message: "Launching: " + display,
	})
	if formatChanged {
		m.publish(exec, Event{
			JobID:   record.ID,
			Type:    EventTypeLog,
			Message: "Changed output format to 'all' for timestamped text (includes JSON)",
		})
	}
	m.logger.Info("job started",
		logging.String("job_id", record.ID),
		logging.String("input", input),
		logging.String("output_dir", opts.OutputDir))

	go m.supervise(persistCtx, req, opts, exec, record)
	return exec, nil
}

// supervise consumes the runner's stream, applies terminal transitions,
// and runs post-processing after a successful exit. It owns the execution
// event channel and closes it when the job is fully settled.
func (m *Manager) supervise(ctx context.Context, req Request, opts whisperx.Options, exec *Execution, record *history.Record) {
	defer func() {
		close(exec.events)
		m.mu.Lock()
		m.active = false
		if err := m.lock.Unlock(); err != nil {
			m.logger.Warn("release run lock", logging.Error(err))
		}
		m.mu.Unlock()
	}()

	for line := range exec.job.Lines() {
		m.publish(exec, Event{
			JobID:   record.ID,
			Type:    EventTypeLog,
			Message: line.Line,
			LineSeq: line.Seq,
		})
	}
	outcome := <-exec.job.Done()

	if !outcome.Launched() {
		record.Status = history.StatusFailed
		record.ErrorMessage = outcome.LaunchErr
		m.persist(ctx, record)
		m.publish(exec, Event{
			JobID:   record.ID,
			Type:    EventTypeError,
			Status:  history.StatusFailed,
			Message: outcome.String(),
		})
		return
	}

	code := outcome.ExitCode
	record.ExitCode = &code

	if code != 0 {
		record.Status = history.StatusFailed
		record.ErrorMessage = outcome.String()
		m.persist(ctx, record)
		m.publish(exec, Event{
			JobID:    record.ID,
			Type:     EventTypeError,
			Status:   history.StatusFailed,
			Message:  outcome.String(),
			ExitCode: code,
		})
		return
	}

	if req.TimestampedText {
		record.Status = history.StatusPostProcessing
		m.persist(ctx, record)
		m.publish(exec, Event{
			JobID:   record.ID,
			Type:    EventTypeStatus,
			Status:  history.StatusPostProcessing,
			Message: "Creating timestamped text",
		})

		result, err := m.converter.Convert(record.InputPath, opts.OutputDir)
		if err != nil {
			// The transcription itself succeeded; the conversion failure
			// is recorded alongside the completed job, never hidden.
			record.ErrorMessage = "timestamped text: " + err.Error()
			m.publish(exec, Event{
				JobID:   record.ID,
				Type:    EventTypeError,
				Message: "Failed to create timestamped text: " + err.Error(),
			})
		} else {
			record.DerivedPath = result.Path
			record.DerivedLines = result.Lines
			m.publish(exec, Event{
				JobID:   record.ID,
				Type:    EventTypeLog,
				Message: fmt.Sprintf("Timestamped text created: %s (%d lines)", result.Path, result.Lines),
			})
		}
	}

	record.Status = history.StatusCompleted
	m.persist(ctx, record)
	m.publish(exec, Event{
		JobID:       record.ID,
		Type:        EventTypeResult,
		Status:      history.StatusCompleted,
		Message:     outcome.String(),
		ExitCode:    code,
		DerivedPath: record.DerivedPath,
	})
}

func (m *Manager) publish(exec *Execution, event Event) {
	exec.events <- m.bus.Publish(event)
}

func (m *Manager) persist(ctx context.Context, record *history.Record) {
	if err := m.store.Update(ctx, record); err != nil {
		m.logger.Error("persist job transition",
			logging.String("job_id", record.ID),
			logging.Error(err))
	}
}
