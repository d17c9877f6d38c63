package history

import "time"

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning        Status = "running"
	StatusPostProcessing Status = "postprocessing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

// Record is one job's history row.
type Record struct {
	ID           string
	InputPath    string
	OutputDir    string
	Command      string
	Status       Status
	ExitCode     *int
	ErrorMessage string
	DerivedPath  string
	DerivedLines int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the record reached a final state.
func (r *Record) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
