package runner

import "fmt"

// StreamTag identifies which child stream a line came from. Stdout and
// stderr are merged into one chronological stream, so every line carries
// TagCombined.
type StreamTag string

// TagCombined marks lines from the merged stdout/stderr stream.
const TagCombined StreamTag = "combined"

// LogEvent is one line of child output. Seq starts at 0 and increases by
// one per emitted line within a job.
type LogEvent struct {
	Seq  int
	Line string
	Tag  StreamTag
}

// Outcome is the terminal result of a job. Exactly one of the two cases
// holds: the process ran and exited with ExitCode, or it never started and
// LaunchErr carries the underlying system message.
type Outcome struct {
	ExitCode  int
	LaunchErr string
}

// Launched reports whether the process actually started.
func (o Outcome) Launched() bool {
	return o.LaunchErr == ""
}

// Success reports whether the process ran and exited zero. Any other exit
// status is opaque to this package; its meaning belongs to the external
// program.
func (o Outcome) Success() bool {
	return o.Launched() && o.ExitCode == 0
}

// String renders a human-readable terminal state for logs and the CLI.
func (o Outcome) String() string {
	if !o.Launched() {
		return fmt.Sprintf("launch failed: %s", o.LaunchErr)
	}
	if o.ExitCode == 0 {
		return "exited successfully"
	}
	return fmt.Sprintf("exited with code %d", o.ExitCode)
}
