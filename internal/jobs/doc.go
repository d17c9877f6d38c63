// Package jobs orchestrates one transcription job end to end: it builds
// the WhisperX job spec, starts the process runner on a worker goroutine,
// republishes line events with job identity attached, persists history
// transitions, and on success hands the artifact to the transcript
// converter. A lock file keeps concurrent scribe processes from running
// jobs against the same history database at once.
package jobs
