// Package runner launches a single external process, streams its merged
// stdout/stderr as ordered line events, and delivers exactly one terminal
// outcome once the process exits. Callers consume the line channel until it
// closes, then read the outcome; the invoking goroutine is never blocked on
// child I/O.
package runner
