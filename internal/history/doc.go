// Package history persists one record per transcription job to a SQLite
// database in the log directory. Records capture the launch command (token
// masked), terminal status, exit code, and the derived file produced by
// post-processing, so 'scribe jobs' can show what ran and how it ended.
package history
