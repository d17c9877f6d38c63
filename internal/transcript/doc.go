// Package transcript converts the structured JSON artifact produced by
// WhisperX into a derived timestamped text file. It locates the artifact on
// disk (tolerating naming drift between WhisperX versions), validates the
// segment schema, renders each segment's start offset as a clock prefix,
// and writes one line per valid segment. Malformed segments are skipped and
// counted; only artifact-level problems fail the conversion.
//
// The package performs no process execution: it is a pure function of
// filesystem state plus its two inputs, which keeps it unit testable with
// canned directories.
package transcript
