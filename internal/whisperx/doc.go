// Package whisperx builds the argument vector for the external WhisperX
// transcription command. scribe treats the command as an opaque child
// process: options are passed through without interpreting their values,
// and only the diarize/token pairing is checked before launch.
package whisperx
