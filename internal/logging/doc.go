// Package logging builds the application slog logger. Two output formats
// are supported: a compact console format for interactive use and JSON for
// machine consumption. Helper constructors mirror the slog attr functions
// so call sites stay terse.
package logging
