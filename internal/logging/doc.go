// Package logging builds the slog loggers used across pitlane.
//
// It owns the console and JSON handlers, level parsing, and output routing
// (stdout plus an optional file under the log directory). Context helpers tag
// lines with the pass run id and post id so a whole ingestion pass can be
// followed in the logs. NewNop returns a logger for tests and wiring code
// that has nothing to report.
package logging
