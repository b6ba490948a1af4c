// Package logging assembles structured slog loggers and formatting helpers used
// across bechdelai.
//
// It owns the console and JSON handlers, routes file output through a
// rotating writer, and exposes context-aware helpers so pipeline code can tag
// log lines with run IDs, stages and correlation IDs. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
