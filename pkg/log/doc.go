// Package log provides structured logging of bridge events.
//
// Events capture received and sent payloads, session state changes, and
// classified failures. The FileLogger persists events as a compact CBOR
// stream (integer-keyed fields); the Reader decodes such streams back,
// optionally filtered. SlogAdapter mirrors events to log/slog for
// interactive debugging, and MultiLogger fans an event out to several
// sinks at once.
//
// Logging is strictly observational: encode failures are dropped and a
// slow logger only slows, never fails, the operation being logged.
package log
