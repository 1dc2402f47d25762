// Package logger provides structured logging for the relay with configurable
// log levels. It wraps log/slog and switches between text and JSON output
// depending on the deployment environment.
package logger
