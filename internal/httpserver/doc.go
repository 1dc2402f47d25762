// Package httpserver wraps http.Server with address validation, CORS and
// graceful shutdown.
package httpserver
