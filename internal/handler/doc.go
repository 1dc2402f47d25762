// Package handler implements the HTTP surface of the relay. It turns a video id
// into a canonical watch URL, hands it to the strategy runner together with any
// credential overrides sent by the caller, and maps the outcome to JSON.
package handler
