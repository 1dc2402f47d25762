// Package healthcheck implements periodic readiness checking for extraction
// engines. Engines that depend on something outside the process, such as the
// yt-dlp binary, are probed on a ticker and their status is served on /health.
package healthcheck
