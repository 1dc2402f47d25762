package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/angeloszaimis/audio-relay/internal/credentials"
	"github.com/angeloszaimis/audio-relay/internal/extractor"
	"github.com/angeloszaimis/audio-relay/internal/metrics"
)

const (
	// HeaderToken carries a caller-supplied proof-of-origin token.
	HeaderToken = "X-PO-Token"

	watchURL = "https://www.youtube.com/watch?v="

	liveness = "Audio relay is running"

	errMissingID = "Missing video ID"
)

// Runner is the part of the strategy runner the handler needs.
type Runner interface {
	Run(ctx context.Context, url string, creds credentials.Credentials) (*extractor.Info, string, error)
}

// Response is the body of a successful extraction. Missing fields are null.
type Response struct {
	StreamURL *string  `json:"stream_url"`
	Title     *string  `json:"title"`
	Artist    *string  `json:"artist"`
	Duration  *float64 `json:"duration"`
	Thumbnail *string  `json:"thumbnail"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type ExtractHandler struct {
	logger           *slog.Logger
	runner           Runner
	metricsCollector *metrics.Collector
}

func NewExtractHandler(logger *slog.Logger, runner Runner, collector *metrics.Collector) *ExtractHandler {
	return &ExtractHandler{
		logger:           logger,
		runner:           runner,
		metricsCollector: collector,
	}
}

// Home answers liveness probes.
func (h *ExtractHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(liveness))
}

// Extract resolves ?id= to a playable audio stream.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMissingID})
		return
	}

	creds := CredentialsFromRequest(r)

	h.logger.Info("Extraction requested",
		slog.String("id", id),
		slog.Bool("overrides", !creds.IsZero()),
		slog.Bool("cookie_override", creds.Cookie != ""),
		slog.Bool("user_agent_override", creds.UserAgent != ""),
		slog.Bool("token_override", creds.Token != ""))

	// A disconnecting caller must not abort an attempt that is already running.
	ctx := context.WithoutCancel(r.Context())

	info, profile, err := h.runner.Run(ctx, WatchURL(id), creds)

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:    metrics.EventRequestCompleted,
		Success: err == nil,
	})

	if err != nil {
		h.logger.Error("Extraction failed",
			slog.String("id", id),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	h.logger.Info("Extraction succeeded",
		slog.String("id", id),
		slog.String("profile", profile))

	writeJSON(w, http.StatusOK, NewResponse(info))
}

// WatchURL builds the canonical watch page URL for a video id.
func WatchURL(id string) string {
	return watchURL + url.QueryEscape(id)
}

// CredentialsFromRequest reads the caller's credential overrides. Empty
// headers count as absent.
func CredentialsFromRequest(r *http.Request) credentials.Credentials {
	return credentials.Credentials{
		Cookie:    strings.TrimSpace(r.Header.Get("Cookie")),
		UserAgent: strings.TrimSpace(r.Header.Get("User-Agent")),
		Token:     strings.TrimSpace(r.Header.Get(HeaderToken)),
	}
}

func NewResponse(info *extractor.Info) Response {
	return Response{
		StreamURL: info.URL,
		Title:     info.Title,
		Artist:    info.Uploader,
		Duration:  info.Duration,
		Thumbnail: info.Thumbnail,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
