package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/angeloszaimis/audio-relay/internal/credentials"
)

const NameNative = "native"

// Native resolves streams in-process. Clients and Skip of a Request do not
// apply to it; headers and cookies are injected into every HTTP call.
type Native struct {
	transport http.RoundTripper
	timeout   time.Duration
	logger    *slog.Logger
}

// NewNative builds the engine. A nil transport falls back to
// http.DefaultTransport.
func NewNative(transport http.RoundTripper, timeout time.Duration, logger *slog.Logger) *Native {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Native{
		transport: transport,
		timeout:   timeout,
		logger:    logger,
	}
}

func (n *Native) client(req Request) *youtube.Client {
	return &youtube.Client{
		HTTPClient: &http.Client{
			Timeout:   n.timeout,
			Transport: &headerTransport{base: n.transport, header: outgoingHeader(req, time.Now())},
		},
	}
}

func (n *Native) Extract(ctx context.Context, req Request) (*Info, error) {
	yt := n.client(req)

	video, err := yt.GetVideoContext(ctx, req.URL)
	if err != nil {
		return nil, Classify(NameNative, err.Error())
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return nil, &Error{Engine: NameNative, Message: fmt.Sprintf("no audio format for %s", video.ID), Kind: ErrNoFormat}
	}

	streamURL, err := yt.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, Classify(NameNative, err.Error())
	}

	n.logger.Debug("Native stream resolved",
		slog.String("profile", req.Profile),
		slog.Int("itag", format.ItagNo),
		slog.String("mime", format.MimeType))

	info := &Info{
		URL:      optional(streamURL),
		Title:    optional(video.Title),
		Uploader: optional(video.Author),
	}

	if video.Duration > 0 {
		secs := video.Duration.Seconds()
		info.Duration = &secs
	}

	if len(video.Thumbnails) > 0 {
		// thumbnails are ordered from smallest to largest
		info.Thumbnail = optional(video.Thumbnails[len(video.Thumbnails)-1].URL)
	}

	return info, nil
}

// bestAudioFormat prefers audio-only formats and, within the preferred group,
// the highest bitrate.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	bestAudioOnly := false

	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 {
			continue
		}

		audioOnly := strings.HasPrefix(f.MimeType, "audio/")
		switch {
		case best == nil,
			audioOnly && !bestAudioOnly,
			audioOnly == bestAudioOnly && f.Bitrate > best.Bitrate:
			best = f
			bestAudioOnly = audioOnly
		}
	}

	return best
}

func outgoingHeader(req Request, now time.Time) http.Header {
	h := make(http.Header)

	for k, v := range req.Headers {
		h.Set(k, v)
	}

	if req.UserAgent != "" {
		h.Set("User-Agent", req.UserAgent)
	}

	switch {
	case req.Cookie != "":
		h.Set("Cookie", req.Cookie)
	case len(req.FileCookies) > 0:
		if v := credentials.HeaderValue(req.FileCookies, now); v != "" {
			h.Set("Cookie", v)
		}
	}

	return h
}

// headerTransport stamps a fixed header set onto every outgoing request.
type headerTransport struct {
	base   http.RoundTripper
	header http.Header
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if len(t.header) == 0 {
		return t.base.RoundTrip(r)
	}

	clone := r.Clone(r.Context())
	for k, vs := range t.header {
		clone.Header.Del(k)
		for _, v := range vs {
			clone.Header.Add(k, v)
		}
	}

	return t.base.RoundTrip(clone)
}
