package extractor

import (
	"context"
	"net/http"
	"strings"
)

// Request is the outgoing configuration of a single extraction attempt.
type Request struct {
	URL     string
	Profile string

	Clients []string
	Skip    []string
	Headers map[string]string

	// Cookie is a raw Cookie header supplied by the caller. CookieFile and
	// FileCookies describe the local cookie file instead; never both.
	Cookie      string
	CookieFile  string
	FileCookies []*http.Cookie

	UserAgent string
	Token     string
}

// Info is the projection of what an engine returns. Nil fields were not
// reported by the engine.
type Info struct {
	URL       *string
	Title     *string
	Uploader  *string
	Duration  *float64
	Thumbnail *string
}

type Engine interface {
	Extract(ctx context.Context, req Request) (*Info, error)
}

// Checker is implemented by engines that depend on something outside the
// process and can tell whether it is usable.
type Checker interface {
	Check(ctx context.Context) error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request) (*Info, error)

func (f EngineFunc) Extract(ctx context.Context, req Request) (*Info, error) {
	return f(ctx, req)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
