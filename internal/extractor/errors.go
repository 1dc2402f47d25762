package extractor

import (
	"errors"
	"strings"
)

var (
	// ErrBotCheck means the upstream asked to sign in or prove the client is
	// not automated. Cookies or a token usually help.
	ErrBotCheck = errors.New("bot check")
	// ErrUnavailable covers private, removed and region locked videos.
	ErrUnavailable = errors.New("video unavailable")
	// ErrNoFormat means metadata resolved but no audio format was usable.
	ErrNoFormat = errors.New("no suitable audio format")
	// ErrEngineFailed is the catch-all kind for unclassified failures.
	ErrEngineFailed = errors.New("engine failed")
)

var botCheckMarkers = []string{
	"sign in to confirm you",
	"confirm your age",
	"login required",
	"po token",
	"http error 403",
}

var unavailableMarkers = []string{
	"video unavailable",
	"this video is unavailable",
	"private video",
	"not available in your country",
	"has been removed",
}

// Error keeps the engine's own message intact and carries a classification
// reachable through errors.Is.
type Error struct {
	Engine  string
	Message string
	Kind    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Classify wraps an engine message into an *Error of the matching kind.
func Classify(engine, message string) *Error {
	lower := strings.ToLower(message)

	kind := ErrEngineFailed
	switch {
	case containsAny(lower, botCheckMarkers):
		kind = ErrBotCheck
	case containsAny(lower, unavailableMarkers):
		kind = ErrUnavailable
	}

	return &Error{Engine: engine, Message: message, Kind: kind}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
