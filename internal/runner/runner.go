package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/angeloszaimis/audio-relay/internal/credentials"
	"github.com/angeloszaimis/audio-relay/internal/extractor"
	"github.com/angeloszaimis/audio-relay/internal/metrics"
	"github.com/angeloszaimis/audio-relay/internal/strategy"
)

// Jitter bounds the random pause between two attempts. The zero value
// disables it.
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

func (j Jitter) next() time.Duration {
	if j.Max <= 0 || j.Max < j.Min {
		return j.Min
	}
	if j.Max == j.Min {
		return j.Min
	}
	return j.Min + rand.N(j.Max-j.Min+1)
}

type Runner struct {
	profiles  []strategy.Profile
	engines   map[string]extractor.Engine
	store     *credentials.Store
	jitter    Jitter
	sleep     func(ctx context.Context, d time.Duration)
	collector *metrics.Collector
	logger    *slog.Logger
}

type Option func(*Runner)

func WithJitter(j Jitter) Option {
	return func(r *Runner) { r.jitter = j }
}

// WithSleep replaces the pause implementation, mostly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

func WithCollector(c *metrics.Collector) Option {
	return func(r *Runner) { r.collector = c }
}

func New(
	profiles []strategy.Profile,
	engines map[string]extractor.Engine,
	store *credentials.Store,
	logger *slog.Logger,
	opts ...Option,
) *Runner {
	r := &Runner{
		profiles: slices.Clone(profiles),
		engines:  engines,
		store:    store,
		sleep:    sleepContext,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Profiles returns the configured order.
func (r *Runner) Profiles() []strategy.Profile {
	return slices.Clone(r.profiles)
}

// Run tries every profile in order and returns the first successful result.
// When all of them fail the error is an *AggregateError.
func (r *Runner) Run(ctx context.Context, url string, creds credentials.Credentials) (*extractor.Info, string, error) {
	failures := make([]Failure, 0, len(r.profiles))

	for i, profile := range r.profiles {
		if i > 0 {
			if d := r.jitter.next(); d > 0 {
				r.sleep(ctx, d)
			}
		}

		info, err := r.attempt(ctx, profile, url, creds)
		if err == nil {
			return info, profile.Name, nil
		}

		failures = append(failures, Failure{Profile: profile.Name, Err: err})
	}

	return nil, "", &AggregateError{Failures: failures}
}

func (r *Runner) attempt(ctx context.Context, profile strategy.Profile, url string, creds credentials.Credentials) (*extractor.Info, error) {
	r.collector.Emit(metrics.MetricEvent{Type: metrics.EventAttemptStarted, Profile: profile.Name})
	start := time.Now()

	info, err := r.extract(ctx, profile, url, creds)
	duration := time.Since(start)

	if err != nil {
		r.logger.Warn("Strategy failed",
			slog.String("profile", profile.Name),
			slog.String("engine", profile.Engine),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		r.collector.Emit(metrics.MetricEvent{
			Type:     metrics.EventAttemptFailed,
			Profile:  profile.Name,
			Duration: duration,
			Kind:     failureKind(err),
		})
		return nil, err
	}

	r.logger.Info("Strategy succeeded",
		slog.String("profile", profile.Name),
		slog.String("engine", profile.Engine),
		slog.Duration("duration", duration))

	r.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventAttemptSucceeded,
		Profile:  profile.Name,
		Duration: duration,
	})
	return info, nil
}

func (r *Runner) extract(ctx context.Context, profile strategy.Profile, url string, creds credentials.Credentials) (*extractor.Info, error) {
	engine, ok := r.engines[profile.Engine]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEngine, profile.Engine)
	}

	resolved, err := r.store.Resolve(creds, profile.UseCookies, profile.UseToken)
	if err != nil {
		return nil, err
	}

	info, err := engine.Extract(ctx, extractor.Request{
		URL:         url,
		Profile:     profile.Name,
		Clients:     slices.Clone(profile.Clients),
		Skip:        slices.Clone(profile.Skip),
		Headers:     profile.Headers,
		Cookie:      resolved.Cookie,
		CookieFile:  resolved.CookieFile,
		FileCookies: resolved.FileCookies,
		UserAgent:   resolved.UserAgent,
		Token:       resolved.Token,
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errors.New("engine returned no result")
	}

	return info, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, extractor.ErrBotCheck):
		return extractor.ErrBotCheck.Error()
	case errors.Is(err, extractor.ErrUnavailable):
		return extractor.ErrUnavailable.Error()
	case errors.Is(err, extractor.ErrNoFormat):
		return extractor.ErrNoFormat.Error()
	case errors.Is(err, ErrUnknownEngine):
		return ErrUnknownEngine.Error()
	default:
		return extractor.ErrEngineFailed.Error()
	}
}

// sleepContext pauses for d, returning early if ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
