package main

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/afero"

	"github.com/angeloszaimis/audio-relay/config"
	"github.com/angeloszaimis/audio-relay/internal/credentials"
	"github.com/angeloszaimis/audio-relay/internal/extractor"
	"github.com/angeloszaimis/audio-relay/internal/healthcheck"
	"github.com/angeloszaimis/audio-relay/internal/metrics"
	"github.com/angeloszaimis/audio-relay/internal/runner"
	"github.com/angeloszaimis/audio-relay/internal/strategy"
)

// app is everything a command needs, wired from one Config.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	engines   map[string]extractor.Engine
	runner    *runner.Runner
	collector *metrics.Collector
	monitor   *healthcheck.Monitor
}

func newApp(cfg *config.Config, log *slog.Logger, fs afero.Fs) (*app, error) {
	engines := buildEngines(cfg, log)

	profiles, err := buildProfiles(cfg, engines)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	store := credentials.NewStore(fs, cfg.Extraction.CookieFile, cfg.Extraction.Token, cfg.Extraction.UserAgent)

	minJitter, maxJitter := cfg.Extraction.Jitter()
	r := runner.New(profiles, engines, store, log,
		runner.WithJitter(runner.Jitter{Min: minJitter, Max: maxJitter}),
		runner.WithCollector(collector),
	)

	log.Info("Extraction profiles loaded",
		slog.Any("profiles", strategy.Names(r.Profiles())),
		slog.Bool("cookie_file_present", store.HasCookieFile()),
		slog.Bool("default_token", cfg.Extraction.Token != ""))

	return &app{
		cfg:       cfg,
		log:       log,
		engines:   engines,
		runner:    r,
		collector: collector,
		monitor:   healthcheck.New(engines, config.Duration(cfg.HealthCheck.Interval), log, collector),
	}, nil
}

func buildEngines(cfg *config.Config, log *slog.Logger) map[string]extractor.Engine {
	var native *extractor.Native
	if cfg.Native.TLSFingerprint {
		native = extractor.NewNative(extractor.NewFingerprintTransport(), config.Duration(cfg.Native.Timeout), log)
	} else {
		native = extractor.NewNative(nil, config.Duration(cfg.Native.Timeout), log)
	}

	return map[string]extractor.Engine{
		extractor.NameNative: native,
		extractor.NameYTDLP:  extractor.NewYTDLP(cfg.YTDLP.Executable, cfg.YTDLP.Format, log),
	}
}

func buildProfiles(cfg *config.Config, engines map[string]extractor.Engine) ([]strategy.Profile, error) {
	profiles := strategy.FromConfig(cfg.Strategies)

	if err := strategy.Validate(profiles, slices.Sorted(maps.Keys(engines))); err != nil {
		return nil, fmt.Errorf("invalid strategies: %w", err)
	}

	return profiles, nil
}
