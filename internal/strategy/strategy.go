package strategy

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"

	"github.com/angeloszaimis/audio-relay/config"
	"github.com/angeloszaimis/audio-relay/internal/extractor"
)

type Profile struct {
	Name       string
	Engine     string
	Clients    []string
	Skip       []string
	UseCookies bool
	UseToken   bool
	Headers    map[string]string
}

func (p Profile) String() string {
	return p.Name
}

// Default returns a fresh copy of the built-in fallback order.
func Default() []Profile {
	return []Profile{
		{
			Name:       "Native",
			Engine:     extractor.NameNative,
			UseCookies: true,
		},
		{
			Name:       "Web/Cookies+PO",
			Engine:     extractor.NameYTDLP,
			Clients:    []string{"web"},
			UseCookies: true,
			UseToken:   true,
		},
		// yt-dlp skips the ios and android clients when cookies are passed,
		// so this profile runs without the cookie file.
		{
			Name:    "iOS/Android",
			Engine:  extractor.NameYTDLP,
			Clients: []string{"ios", "android", "web_creator"},
			Skip:    []string{"webpage", "configs"},
		},
		{
			Name:       "TV/Embedded",
			Engine:     extractor.NameYTDLP,
			Clients:    []string{"tv_embedded"},
			UseCookies: true,
		},
	}
}

// FromConfig converts configured entries, keeping their order. No entries
// means the built-in list.
func FromConfig(entries []config.StrategyConfig) []Profile {
	if len(entries) == 0 {
		return Default()
	}

	profiles := make([]Profile, 0, len(entries))
	for _, e := range entries {
		profiles = append(profiles, Profile{
			Name:       strings.TrimSpace(e.Name),
			Engine:     strings.ToLower(strings.TrimSpace(e.Engine)),
			Clients:    slices.Clone(e.Clients),
			Skip:       slices.Clone(e.Skip),
			UseCookies: e.UseCookies,
			UseToken:   e.UseToken,
			Headers:    maps.Clone(e.Headers),
		})
	}
	return profiles
}

// Validate checks a profile list against the engines that are available.
func Validate(profiles []Profile, engines []string) error {
	if len(profiles) == 0 {
		return fmt.Errorf("no extraction profiles configured")
	}

	allowed := make([]interface{}, 0, len(engines))
	for _, e := range engines {
		allowed = append(allowed, e)
	}

	seen := make(map[string]bool, len(profiles))
	for i := range profiles {
		p := profiles[i]
		err := validation.ValidateStruct(&p,
			validation.Field(&p.Name, validation.Required),
			validation.Field(&p.Engine, validation.Required, validation.In(allowed...)),
		)
		if err != nil {
			return fmt.Errorf("profile %d (%q): %w", i+1, p.Name, err)
		}

		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[key] = true
	}

	return nil
}

// Names lists profile names in order.
func Names(profiles []Profile) []string {
	return lo.Map(profiles, func(p Profile, _ int) string { return p.Name })
}
