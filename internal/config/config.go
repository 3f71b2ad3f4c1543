// Package config loads the application settings. Settings are an explicit
// versioned struct: defaults are applied once at load, unknown file keys are
// rejected instead of silently merged, and ranges are validated.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// ANKIMD_EASY_BONUS=1.5.
const EnvPrefix = "ANKIMD_"

// SettingsVersion is the current settings schema version.
const SettingsVersion = 1

// ErrUnknownSetting is returned when the settings file contains a key that
// is not part of the schema.
var ErrUnknownSetting = errors.New("unknown setting")

// Settings holds all user-tunable behavior.
type Settings struct {
	Version int `koanf:"version"`

	CardsPerSession int `koanf:"cardsPerSession" validate:"min=1"`
	NewCardsPerDay  int `koanf:"newCardsPerDay" validate:"min=0"`
	ReviewsPerDay   int `koanf:"reviewsPerDay" validate:"min=0"`

	EasyBonus        float64 `koanf:"easyBonus" validate:"gte=1,lte=2"`
	IntervalModifier float64 `koanf:"intervalModifier" validate:"gte=0.5,lte=2"`
	MaxInterval      int     `koanf:"maxInterval" validate:"gte=30,lte=1000"`

	ShowSourceFile          bool `koanf:"showSourceFile"`
	EnableMarkdownRendering bool `koanf:"enableMarkdownRendering"`
	DarkModeButtons         bool `koanf:"darkModeButtons"`
	EnableAutomaticIndexing bool `koanf:"enableAutomaticIndexing"`
}

// knownKeys are the accepted settings file keys, matching the koanf tags.
var knownKeys = map[string]bool{
	"version":                 true,
	"cardsPerSession":         true,
	"newCardsPerDay":          true,
	"reviewsPerDay":           true,
	"easyBonus":               true,
	"intervalModifier":        true,
	"maxInterval":             true,
	"showSourceFile":          true,
	"enableMarkdownRendering": true,
	"darkModeButtons":         true,
	"enableAutomaticIndexing": true,
}

// Default returns the stock settings.
func Default() Settings {
	return Settings{
		Version:                 SettingsVersion,
		CardsPerSession:         10,
		NewCardsPerDay:          20,
		ReviewsPerDay:           100,
		EasyBonus:               1.3,
		IntervalModifier:        1.0,
		MaxInterval:             365,
		ShowSourceFile:          true,
		EnableMarkdownRendering: true,
		DarkModeButtons:         false,
		EnableAutomaticIndexing: true,
	}
}

// Load builds the effective settings. Precedence, lowest to highest:
// defaults, the yaml file at path (if it exists), ANKIMD_* environment
// variables, then explicitly set flags. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Settings{}, fmt.Errorf("load settings file %s: %w", path, err)
			}
			for _, key := range k.Keys() {
				if !knownKeys[key] {
					return Settings{}, fmt.Errorf("%w: %q in %s", ErrUnknownSetting, key, path)
				}
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envToKey), nil); err != nil {
		return Settings{}, fmt.Errorf("load settings from env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Settings{}, fmt.Errorf("load settings from flags: %w", err)
		}
	}

	s := Default()
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// envToKey maps ANKIMD_EASY_BONUS to easyBonus.
func envToKey(name string) string {
	name = strings.TrimPrefix(name, EnvPrefix)
	parts := strings.Split(strings.ToLower(name), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
