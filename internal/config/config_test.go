package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ankimd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s != Default() {
		t.Errorf("Expected defaults for a missing file, got %+v", s)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeSettings(t, "cardsPerSession: 25\neasyBonus: 1.5\nshowSourceFile: false\n")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.CardsPerSession != 25 {
		t.Errorf("Expected cardsPerSession 25, got %d", s.CardsPerSession)
	}
	if s.EasyBonus != 1.5 {
		t.Errorf("Expected easyBonus 1.5, got %v", s.EasyBonus)
	}
	if s.ShowSourceFile {
		t.Error("Expected showSourceFile false")
	}
	// Untouched keys keep their defaults.
	if s.MaxInterval != Default().MaxInterval {
		t.Errorf("Expected default maxInterval, got %d", s.MaxInterval)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeSettings(t, "cardsPerSession: 25\nshuffleMode: fancy\n")

	_, err := Load(path, nil)
	if !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Expected ErrUnknownSetting, got %v", err)
	}
}

func TestLoadValidatesRanges(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"easyBonus too high", "easyBonus: 2.5\n"},
		{"easyBonus too low", "easyBonus: 0.9\n"},
		{"intervalModifier too low", "intervalModifier: 0.1\n"},
		{"maxInterval too low", "maxInterval: 5\n"},
		{"maxInterval too high", "maxInterval: 5000\n"},
		{"zero session size", "cardsPerSession: 0\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSettings(t, tc.content)
			if _, err := Load(path, nil); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANKIMD_EASY_BONUS", "1.8")
	t.Setenv("ANKIMD_CARDS_PER_SESSION", "7")

	s, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.EasyBonus != 1.8 {
		t.Errorf("Expected easyBonus 1.8 from env, got %v", s.EasyBonus)
	}
	if s.CardsPerSession != 7 {
		t.Errorf("Expected cardsPerSession 7 from env, got %d", s.CardsPerSession)
	}
}

func TestLoadFlagOverridesFile(t *testing.T) {
	path := writeSettings(t, "cardsPerSession: 25\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("cardsPerSession", Default().CardsPerSession, "")
	flags.Int("maxInterval", Default().MaxInterval, "")
	if err := flags.Parse([]string{"--cardsPerSession=3"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	s, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.CardsPerSession != 3 {
		t.Errorf("Expected flag to win over file, got %d", s.CardsPerSession)
	}
	if s.MaxInterval != Default().MaxInterval {
		t.Errorf("Expected unset flag to leave maxInterval at default, got %d", s.MaxInterval)
	}
}

func TestEnvToKey(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"ANKIMD_EASY_BONUS", "easyBonus"},
		{"ANKIMD_CARDS_PER_SESSION", "cardsPerSession"},
		{"ANKIMD_VERSION", "version"},
		{"ANKIMD_ENABLE_AUTOMATIC_INDEXING", "enableAutomaticIndexing"},
	}
	for _, tc := range testCases {
		if got := envToKey(tc.in); got != tc.want {
			t.Errorf("envToKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
