package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the on-disk configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1h").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Notifier NotifierConfig `json:"notifier"`
}

type TelegramConfig struct {
	Token    string `json:"token"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the dedup store.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/ctfbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// NotifierConfig tunes the polling cycle. Defaults (1h poll, 10s pacing)
// match the feed's etiquette and Telegram's rate limits; configs rarely
// need to touch these.
type NotifierConfig struct {
	PollInterval string `json:"poll_interval,omitempty"`
	PaceDelay    string `json:"pace_delay,omitempty"`
	// FeedURL overrides the CTFtime API root (tests, mirrors).
	FeedURL string `json:"feed_url,omitempty"`
}

// Load reads, strictly decodes, and validates a config file.
// Unknown keys are an error so typos are caught at startup, not ignored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	jsonBytes, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s (%s): %w", path, format, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on anything the process cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("config: telegram.token is required")
	}
	if c.Telegram.ChatID == 0 {
		return errors.New("config: telegram.chat_id is required")
	}

	for _, d := range []struct{ path, raw string }{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"notifier.poll_interval", c.Notifier.PollInterval},
		{"notifier.pace_delay", c.Notifier.PaceDelay},
	} {
		if _, err := parseDuration(d.path, d.raw); err != nil {
			return err
		}
	}
	return nil
}

// Duration accessors below assume Validate() passed; a bad string at
// this point falls back to the default rather than panicking.

func (c *Config) TelegramPollTimeout() time.Duration {
	return durationOr(c.Telegram.PollTimeout, 10*time.Second)
}

func (c *Config) StorageBusyTimeout() time.Duration {
	return durationOr(c.Storage.BusyTimeout, 5*time.Second)
}

func (c *Config) PollInterval() time.Duration {
	return durationOr(c.Notifier.PollInterval, 0)
}

func (c *Config) PaceDelay() time.Duration {
	return durationOr(c.Notifier.PaceDelay, 0)
}

func (c *Config) StoragePath() string {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return "./ctfbot.db"
	}
	return c.Storage.Path
}

func parseDuration(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s: duration must be >= 0", path)
	}
	return d, nil
}

func durationOr(raw string, def time.Duration) time.Duration {
	d, err := parseDuration("", raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
