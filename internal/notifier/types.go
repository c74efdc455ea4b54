package notifier

import (
	"context"
	"time"

	"ctfbot/internal/ctftime"
	"ctfbot/internal/storage"
	kit "ctfbot/internal/transport"
	logx "ctfbot/pkg/logx"
)

const (
	// window is how far ahead an event start may lie to be announced.
	// Both edges are strict: start == now and start == now+window are out.
	window = 7 * 24 * time.Hour

	DefaultPollInterval = time.Hour
	DefaultPaceDelay    = 10 * time.Second
)

// Config controls the notifier service.
type Config struct {
	Target       kit.ChatTarget
	PollInterval time.Duration // 0 means DefaultPollInterval
	PaceDelay    time.Duration // 0 means DefaultPaceDelay
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PaceDelay <= 0 {
		c.PaceDelay = DefaultPaceDelay
	}
	return c
}

// Fetcher is the feed collaborator (ctftime.Client in production).
type Fetcher interface {
	Events(ctx context.Context) ([]ctftime.Event, error)
	Logo(ctx context.Context, url string) ([]byte, error)
}

// Deps are the service's collaborators. Pacer and Now are optional and
// exist so tests can run without real timers.
type Deps struct {
	Fetcher Fetcher
	Store   storage.Store
	Adapter kit.Adapter
	Log     logx.Logger

	Pacer Pacer
	Now   func() time.Time
}

// Announcement is the rendered message for one event. Image is nil when
// the logo could not be fetched; the announcement then goes out text-only.
type Announcement struct {
	Text  string
	Image []byte
}

// State is the scheduler's externally visible state.
type State int32

const (
	// StateIdle: no cycle in progress.
	StateIdle State = iota
	// StateRunning: a cycle is fetching/filtering.
	StateRunning
	// StateCycling: a cycle is broadcasting events.
	StateCycling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCycling:
		return "cycling"
	default:
		return "unknown"
	}
}
