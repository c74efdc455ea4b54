package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"ctfbot/internal/ctftime"
	logx "ctfbot/pkg/logx"
)

// Store is the persistence API used by the notifier.
type Store interface {
	// Has reports whether an event has already been announced.
	Has(ctx context.Context, eventID int64) (bool, error)
	// Record marks an event as announced. It is idempotent: recording an
	// event that is already present is a no-op, not an error.
	Record(ctx context.Context, ev ctftime.Event) error
	Close() error
}

// Config configures storage.
//
// Driver values: "sqlite" (default when empty).
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
