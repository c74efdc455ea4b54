package notifier

import (
	"context"
	"fmt"
	"time"

	"ctfbot/internal/ctftime"
	"ctfbot/internal/storage"
	logx "ctfbot/pkg/logx"
)

// selectPending picks the events worth announcing: start strictly after
// now, strictly before now+window, and not already in the store. Feed
// order is preserved and the store is only read.
//
// An event without a usable start timestamp is skipped with a warning,
// not treated as an error. A store lookup failure aborts the pass: with
// the dedup state unknown, announcing would risk duplicates.
func selectPending(ctx context.Context, log logx.Logger, events []ctftime.Event, now time.Time, store storage.Store) ([]ctftime.Event, error) {
	deadline := now.Add(window)

	var out []ctftime.Event
	for _, ev := range events {
		if ev.Start.IsZero() {
			log.Warn("event has no start time; skipping",
				logx.Int64("event_id", ev.ID), logx.String("title", ev.Title))
			continue
		}
		if !ev.Start.After(now) || !ev.Start.Before(deadline) {
			continue
		}

		seen, err := store.Has(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("filter: dedup lookup for event %d: %w", ev.ID, err)
		}
		if seen {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
