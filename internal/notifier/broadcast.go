package notifier

import (
	"context"
	"fmt"

	"ctfbot/internal/ctftime"
	"ctfbot/internal/storage"
	kit "ctfbot/internal/transport"
	logx "ctfbot/pkg/logx"
)

// Broadcaster delivers one announcement to the configured chat and, on
// success, records the event so it is never announced again.
type Broadcaster struct {
	adapter kit.Adapter
	store   storage.Store
	log     logx.Logger
	target  kit.ChatTarget
}

func NewBroadcaster(adapter kit.Adapter, store storage.Store, target kit.ChatTarget, log logx.Logger) *Broadcaster {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Broadcaster{adapter: adapter, store: store, log: log, target: target}
}

// Announce sends the message and records the event. A send failure
// leaves the event unrecorded so the next cycle retries it
// (at-least-once). A record failure after a successful send is the one
// spot where a duplicate announcement becomes possible; it is logged
// loudly and not rolled back.
func (b *Broadcaster) Announce(ctx context.Context, ev ctftime.Event, msg Announcement) error {
	// Composing indicator is cosmetic; a failure must not block the send.
	if err := b.adapter.SendTyping(ctx, b.target); err != nil {
		b.log.Debug("typing indicator failed", logx.Int64("event_id", ev.ID), logx.Err(err))
	}

	var err error
	if len(msg.Image) > 0 {
		err = b.adapter.SendPhoto(ctx, b.target, msg.Image, msg.Text, nil)
	} else {
		err = b.adapter.SendText(ctx, b.target, msg.Text, nil)
	}
	if err != nil {
		return fmt.Errorf("broadcast event %d: %w", ev.ID, err)
	}

	if err := b.store.Record(ctx, ev); err != nil {
		b.log.Error("event announced but not recorded; it may be announced again next cycle",
			logx.Int64("event_id", ev.ID), logx.String("title", ev.Title), logx.Err(err))
	}
	return nil
}
