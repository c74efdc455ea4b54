package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	kit "ctfbot/internal/transport"
	logx "ctfbot/pkg/logx"
)

var cycleNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(feed *fakeFeed, store *fakeStore, adapter *fakeAdapter, pacer Pacer) *Service {
	return New(Config{Target: kit.ChatTarget{ChatID: 99}}, Deps{
		Fetcher: feed,
		Store:   store,
		Adapter: adapter,
		Log:     logx.Nop(),
		Pacer:   pacer,
		Now:     func() time.Time { return cycleNow },
	})
}

func TestCycleAnnouncesOnlyWindowedEvents(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{}
	feed.events = append(feed.events,
		eventAt(1, "soon ctf", cycleNow.Add(3*24*time.Hour)),
		eventAt(2, "far ctf", cycleNow.Add(10*24*time.Hour)),
	)
	store := newFakeStore()
	adapter := &fakeAdapter{}

	s := newTestService(feed, store, adapter, NopPacer{})
	s.runCycle(context.Background())

	if adapter.sentCount() != 1 {
		t.Fatalf("expected 1 send, got %d", adapter.sentCount())
	}
	if !strings.Contains(adapter.sent[0].text, "soon ctf") {
		t.Fatalf("unexpected announcement: %q", adapter.sent[0].text)
	}
	if !store.has(1) {
		t.Fatal("event 1 should be recorded after successful broadcast")
	}
	if store.has(2) {
		t.Fatal("event 2 is outside the window and must not be recorded")
	}
}

func TestCycleSkipsStoredEventsWithoutPacing(t *testing.T) {
	t.Parallel()
	ev := eventAt(1, "already sent", cycleNow.Add(3*24*time.Hour))
	feed := &fakeFeed{}
	feed.events = append(feed.events, ev, eventAt(2, "far ctf", cycleNow.Add(10*24*time.Hour)))

	store := newFakeStore()
	if err := store.Record(context.Background(), ev); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	adapter := &fakeAdapter{}
	pacer := &countingPacer{}

	s := newTestService(feed, store, adapter, pacer)
	s.runCycle(context.Background())

	if adapter.sentCount() != 0 {
		t.Fatalf("expected no sends, got %d", adapter.sentCount())
	}
	if pacer.waits != 0 {
		t.Fatalf("expected no pacing with empty filter output, got %d waits", pacer.waits)
	}
}

func TestAnnounceFailureLeavesEventForNextCycle(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{}
	feed.events = append(feed.events, eventAt(1, "flaky", cycleNow.Add(24*time.Hour)))
	store := newFakeStore()
	adapter := &fakeAdapter{failOn: map[int]error{0: errors.New("telegram down")}}

	s := newTestService(feed, store, adapter, NopPacer{})
	s.runCycle(context.Background())

	if adapter.sentCount() != 0 {
		t.Fatalf("expected failed send, got %d successes", adapter.sentCount())
	}
	if store.has(1) {
		t.Fatal("failed broadcast must not be recorded")
	}

	// Next cycle retries and succeeds.
	s.runCycle(context.Background())
	if adapter.sentCount() != 1 {
		t.Fatalf("expected retry to succeed, got %d sends", adapter.sentCount())
	}
	if !store.has(1) {
		t.Fatal("event should be recorded after successful retry")
	}
}

func TestCycleIsolatesPerEventFailure(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{}
	feed.events = append(feed.events,
		eventAt(1, "first", cycleNow.Add(24*time.Hour)),
		eventAt(2, "second", cycleNow.Add(48*time.Hour)),
		eventAt(3, "third", cycleNow.Add(72*time.Hour)),
	)
	store := newFakeStore()
	adapter := &fakeAdapter{failOn: map[int]error{1: errors.New("rate limited")}}
	pacer := &countingPacer{}

	s := newTestService(feed, store, adapter, pacer)
	s.runCycle(context.Background())

	if adapter.sentCount() != 2 {
		t.Fatalf("expected 2 successful sends, got %d", adapter.sentCount())
	}
	if !store.has(1) || !store.has(3) {
		t.Fatal("events 1 and 3 should be recorded despite event 2 failing")
	}
	if store.has(2) {
		t.Fatal("failed event 2 must remain a candidate")
	}
	if pacer.waits != 3 {
		t.Fatalf("expected pacing for every processed event, got %d waits", pacer.waits)
	}
}

func TestCycleAbortsOnFetchError(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{err: errors.New("feed unreachable")}
	store := newFakeStore()
	adapter := &fakeAdapter{}

	s := newTestService(feed, store, adapter, NopPacer{})
	s.runCycle(context.Background())

	if adapter.sentCount() != 0 {
		t.Fatal("no sends expected when fetch fails")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %v, want idle after aborted cycle", s.State())
	}
}

func TestCycleAbortsOnStoreError(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{}
	feed.events = append(feed.events, eventAt(1, "x", cycleNow.Add(24*time.Hour)))
	store := newFakeStore()
	store.hasErr = errors.New("store down")
	adapter := &fakeAdapter{}

	s := newTestService(feed, store, adapter, NopPacer{})
	s.runCycle(context.Background())

	if adapter.sentCount() != 0 {
		t.Fatal("no sends expected when the dedup store is unavailable")
	}
}

func TestCycleSingleFlight(t *testing.T) {
	t.Parallel()
	feed := &fakeFeed{}
	s := newTestService(feed, newFakeStore(), &fakeAdapter{}, NopPacer{})

	s.inFlight.Store(true)
	s.runCycle(context.Background())
	if feed.calls != 0 {
		t.Fatal("tick must be skipped while a cycle is in progress")
	}

	s.inFlight.Store(false)
	s.runCycle(context.Background())
	if feed.calls != 1 {
		t.Fatalf("expected one fetch after the guard clears, got %d", feed.calls)
	}
}

func TestCycleSendsPhotoWhenLogoAvailable(t *testing.T) {
	t.Parallel()
	ev := eventAt(1, "pretty ctf", cycleNow.Add(24*time.Hour))
	ev.Logo = "https://ctftime.org/media/events/logo.png"

	feed := &fakeFeed{logo: []byte("png-bytes")}
	feed.events = append(feed.events, ev)
	adapter := &fakeAdapter{}
	store := newFakeStore()

	s := newTestService(feed, store, adapter, NopPacer{})
	s.runCycle(context.Background())

	if adapter.sentCount() != 1 {
		t.Fatalf("expected 1 send, got %d", adapter.sentCount())
	}
	if !adapter.sent[0].hasImg {
		t.Fatal("expected photo send for event with logo")
	}
	if adapter.typing == 0 {
		t.Fatal("expected a typing indicator before the send")
	}
}

func TestStateStringNames(t *testing.T) {
	t.Parallel()
	if StateIdle.String() != "idle" || StateRunning.String() != "running" || StateCycling.String() != "cycling" {
		t.Fatal("unexpected state names")
	}
}
