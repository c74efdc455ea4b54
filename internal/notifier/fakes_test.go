package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"ctfbot/internal/ctftime"
	kit "ctfbot/internal/transport"
)

// fakeStore is an in-memory storage.Store with injectable failures.
type fakeStore struct {
	mu        sync.Mutex
	events    map[int64]ctftime.Event
	hasErr    error
	recordErr error
	hasCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[int64]ctftime.Event{}}
}

func (s *fakeStore) Has(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCalls++
	if s.hasErr != nil {
		return false, s.hasErr
	}
	_, ok := s.events[id]
	return ok, nil
}

func (s *fakeStore) Record(ctx context.Context, ev ctftime.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	if _, ok := s.events[ev.ID]; !ok {
		s.events[ev.ID] = ev
	}
	return nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[id]
	return ok
}

// fakeFeed serves canned events and logos.
type fakeFeed struct {
	mu      sync.Mutex
	events  []ctftime.Event
	err     error
	logo    []byte
	logoErr error
	calls   int
}

func (f *fakeFeed) Events(ctx context.Context) ([]ctftime.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeFeed) Logo(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logoErr != nil {
		return nil, f.logoErr
	}
	if f.logo == nil {
		return nil, errors.New("no logo configured")
	}
	return f.logo, nil
}

type sentMessage struct {
	target kit.ChatTarget
	text   string
	image  []byte
	hasImg bool
}

// fakeAdapter records sends and can fail selected ones by send index.
type fakeAdapter struct {
	mu      sync.Mutex
	sent    []sentMessage
	typing  int
	failOn  map[int]error // keyed by send attempt index (0-based)
	attempt int
}

func (a *fakeAdapter) Start(ctx context.Context) error { return nil }
func (a *fakeAdapter) Stop(ctx context.Context) error  { return nil }

func (a *fakeAdapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error {
	return a.record(to, text, nil, false)
}

func (a *fakeAdapter) SendPhoto(ctx context.Context, to kit.ChatTarget, image []byte, caption string, opt *kit.SendOptions) error {
	return a.record(to, caption, image, true)
}

func (a *fakeAdapter) SendTyping(ctx context.Context, to kit.ChatTarget) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.typing++
	return nil
}

func (a *fakeAdapter) record(to kit.ChatTarget, text string, image []byte, hasImg bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.attempt
	a.attempt++
	if err, ok := a.failOn[idx]; ok {
		return err
	}
	a.sent = append(a.sent, sentMessage{target: to, text: text, image: image, hasImg: hasImg})
	return nil
}

func (a *fakeAdapter) sentCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sent)
}

// countingPacer never delays but counts waits.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return nil
}

func eventAt(id int64, title string, start time.Time) ctftime.Event {
	return ctftime.Event{
		ID:     id,
		Title:  title,
		Start:  start,
		Finish: start.Add(48 * time.Hour),
	}
}
