package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "ctfbot/pkg/logx"
)

// Service runs the fetch→filter→broadcast cycle: once immediately on
// Start, then on a fixed interval. Cycles are single-flight; a tick that
// lands while a cycle is still in progress is skipped.
type Service struct {
	cfg   Config
	log   logx.Logger
	fetch Fetcher
	deps  Deps
	bcast *Broadcaster
	pacer Pacer
	now   func() time.Time

	state    atomic.Int32
	inFlight atomic.Bool

	mu   sync.Mutex
	cron *cron.Cron
}

func New(cfg Config, d Deps) *Service {
	cfg = cfg.withDefaults()
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Pacer == nil {
		d.Pacer = NewPacer(cfg.PaceDelay)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		cfg:   cfg,
		log:   d.Log,
		fetch: d.Fetcher,
		deps:  d,
		bcast: NewBroadcaster(d.Adapter, d.Store, cfg.Target, d.Log),
		pacer: d.Pacer,
		now:   d.Now,
	}
}

// State reports whether a cycle is idle, fetching, or broadcasting.
// Anything that needs to know readiness queries this instead of a flag.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Start runs one cycle immediately and then schedules one per poll
// interval. It expects the messaging adapter to be ready.
func (s *Service) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.cron != nil {
		s.mu.Unlock()
		return nil
	}
	c := cron.New()
	c.Schedule(cron.Every(s.cfg.PollInterval), cron.FuncJob(func() { s.runCycle(ctx) }))
	s.cron = c
	s.mu.Unlock()

	s.log.Info("notifier started",
		logx.Duration("poll_interval", s.cfg.PollInterval),
		logx.Duration("pace_delay", s.cfg.PaceDelay),
		logx.Int64("chat_id", s.cfg.Target.ChatID))

	go s.runCycle(ctx)
	c.Start()
	return nil
}

// Stop halts the interval timer. An in-flight cycle is waited for up to
// the caller's deadline; cutting it short is safe because store writes
// are additive, idempotent upserts.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	done := c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("shutdown before cycle completion; unrecorded events will be retried next start")
	}
	s.log.Info("notifier stopped")
}

// runCycle executes one full pass. Every failure is contained here: the
// process never crashes because a cycle went wrong, and the next tick
// starts fresh.
func (s *Service) runCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn("cycle tick skipped; previous cycle still in progress")
		return
	}
	defer s.inFlight.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle panicked", logx.Any("panic", r))
		}
		s.state.Store(int32(StateIdle))
	}()
	s.state.Store(int32(StateRunning))

	started := s.now()

	events, err := s.fetch.Events(ctx)
	if err != nil {
		s.log.Error("feed fetch failed; cycle aborted", logx.Err(err))
		return
	}

	pending, err := selectPending(ctx, s.log, events, s.now(), s.deps.Store)
	if err != nil {
		s.log.Error("filter failed; cycle aborted", logx.Err(err))
		return
	}
	if len(pending) == 0 {
		s.log.Debug("no new events this cycle", logx.Int("feed_size", len(events)))
		return
	}

	s.state.Store(int32(StateCycling))

	sent, failed := 0, 0
	for _, ev := range pending {
		if err := s.pacer.Wait(ctx); err != nil {
			s.log.Warn("cycle interrupted while pacing", logx.Err(err))
			break
		}

		msg := render(ctx, s.log, s.fetch, ev)
		if err := s.bcast.Announce(ctx, ev, msg); err != nil {
			// Not recorded, so the event stays a candidate next cycle.
			failed++
			s.log.Error("announce failed; event will be retried next cycle",
				logx.Int64("event_id", ev.ID), logx.String("title", ev.Title), logx.Err(err))
			continue
		}
		sent++
		s.log.Info("event announced",
			logx.Int64("event_id", ev.ID), logx.String("title", ev.Title),
			logx.Time("start", ev.Start))
	}

	s.log.Info("cycle finished",
		logx.Int("feed_size", len(events)), logx.Int("pending", len(pending)),
		logx.Int("sent", sent), logx.Int("failed", failed),
		logx.Duration("took", s.now().Sub(started)))
}
