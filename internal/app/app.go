// Package app wires config, logging, storage, the Telegram adapter, and
// the notifier into one start/stoppable unit.
package app

import (
	"context"
	"fmt"
	"sync"

	"ctfbot/internal/config"
	"ctfbot/internal/ctftime"
	"ctfbot/internal/notifier"
	"ctfbot/internal/storage"
	kit "ctfbot/internal/transport"
	tgadapter "ctfbot/internal/transport/telegram/adapter"
	logx "ctfbot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgMu sync.Mutex
	cfg   *config.Config

	logSvc *logx.Service
	log    logx.Logger

	store    storage.Store
	adapter  *tgadapter.Adapter
	notifier *notifier.Service
}

// New loads and validates config and brings up logging. Anything wrong
// here (missing token, missing chat id, bad file) is fatal by design.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	return &App{cfgPath: cfgPath, cfg: cfg, logSvc: logSvc, log: log}, nil
}

// Start opens the dedup store, authenticates the Telegram adapter
// (the "ready" signal), and only then starts polling cycles.
func (a *App) Start(ctx context.Context) error {
	store, err := storage.Open(storage.Config{
		Driver:      a.cfg.Storage.Driver,
		Path:        a.cfg.StoragePath(),
		BusyTimeout: a.cfg.StorageBusyTimeout(),
	}, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	adapter, err := tgadapter.New(tgadapter.Config{
		Token:       a.cfg.Telegram.Token,
		PollTimeout: a.cfg.TelegramPollTimeout(),
	}, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return fmt.Errorf("init telegram: %w", err)
	}
	if err := adapter.Start(ctx); err != nil {
		return fmt.Errorf("start telegram: %w", err)
	}
	a.adapter = adapter

	feed := ctftime.New(ctftime.WithBaseURL(a.cfg.Notifier.FeedURL))

	a.notifier = notifier.New(notifier.Config{
		Target:       kit.ChatTarget{ChatID: a.cfg.Telegram.ChatID, ThreadID: a.cfg.Telegram.ThreadID},
		PollInterval: a.cfg.PollInterval(),
		PaceDelay:    a.cfg.PaceDelay(),
	}, notifier.Deps{
		Fetcher: feed,
		Store:   store,
		Adapter: adapter,
		Log:     a.log.With(logx.String("comp", "notifier")),
	})
	if err := a.notifier.Start(ctx); err != nil {
		return fmt.Errorf("start notifier: %w", err)
	}

	// Hot reload covers the logging section only; identity fields
	// (token, chat id, storage path) need a restart.
	if err := config.Watch(ctx, a.cfgPath, a.log.With(logx.String("comp", "config")), a.applyReload); err != nil {
		a.log.Warn("config watch unavailable; running without hot reload", logx.Err(err))
	}

	return nil
}

func (a *App) applyReload(cfg *config.Config) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	if cfg.Telegram.Token != a.cfg.Telegram.Token ||
		cfg.Telegram.ChatID != a.cfg.Telegram.ChatID ||
		cfg.StoragePath() != a.cfg.StoragePath() {
		a.log.Warn("telegram/storage changes in reloaded config require a restart; ignoring those fields")
	}

	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.cfg = cfg
}

// Stop tears things down in reverse order: timer first, then the
// channel connection, then the store. Additive idempotent store writes
// make an abrupt stop safe.
func (a *App) Stop(ctx context.Context) error {
	if a.notifier != nil {
		a.notifier.Stop(ctx)
	}
	if a.adapter != nil {
		_ = a.adapter.Stop(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
	return nil
}
