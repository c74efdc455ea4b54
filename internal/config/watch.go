package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "ctfbot/pkg/logx"
)

// Watch reloads the config file whenever it changes and hands valid
// reloads to onChange. Invalid files are logged and skipped; the running
// config stays as-is. Watching is best-effort: if the watcher cannot be
// created, the bot simply runs without hot reload.
//
// The directory is watched (not the file) so editors and config
// management tools that replace the file atomically still trigger events.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}

	base := filepath.Base(path)

	// Debounce so a chain of partial-write events yields one reload.
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		cfg, err := Load(path)
		if err != nil {
			log.Warn("config reload rejected; keeping current config", logx.Err(err))
			return
		}
		log.Info("config reloaded", logx.String("path", path))
		onChange(cfg)
	}
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(300*time.Millisecond, reload)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				timerMu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timerMu.Unlock()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if err != nil {
					log.Warn("config watch error", logx.Err(err))
				}
			}
		}
	}()

	log.Debug("config watch started", logx.String("dir", dir), logx.String("file", base))
	return nil
}
