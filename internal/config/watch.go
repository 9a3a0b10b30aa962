package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "cadence/pkg/logx"
)

// Watch re-loads the config whenever the file changes and hands the result to
// onChange. Invalid configs are logged and skipped; the previous config stays
// in effect. Editors that write via rename are handled by watching the parent
// directory, and duplicate write events are deduplicated by content hash.
//
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	var lastHash uint64
	if b, err := os.ReadFile(target); err == nil {
		lastHash = hashBytes(b)
	}

	// Debounce: editors fire several events per save.
	var pending *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.AfterFunc(200*time.Millisecond, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				pending.Reset(200 * time.Millisecond)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watch error", logx.Err(err))
		case <-reload:
			b, err := os.ReadFile(target)
			if err != nil {
				log.Warn("config reload read failed", logx.Err(err))
				continue
			}
			h := hashBytes(b)
			if h == lastHash {
				continue
			}
			cfg, err := Parse(target, b)
			if err != nil {
				log.Warn("config reload rejected", logx.Err(err))
				continue
			}
			lastHash = h
			log.Info("config reloaded", logx.String("path", target))
			onChange(cfg)
		}
	}
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
