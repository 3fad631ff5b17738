package dataset

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// StaleWatcher logs a warning when files under the data directory change
// after load. Loaded tables are never refreshed; a restart picks up the
// new data.
type StaleWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	logger   *zap.Logger
	onChange func(fsnotify.Event)
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewStaleWatcher creates a watcher for dir. onChange, when set, is called
// after each logged event.
func NewStaleWatcher(dir string, logger *zap.Logger, onChange func(fsnotify.Event)) (*StaleWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleWatcher{
		watcher:  w,
		dir:      dir,
		logger:   logger,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking.
func (sw *StaleWatcher) Start(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.running {
		return nil
	}
	if err := sw.watcher.Add(sw.dir); err != nil {
		return err
	}
	sw.running = true
	go sw.run(ctx)
	sw.logger.Debug("watching data directory", zap.String("dir", sw.dir))
	return nil
}

// Stop ends the event loop and releases the watcher.
func (sw *StaleWatcher) Stop() error {
	sw.mu.Lock()
	wasRunning := sw.running
	sw.running = false
	sw.mu.Unlock()

	if wasRunning {
		close(sw.stopCh)
		<-sw.doneCh
	}
	return sw.watcher.Close()
}

func (sw *StaleWatcher) run(ctx context.Context) {
	defer close(sw.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			sw.logger.Warn("data file changed; loaded tables are stale until restart",
				zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if sw.onChange != nil {
				sw.onChange(event)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Error("data watcher error", zap.Error(err))
		}
	}
}
