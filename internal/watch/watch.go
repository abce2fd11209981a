package watch

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"read-articles/internal/publish"
	"read-articles/internal/workspace"
)

// Regenerator rebuilds the published documents from the ledger.
type Regenerator interface {
	Regenerate(ctx context.Context) (publish.Summary, error)
}

// Result records the outcome of the latest regeneration.
type Result struct {
	Summary publish.Summary
	Err     error
	At      time.Time
}

// Watcher regenerates the feed and the page whenever the ledger changes or
// an episode file is added, replaced or removed.
type Watcher struct {
	ws      workspace.Workspace
	regen   Regenerator
	allowed map[string]struct{}
	watcher *fsnotify.Watcher
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	last Result
	runs int

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	refreshDelay time.Duration
	closed       bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New regenerates once and then watches the workspace until Close.
func New(ws workspace.Workspace, regen Regenerator, allowed []string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if regen == nil {
		return nil, errors.New("watcher requires a regenerator")
	}
	if err := ws.EnsureDirs(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ws:           ws,
		regen:        regen,
		allowed:      make(map[string]struct{}, len(allowed)),
		watcher:      fsw,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		refreshDelay: debounce,
		done:         make(chan struct{}),
	}
	for _, ext := range allowed {
		w.allowed[strings.ToLower(ext)] = struct{}{}
	}

	// The ledger may be replaced rather than appended to, so its directory
	// is watched instead of the file.
	for _, dir := range []string{ws.Root, ws.EpisodesDir} {
		if err := fsw.Add(dir); err != nil {
			cancel()
			fsw.Close()
			return nil, err
		}
	}

	if err := w.regenerate(); err != nil {
		cancel()
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Close stops watching and waits for the event loop and any regeneration
// already under way to finish. A pending regeneration is cancelled.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.cancel()

		w.refreshMu.Lock()
		w.closed = true
		if w.refreshTimer != nil {
			w.refreshTimer.Stop()
			w.refreshTimer = nil
		}
		w.refreshMu.Unlock()

		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

// Last returns the latest regeneration result.
func (w *Watcher) Last() Result {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

// Runs counts completed regenerations, failed ones included.
func (w *Watcher) Runs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.runs
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.relevant(event.Name) {
		w.scheduleRefresh(w.refreshDelay)
	}
}

func (w *Watcher) relevant(path string) bool {
	if filepath.Clean(path) == w.ws.LedgerPath {
		return true
	}
	if filepath.Dir(filepath.Clean(path)) != w.ws.EpisodesDir {
		return false
	}
	_, ok := w.allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (w *Watcher) regenerate() error {
	summary, err := w.regen.Regenerate(w.ctx)

	w.mu.Lock()
	w.last = Result{Summary: summary, Err: err, At: time.Now()}
	w.runs++
	w.mu.Unlock()

	if err != nil {
		return err
	}
	w.logger.Printf("regenerated %d episodes", summary.Episodes)
	return nil
}

func (w *Watcher) scheduleRefresh(delay time.Duration) {
	select {
	case <-w.done:
		return
	default:
	}

	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	if w.closed {
		return
	}
	if w.refreshTimer != nil {
		w.refreshTimer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		w.refreshMu.Lock()
		if w.closed {
			w.refreshMu.Unlock()
			return
		}
		w.wg.Add(1)
		w.refreshMu.Unlock()
		defer w.wg.Done()

		err := w.regenerate()

		w.refreshMu.Lock()
		if w.refreshTimer == timer {
			w.refreshTimer = nil
		}
		w.refreshMu.Unlock()

		switch {
		case err == nil:
		case errors.Is(err, workspace.ErrBusy):
			w.logger.Printf("workspace busy, retrying regeneration")
			w.scheduleRefresh(w.retryDelay())
		case errors.Is(err, context.Canceled):
		default:
			w.logger.Printf("regenerate error: %v", err)
		}
	})

	w.refreshTimer = timer
}

func (w *Watcher) retryDelay() time.Duration {
	if w.refreshDelay < 100*time.Millisecond {
		return 100 * time.Millisecond
	}
	return 2 * w.refreshDelay
}

// Exists reports whether the workspace already has a ledger to watch.
func Exists(ws workspace.Workspace) bool {
	_, err := os.Stat(ws.LedgerPath)
	return err == nil
}
