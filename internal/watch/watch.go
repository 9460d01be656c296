package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mditgo/mditgo/internal/config"
)

const stateDirName = ".mdit"

// Handle is a running watch session: one OS-callback goroutine forwarding
// raw events into a bounded channel, and one worker goroutine owning the
// debounce/coalescing state.
type Handle struct {
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	done      chan struct{}
	stopped   atomic.Bool
}

// Start begins watching vaultRoot and invokes onBatch for every
// coalesced EventBatch. onBatch is called from the worker goroutine; it
// must not block for long, since the OS-callback goroutine is separate
// but shares the process with it.
func Start(vaultRoot string, cfg config.WatchConfig, onBatch func(EventBatch)) (*Handle, error) {
	info, err := os.Stat(vaultRoot)
	if err != nil {
		return nil, &Error{Path: vaultRoot, Op: "stat vault root", Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Path: vaultRoot, Op: "vault root is not a directory"}
	}

	canonicalRoot, err := filepath.Abs(vaultRoot)
	if err != nil {
		return nil, &Error{Path: vaultRoot, Op: "canonicalize vault root", Err: err}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &Error{Path: canonicalRoot, Op: "init watcher", Err: err}
	}

	if cfg.Recursive {
		if err := addRecursive(fsWatcher, canonicalRoot); err != nil {
			_ = fsWatcher.Close()
			return nil, &Error{Path: canonicalRoot, Op: "watch path", Err: err}
		}
	} else if err := fsWatcher.Add(canonicalRoot); err != nil {
		_ = fsWatcher.Close()
		return nil, &Error{Path: canonicalRoot, Op: "watch path", Err: err}
	}

	msgCh := make(chan fsnotify.Event, cfg.ChannelCapacity)
	stopCh := make(chan struct{})
	var rescanFlag atomic.Bool
	done := make(chan struct{})

	debounce := time.Duration(cfg.DebounceMS) * time.Millisecond
	renameWindow := time.Duration(cfg.RenamePairWindowMS) * time.Millisecond

	go func() {
		defer close(done)
		runWorker(canonicalRoot, debounce, renameWindow, cfg.MaxBatchPaths, msgCh, stopCh, &rescanFlag, onBatch)
	}()

	go runSource(fsWatcher, cfg.Recursive, msgCh, &rescanFlag)

	h := &Handle{fsWatcher: fsWatcher, stopCh: stopCh, done: done}
	return h, nil
}

// runSource is the OS-callback thread: it drains fsnotify's Events and
// Errors channels and forwards them into msgCh with a non-blocking
// try-send, setting rescanFlag on overflow or source error rather than
// ever blocking.
func runSource(fsWatcher *fsnotify.Watcher, recursive bool, msgCh chan fsnotify.Event, rescanFlag *atomic.Bool) {
	for {
		select {
		case ev, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if recursive && ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addRecursive(fsWatcher, ev.Name)
				}
			}
			select {
			case msgCh <- ev:
			default:
				rescanFlag.Store(true)
			}
		case _, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			rescanFlag.Store(true)
		}
	}
}

// addRecursive registers every directory under root with fsWatcher,
// skipping the reserved .mdit state directory.
func addRecursive(fsWatcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == stateDirName && path != root {
			return filepath.SkipDir
		}
		return fsWatcher.Add(path)
	})
}

// Stop halts the watch session: it flushes any outstanding rename-from
// candidates to removed, emits a final non-empty batch, then returns once
// the worker goroutine has exited. Safe to call once.
func (h *Handle) Stop() error {
	if h.stopped.Swap(true) {
		return fmt.Errorf("watch: handle already stopped")
	}

	if err := h.fsWatcher.Close(); err != nil {
		close(h.stopCh)
		<-h.done
		return &Error{Op: "close watcher", Err: err}
	}

	close(h.stopCh)
	<-h.done
	return nil
}
