package dev

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sjc5/inkwell/internal/buildtime"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/kit/pkg/typed"
)

const defaultDebounce = 50 * time.Millisecond

// Handler maps a set of source patterns to the actions that run, in order,
// when a matching file changes. Patterns are doublestar globs relative to
// the root directory.
type Handler struct {
	Name     string
	Patterns []string
	Actions  []buildtime.Task
}

type handlerRunner struct {
	Handler
	events chan string
}

type watcher struct {
	config   *common.Config
	dirs     []string
	runners  []*handlerRunner
	debounce time.Duration
	notify   func(RefreshPayload)

	matchResults typed.SyncMap[string, bool]
}

func newWatcher(config *common.Config, handlers []Handler, dirs []string, notify func(RefreshPayload)) *watcher {
	w := &watcher{
		config:   config,
		dirs:     dirs,
		debounce: defaultDebounce,
		notify:   notify,
	}
	for _, h := range handlers {
		w.runners = append(w.runners, &handlerRunner{Handler: h, events: make(chan string, 1)})
	}
	return w
}

// run watches until ctx is done. Each handler consumes its own event
// channel on its own goroutine, so a slow pipeline never delays another.
func (w *watcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error: failed to create watcher: %v", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := w.addDirs(fsw, dir); err != nil {
			return fmt.Errorf("error: failed to add directories to watcher: %v", err)
		}
	}

	for _, r := range w.runners {
		go w.runHandler(ctx, r)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, evt)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Errorf("watcher error: %v", err)
		}
	}
}

func (w *watcher) handleEvent(fsw *fsnotify.Watcher, evt fsnotify.Event) {
	if evt.Op == fsnotify.Chmod {
		return
	}

	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addDirs(fsw, evt.Name); err != nil {
				w.config.Logger.Errorf("error: failed to add directory to watcher: %v", err)
			}
		}
	}

	rel, err := filepath.Rel(w.config.GetCleanRootDir(), evt.Name)
	if err != nil {
		rel = evt.Name
	}

	for _, r := range w.runners {
		if !w.getIsMatchAny(r.Patterns, rel) {
			continue
		}
		// a pending event already covers this change
		select {
		case r.events <- rel:
		default:
		}
	}
}

func (w *watcher) runHandler(ctx context.Context, r *handlerRunner) {
	for {
		var path string
		select {
		case <-ctx.Done():
			return
		case path = <-r.events:
		}

		timer := time.NewTimer(w.debounce)
	settle:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case path = <-r.events:
				timer.Reset(w.debounce)
			case <-timer.C:
				break settle
			}
		}

		w.config.Logger.Infof("modified: %s, running %s", path, r.Name)
		w.broadcast(RefreshPayload{ChangeType: ChangeTypeRebuilding})
		if err := buildtime.RunSequence(ctx, r.Actions); err != nil {
			w.config.Logger.Errorf("error: %s handler failed: %v", r.Name, err)
			w.broadcast(RefreshPayload{ChangeType: ChangeTypeFailed, Message: err.Error()})
		}
	}
}

func (w *watcher) broadcast(p RefreshPayload) {
	if w.notify != nil {
		w.notify(p)
	}
}

var standardIgnoreDirs = []string{"node_modules", ".git"}

func (w *watcher) getIsIgnoredDir(path string) bool {
	if isDirOrChildOfDir(path, w.config.GetDistDir()) {
		return true
	}
	base := filepath.Base(path)
	for _, ignored := range standardIgnoreDirs {
		if base == ignored {
			return true
		}
	}
	return false
}

func isDirOrChildOfDir(dir string, parent string) bool {
	dir, parent = filepath.Clean(dir), filepath.Clean(parent)
	return dir == parent || strings.HasPrefix(dir, parent+string(filepath.Separator))
}

func (w *watcher) addDirs(fsw *fsnotify.Watcher, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(path, func(walkedPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if w.getIsIgnoredDir(walkedPath) {
			return filepath.SkipDir
		}
		return fsw.Add(walkedPath)
	})
}
