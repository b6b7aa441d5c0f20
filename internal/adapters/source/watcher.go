package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/bandboard/internal/domain/types"
	"github.com/okian/bandboard/pkg/metrics"
)

// Op is the kind of filesystem change seen for a source.
type Op string

const (
	OpAdd    Op = "add"
	OpChange Op = "change"
)

// Change reports that a watched source appeared or was rewritten.
type Change struct {
	Source types.SourceFile
	Path   string
	Op     Op
}

// Watcher delivers changes to a fixed set of sources until closed.
type Watcher interface {
	Events() <-chan Change
	Errors() <-chan error
	Close() error
}

// FSWatcher watches the data directory with fsnotify and filters events down
// to the configured sources. Each instance owns its own notifier.
//
// While the data directory does not exist the watcher sits on its nearest
// existing ancestor and moves down as the missing levels are created.
type FSWatcher struct {
	w        *fsnotify.Watcher
	dataDir  string
	watching string
	sources  []types.SourceFile
	targets  map[string]types.SourceFile
	events  chan Change
	errs    chan error
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher starts watching dataDir for creates and writes of sources.
// Neither dataDir nor the sources need to exist yet. When dataDir appears,
// sources already inside it are reported as adds.
func NewWatcher(dataDir string, sources []types.SourceFile) (*FSWatcher, error) {
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	dataDir = filepath.Clean(dataDir)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	fw := &FSWatcher{
		w:       w,
		dataDir: dataDir,
		sources: sources,
		targets: make(map[string]types.SourceFile, len(sources)),
		events:  make(chan Change),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	for _, s := range sources {
		fw.targets[filepath.Clean(s.Path(dataDir))] = s
	}
	if _, err := fw.arm(); err != nil {
		_ = w.Close()
		return nil, err
	}

	fw.wg.Add(1)
	go fw.loop()
	return fw, nil
}

// Events returns the change stream. It is closed by Close.
func (fw *FSWatcher) Events() <-chan Change { return fw.events }

// Errors returns notifier errors. It is closed by Close.
func (fw *FSWatcher) Errors() <-chan error { return fw.errs }

// Close stops the watcher. It is safe to call more than once.
func (fw *FSWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.w.Close()
		fw.wg.Wait()
		close(fw.events)
		close(fw.errs)
	})
	return err
}

func (fw *FSWatcher) loop() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if fw.watching != fw.dataDir {
				if !fw.descend(ev) {
					return
				}
				continue
			}
			ch, ok := fw.translate(ev)
			if !ok {
				continue
			}
			if !fw.emit(ch) {
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			fw.report(err)
		}
	}
}

// translate maps a notifier event onto a source change. Create is an add,
// Write is a change; everything else is ignored.
func (fw *FSWatcher) translate(ev fsnotify.Event) (Change, bool) {
	src, ok := fw.targets[filepath.Clean(ev.Name)]
	if !ok {
		return Change{}, false
	}
	switch {
	case ev.Has(fsnotify.Create):
		return Change{Source: src, Path: ev.Name, Op: OpAdd}, true
	case ev.Has(fsnotify.Write):
		return Change{Source: src, Path: ev.Name, Op: OpChange}, true
	}
	return Change{}, false
}

func (fw *FSWatcher) emit(ch Change) bool {
	metrics.RecordWatchEvent(string(ch.Op))
	select {
	case fw.events <- ch:
		return true
	case <-fw.done:
		return false
	}
}

func (fw *FSWatcher) report(err error) {
	metrics.RecordErrorByComponent("watcher", "notify")
	select {
	case fw.errs <- err:
	default:
	}
}

// arm watches the deepest existing directory on the way to dataDir and
// reports whether that is dataDir itself. It re-checks after each switch
// since a deeper level may appear before the new watch is in place.
func (fw *FSWatcher) arm() (bool, error) {
	for {
		dir, err := fw.deepestExisting()
		if err != nil {
			return false, err
		}
		if dir == fw.watching {
			return dir == fw.dataDir, nil
		}
		if err := fw.w.Add(dir); err != nil {
			return false, fmt.Errorf("watch %s: %w", dir, err)
		}
		if fw.watching != "" {
			_ = fw.w.Remove(fw.watching)
		}
		fw.watching = dir
	}
}

func (fw *FSWatcher) deepestExisting() (string, error) {
	dir := fw.dataDir
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("watch %s: no existing ancestor", fw.dataDir)
		}
		dir = parent
	}
}

// descend handles an event seen on an ancestor of the data directory. It
// returns false once the watcher is closing.
func (fw *FSWatcher) descend(ev fsnotify.Event) bool {
	name := filepath.Clean(ev.Name)
	if !ev.Has(fsnotify.Create) ||
		(name != fw.dataDir && !strings.HasPrefix(fw.dataDir, name+string(filepath.Separator))) {
		return true
	}
	reached, err := fw.arm()
	if err != nil {
		fw.report(err)
		return true
	}
	if !reached {
		return true
	}
	// Sources written before the directory was armed produced no events.
	for _, src := range fw.sources {
		path := src.Path(fw.dataDir)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			if !fw.emit(Change{Source: src, Path: path, Op: OpAdd}) {
				return false
			}
		}
	}
	return true
}
