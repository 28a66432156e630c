package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/fridge-monitor/internal/inventory"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

const (
	InDir        = "in"
	OutDir       = "out"
	ProcessedDir = "processed"

	defaultDebounce = 250 * time.Millisecond
)

// Scanner is the slice of the inventory store the inbox drives.
type Scanner interface {
	ScanIn(ctx context.Context, input inventory.ScanInput) (inventory.ScanInResult, error)
	ScanOut(ctx context.Context, input inventory.ScanInput) (inventory.ScanOutResult, error)
}

type WatcherParams struct {
	Dir      string
	Debounce time.Duration
	Scanner  Scanner
	Logger   *logger.Logger
}

// Watcher turns files dropped into <dir>/in and <dir>/out into scans. A file
// is handled once: it is moved under <dir>/processed before it is scanned.
type Watcher struct {
	dir      string
	debounce time.Duration
	scanner  Scanner
	logg     *logger.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

func NewWatcher(params WatcherParams) (*Watcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Scanner == nil {
		return nil, fmt.Errorf("scanner required")
	}
	if strings.TrimSpace(params.Dir) == "" {
		return nil, fmt.Errorf("inbox dir required")
	}
	dir, err := filepath.Abs(params.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve inbox dir: %w", err)
	}
	debounce := params.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		scanner:  params.Scanner,
		logg:     params.Logger,
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Dir returns the absolute inbox root.
func (w *Watcher) Dir() string { return w.dir }

// Run watches until ctx is canceled. Files already waiting when Run starts
// are processed first.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{InDir, OutDir, filepath.Join(ProcessedDir, InDir), filepath.Join(ProcessedDir, OutDir)} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fsw.Close()
	for _, sub := range []string{InDir, OutDir} {
		if err := fsw.Add(filepath.Join(w.dir, sub)); err != nil {
			return fmt.Errorf("watch %s: %w", sub, err)
		}
	}

	logCtx := w.logg.WithFields(ctx, map[string]any{"dir": w.dir, "debounce": w.debounce.String()})
	w.logg.Info(logCtx, "inbox watcher started")

	w.drainExisting(ctx)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logg.Info(logCtx, "inbox watcher stopped")
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logg.Error(logCtx, "inbox watcher error", err)
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) drainExisting(ctx context.Context) {
	for _, sub := range []string{InDir, OutDir} {
		entries, err := os.ReadDir(filepath.Join(w.dir, sub))
		if err != nil {
			w.logg.Error(w.logg.WithField(ctx, "dir", sub), "read inbox dir", err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || isHidden(entry.Name()) {
				continue
			}
			w.process(ctx, filepath.Join(w.dir, sub, entry.Name()))
		}
	}
}

// handleFSEvent records creates and writes; the ticker flushes them.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if isHidden(filepath.Base(event.Name)) {
		return
	}
	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Strings(paths)
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	logCtx := w.logg.WithField(ctx, "path", path)
	if err := w.Process(ctx, path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logg.Debug(logCtx, "inbox file vanished before processing")
			return
		}
		w.logg.Error(logCtx, "inbox scan failed", err)
	}
}

// Process handles one dropped file: ScanIn for files under in/, ScanOut for
// files under out/. The identifier is the file name without its extension.
func (w *Watcher) Process(ctx context.Context, path string) error {
	direction := filepath.Base(filepath.Dir(path))
	if direction != InDir && direction != OutDir {
		return fmt.Errorf("%s is not under %s/ or %s/", path, InDir, OutDir)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	name := filepath.Base(path)
	dest := filepath.Join(w.dir, ProcessedDir, direction, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("move to processed: %w", err)
	}
	input := inventory.ScanInput{
		Identifier: Identifier(name),
		ImageURL:   "file://" + filepath.ToSlash(dest),
	}

	logCtx := w.logg.WithFields(ctx, map[string]any{"identifier": input.Identifier, "direction": direction})
	switch direction {
	case InDir:
		res, err := w.scanner.ScanIn(ctx, input)
		if err != nil {
			return err
		}
		w.logg.Info(w.logg.WithField(logCtx, "created", len(res.CreatedItems)), "inbox scan in")
	case OutDir:
		res, err := w.scanner.ScanOut(ctx, input)
		if err != nil {
			return err
		}
		w.logg.Info(w.logg.WithField(logCtx, "summary", res.Event.ResultSummary), "inbox scan out")
	}
	return nil
}

// Identifier strips directories and the last extension from a file name.
func Identifier(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
