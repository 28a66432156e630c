package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/fridge-monitor/internal/inventory"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

type scanCall struct {
	direction string
	input     inventory.ScanInput
}

type fakeScanner struct {
	mu    sync.Mutex
	calls []scanCall
	err   error
}

func (f *fakeScanner) ScanIn(_ context.Context, input inventory.ScanInput) (inventory.ScanInResult, error) {
	f.record(InDir, input)
	return inventory.ScanInResult{}, f.err
}

func (f *fakeScanner) ScanOut(_ context.Context, input inventory.ScanInput) (inventory.ScanOutResult, error) {
	f.record(OutDir, input)
	return inventory.ScanOutResult{}, f.err
}

func (f *fakeScanner) record(direction string, input inventory.ScanInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scanCall{direction: direction, input: input})
}

func (f *fakeScanner) snapshot() []scanCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scanCall(nil), f.calls...)
}

func newWatcher(t *testing.T, scanner Scanner) *Watcher {
	t.Helper()
	w, err := NewWatcher(WatcherParams{
		Dir:      t.TempDir(),
		Debounce: 20 * time.Millisecond,
		Scanner:  scanner,
		Logger:   logger.New(logger.Options{ServiceName: "inbox-test"}),
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	for _, sub := range []string{InDir, OutDir, filepath.Join(ProcessedDir, InDir), filepath.Join(ProcessedDir, OutDir)} {
		if err := os.MkdirAll(filepath.Join(w.Dir(), sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return w
}

func drop(t *testing.T, w *Watcher, direction, name string) string {
	t.Helper()
	path := filepath.Join(w.Dir(), direction, name)
	if err := os.WriteFile(path, []byte("jpeg"), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestIdentifier(t *testing.T) {
	cases := map[string]string{
		"eggs.jpg":           "eggs",
		"/tmp/in/photo.jpeg": "photo",
		"archive.tar.gz":     "archive.tar",
		"no-extension":       "no-extension",
		"Asian Pear.PNG":     "Asian Pear",
	}
	for in, want := range cases {
		if got := Identifier(in); got != want {
			t.Fatalf("Identifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewWatcherValidatesParams(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "inbox-test"})
	if _, err := NewWatcher(WatcherParams{Dir: "x", Scanner: &fakeScanner{}}); err == nil {
		t.Fatal("expected logger requirement")
	}
	if _, err := NewWatcher(WatcherParams{Dir: "x", Logger: logg}); err == nil {
		t.Fatal("expected scanner requirement")
	}
	if _, err := NewWatcher(WatcherParams{Dir: " ", Scanner: &fakeScanner{}, Logger: logg}); err == nil {
		t.Fatal("expected dir requirement")
	}
}

func TestProcessRoutesByDirectory(t *testing.T) {
	scanner := &fakeScanner{}
	w := newWatcher(t, scanner)
	ctx := context.Background()

	inPath := drop(t, w, InDir, "eggs.jpg")
	outPath := drop(t, w, OutDir, "sauce.png")
	if err := w.Process(ctx, inPath); err != nil {
		t.Fatalf("process in: %v", err)
	}
	if err := w.Process(ctx, outPath); err != nil {
		t.Fatalf("process out: %v", err)
	}

	calls := scanner.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 scans, got %d", len(calls))
	}
	if calls[0].direction != InDir || calls[0].input.Identifier != "eggs" {
		t.Fatalf("unexpected first call %+v", calls[0])
	}
	if calls[1].direction != OutDir || calls[1].input.Identifier != "sauce" {
		t.Fatalf("unexpected second call %+v", calls[1])
	}
	if !strings.HasPrefix(calls[0].input.ImageURL, "file://") || !strings.Contains(calls[0].input.ImageURL, "/processed/in/") {
		t.Fatalf("unexpected image url %q", calls[0].input.ImageURL)
	}
	if _, err := os.Stat(inPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be moved, stat err %v", inPath, err)
	}
	moved := strings.TrimPrefix(calls[0].input.ImageURL, "file://")
	if _, err := os.Stat(filepath.FromSlash(moved)); err != nil {
		t.Fatalf("expected processed file at %s: %v", moved, err)
	}
}

func TestProcessRejectsForeignPaths(t *testing.T) {
	w := newWatcher(t, &fakeScanner{})
	stray := filepath.Join(w.Dir(), "stray.jpg")
	if err := os.WriteFile(stray, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Process(context.Background(), stray); err == nil {
		t.Fatal("expected error for file outside in/ and out/")
	}
	if err := w.Process(context.Background(), filepath.Join(w.Dir(), InDir, "gone.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestProcessReturnsScannerError(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("store offline")}
	w := newWatcher(t, scanner)
	if err := w.Process(context.Background(), drop(t, w, InDir, "eggs.jpg")); err == nil {
		t.Fatal("expected scanner error")
	}
}

func TestFlushPendingCoalescesEvents(t *testing.T) {
	scanner := &fakeScanner{}
	w := newWatcher(t, scanner)
	path := drop(t, w, InDir, "tomato.jpg")
	hidden := drop(t, w, InDir, ".tomato.jpg.part")

	w.handleFSEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleFSEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: hidden, Op: fsnotify.Create})
	w.handleFSEvent(fsnotify.Event{Name: filepath.Join(w.Dir(), InDir, "old.jpg"), Op: fsnotify.Remove})
	w.flushPending(context.Background())
	w.flushPending(context.Background())

	if calls := scanner.snapshot(); len(calls) != 1 || calls[0].input.Identifier != "tomato" {
		t.Fatalf("expected a single tomato scan, got %+v", calls)
	}
}

func waitForCalls(t *testing.T, scanner *fakeScanner, n int) []scanCall {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if calls := scanner.snapshot(); len(calls) >= n {
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d scans, got %d", n, len(scanner.snapshot()))
	return nil
}

func TestRunDrainsExistingAndWatchesNewFiles(t *testing.T) {
	scanner := &fakeScanner{}
	w := newWatcher(t, scanner)
	drop(t, w, InDir, "eggs.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	calls := waitForCalls(t, scanner, 1)
	if calls[0].input.Identifier != "eggs" {
		t.Fatalf("expected existing file to be scanned first, got %+v", calls[0])
	}

	drop(t, w, OutDir, "eggs.jpg")
	calls = waitForCalls(t, scanner, 2)
	if calls[1].direction != OutDir {
		t.Fatalf("expected scan out, got %+v", calls[1])
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
