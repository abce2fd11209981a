package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLayout(t *testing.T) {
	root := t.TempDir()
	ws, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ws.FeedPath != filepath.Join(root, "docs", "podcast.xml") {
		t.Fatalf("unexpected feed path %q", ws.FeedPath)
	}
	if ws.LedgerPath != filepath.Join(root, "episodes.csv") {
		t.Fatalf("unexpected ledger path %q", ws.LedgerPath)
	}
	if got := ws.EpisodePath("../escape.mp3"); got != filepath.Join(root, "docs", "episodes", "escape.mp3") {
		t.Fatalf("episode path escaped the episodes dir: %q", got)
	}

	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if info, err := os.Stat(ws.EpisodesDir); err != nil || !info.IsDir() {
		t.Fatalf("expected episodes dir, got %v", err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := ws.Lock()
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	if _, err := ws.Lock(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	second, err := ws.Lock()
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	_ = second.Unlock()

	var none *Lock
	if err := none.Unlock(); err != nil {
		t.Fatalf("nil Unlock: %v", err)
	}
}
