package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another run already holds the workspace lock.
var ErrBusy = errors.New("another read-articles run is using this workspace")

// Workspace names every file the publishers read and write.
type Workspace struct {
	Root        string
	DocsDir     string
	EpisodesDir string
	FeedPath    string
	PagePath    string
	LedgerPath  string
	LockPath    string
}

// New lays out a workspace rooted at root. The published site lives in
// root/docs; the ledger sits next to it so it is never served.
func New(root string) (Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve workspace: %w", err)
	}
	docs := filepath.Join(abs, "docs")
	return Workspace{
		Root:        abs,
		DocsDir:     docs,
		EpisodesDir: filepath.Join(docs, "episodes"),
		FeedPath:    filepath.Join(docs, "podcast.xml"),
		PagePath:    filepath.Join(docs, "index.html"),
		LedgerPath:  filepath.Join(abs, "episodes.csv"),
		LockPath:    filepath.Join(docs, ".read-articles.lock"),
	}, nil
}

// EnsureDirs creates the docs and episodes directories.
func (w Workspace) EnsureDirs() error {
	if err := os.MkdirAll(w.EpisodesDir, 0o755); err != nil {
		return fmt.Errorf("create episodes dir: %w", err)
	}
	return nil
}

// EpisodePath returns where an episode file with the given name is stored.
func (w Workspace) EpisodePath(filename string) string {
	return filepath.Join(w.EpisodesDir, filepath.Base(filename))
}

// Lock is an exclusive hold on the workspace.
type Lock struct {
	fl *flock.Flock
}

// Lock takes the workspace lock without waiting. A second holder gets
// ErrBusy.
func (w Workspace) Lock() (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(w.LockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(w.LockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBusy, w.LockPath)
	}
	return &Lock{fl: fl}, nil
}

// Unlock releases the lock. It is safe to call on a nil lock.
func (l *Lock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
