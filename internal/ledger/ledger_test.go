package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"read-articles/internal/models"
)

func episode(title string, day int) models.Episode {
	return models.Episode{
		Title:      title,
		ArticleURL: "https://example.com/" + title,
		AudioURL:   "https://podcast.example/episodes/" + title + "_af_bella.mp3",
		Voice:      "af_bella",
		DateAdded:  time.Date(2025, 3, day, 14, 30, 5, 0, time.UTC),
	}
}

func TestLoadAllMissingFileIsEmpty(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "episodes.csv"))
	rows, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestAppendWritesHeaderOnceAndKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "episodes.csv")
	l := New(path)

	first := episode("first", 1)
	first.Title = `Quotes, "commas" and more`
	second := episode("second", 2)
	for _, ep := range []models.Episode{first, second} {
		if err := l.Append(ep); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if got := strings.Count(string(data), "Title,Article URL,Audio URL,Voice,Date Added"); got != 1 {
		t.Fatalf("expected header exactly once, found %d", got)
	}
	if !strings.Contains(string(data), "2025-03-01 14:30:05") {
		t.Fatalf("expected fixed timestamp layout in %q", data)
	}

	rows, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0] != first || rows[1] != second {
		t.Fatalf("rows did not round trip in order: %+v", rows)
	}
}

func TestAppendRejectsIncompleteRows(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "episodes.csv"))

	ep := episode("x", 1)
	ep.AudioURL = ""
	if err := l.Append(ep); err == nil {
		t.Fatalf("expected error without audio url")
	}

	ep = episode("x", 1)
	ep.DateAdded = time.Time{}
	if err := l.Append(ep); err == nil {
		t.Fatalf("expected error without date")
	}

	if _, err := os.Stat(l.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no ledger file after rejected appends")
	}
}

func TestAppendFailsOnUnwritableStore(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := New(filepath.Join(blocker, "episodes.csv"))
	if err := l.Append(episode("x", 1)); err == nil {
		t.Fatalf("expected error when ledger directory is a file")
	}
}

func TestLoadAllRejectsMalformedLedger(t *testing.T) {
	cases := map[string]string{
		"bad header":    "Name,URL\nfoo,bar\n",
		"short row":     "Title,Article URL,Audio URL,Voice,Date Added\nfoo,bar\n",
		"bad timestamp": "Title,Article URL,Audio URL,Voice,Date Added\nfoo,a,b,v,yesterday\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "episodes.csv")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := New(path).LoadAll(); !errors.Is(err, ErrMalformedLedger) {
				t.Fatalf("expected ErrMalformedLedger, got %v", err)
			}
		})
	}
}

func TestLoadAllEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := New(path).LoadAll()
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected empty ledger, got %d rows, err %v", len(rows), err)
	}
	if err := New(path).Append(episode("x", 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rows, err = New(path).LoadAll()
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 row after append, got %d, err %v", len(rows), err)
	}
}

func TestAppendAfterRowWithoutTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.csv")
	edited := "Title,Article URL,Audio URL,Voice,Date Added\n" +
		"Edited,https://example.com/edited,https://podcast.example/episodes/edited_af_bella.mp3,af_bella,2025-03-01 08:00:00"
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := New(path)
	if err := l.Append(episode("next", 2)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(rows) != 2 || rows[0].Title != "Edited" || rows[1].Title != "next" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
