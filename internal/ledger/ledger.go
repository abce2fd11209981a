package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"read-articles/internal/models"
)

// ErrMalformedLedger is returned when the ledger file cannot be trusted.
var ErrMalformedLedger = errors.New("malformed ledger")

// Header is the column row written once at the top of the ledger.
var Header = []string{"Title", "Article URL", "Audio URL", "Voice", "Date Added"}

// Ledger is the append-only CSV record of every published episode. It is the
// only input to regeneration.
type Ledger struct {
	path string
}

// New returns a ledger stored at path. The file is created on first append.
func New(path string) *Ledger {
	return &Ledger{path: filepath.Clean(path)}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Append writes one row, preceded by the header when the file is new or empty.
func (l *Ledger) Append(ep models.Episode) error {
	if strings.TrimSpace(ep.Title) == "" || strings.TrimSpace(ep.AudioURL) == "" {
		return errors.New("ledger rows need a title and an audio url")
	}
	if ep.DateAdded.IsZero() {
		return errors.New("ledger rows need a date added")
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat ledger: %w", err)
	}

	// Hand-edited files may lack the final newline.
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			f.Close()
			return fmt.Errorf("read ledger: %w", err)
		}
		if last[0] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				f.Close()
				return fmt.Errorf("terminate last ledger row: %w", err)
			}
		}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	if err := w.Write(encodeRow(ep)); err != nil {
		f.Close()
		return fmt.Errorf("write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	return f.Close()
}

// LoadAll returns every row in insertion order. A ledger that does not exist
// yet is empty, not an error.
func (l *Ledger) LoadAll() ([]models.Episode, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
	}
	if !sameHeader(header) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformedLedger, header)
	}

	var episodes []models.Episode
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
		}
		ep, err := decodeRow(record)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLedger, line, err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

func encodeRow(ep models.Episode) []string {
	return []string{
		ep.Title,
		ep.ArticleURL,
		ep.AudioURL,
		ep.Voice,
		ep.DateAdded.UTC().Format(models.DateLayout),
	}
}

func decodeRow(record []string) (models.Episode, error) {
	added, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(record[4]), time.UTC)
	if err != nil {
		return models.Episode{}, fmt.Errorf("date added: %w", err)
	}
	return models.Episode{
		Title:      record[0],
		ArticleURL: record[1],
		AudioURL:   record[2],
		Voice:      record[3],
		DateAdded:  added,
	}, nil
}

func sameHeader(row []string) bool {
	if len(row) != len(Header) {
		return false
	}
	for i, col := range row {
		col = strings.TrimPrefix(col, "\ufeff")
		if strings.TrimSpace(col) != Header[i] {
			return false
		}
	}
	return true
}
