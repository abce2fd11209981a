package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"read-articles/internal/config"
	"read-articles/internal/fileutil"
	"read-articles/internal/metadata"
	"read-articles/internal/models"
)

// UnknownVoice is recorded for imported files whose name carries no voice.
const UnknownVoice = "unknown"

var (
	voiceSuffix = regexp.MustCompile(`^(.+)_([abefhijpz][fm]_[a-z0-9]+)$`)
	importTitle = cases.Title(language.Und)
)

// Import publishes loose audio files found directly in dir. Files already
// present in the ledger are skipped. Each file is copied into the episodes
// directory and appended to the ledger; the feed and page are rewritten once
// at the end.
func (p *Publisher) Import(ctx context.Context, dir string) ([]models.Episode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read import dir: %w", err)
	}

	allowed := make(map[string]struct{})
	for _, ext := range config.AllowedExtensions() {
		allowed[ext] = struct{}{}
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		p.logger.Printf("no audio files found in %s", dir)
		return nil, nil
	}
	p.logger.Printf("found %d audio files in %s", len(files), dir)

	lock, err := p.ws.Lock()
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	existing, err := p.ledger.LoadAll()
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, ep := range existing {
		known[ep.Filename()] = struct{}{}
	}

	doc, page, err := p.loadDocuments()
	if err != nil {
		return nil, err
	}
	if err := p.ws.EnsureDirs(); err != nil {
		return nil, err
	}

	now := p.now()
	var imported []models.Episode
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		if _, ok := known[name]; ok {
			p.logger.Printf("skipping %s: already in the ledger", name)
			continue
		}

		src := filepath.Join(dir, name)
		dst := p.ws.EpisodePath(name)
		if !samePath(src, dst) {
			if err := fileutil.CopyFile(src, dst); err != nil {
				return imported, fmt.Errorf("copy %s: %w", name, err)
			}
			p.logger.Printf("copied %s to %s", src, dst)
		}

		title, voice := EpisodeFromFilename(name)
		if tags := metadata.ReadTags(dst); tags.Title != "" {
			title = tags.Title
		}

		ep := models.Episode{
			Title:     title,
			AudioURL:  p.AudioURL(name),
			Voice:     voice,
			DateAdded: now.UTC().Truncate(time.Second),
		}
		if err := p.ledger.Append(ep); err != nil {
			return imported, fmt.Errorf("record %s: %w", name, err)
		}
		known[name] = struct{}{}
		imported = append(imported, ep)
	}

	if len(imported) == 0 {
		return nil, nil
	}

	// Prepending in ledger order leaves the last file processed on top, and
	// the top item carries index 0 as it would after a regeneration.
	for k, ep := range imported {
		info, _ := p.probe(ep)
		item, frag, err := p.project(ep, info, len(imported)-1-k, now)
		if err != nil {
			return imported, fmt.Errorf("%w: %v", ErrPartialPublish, err)
		}
		doc.Prepend(item)
		page.Prepend(frag)
	}
	if err := p.writeDocuments(doc, page, now); err != nil {
		p.logger.Printf("run regenerate to rebuild the feed and page from the ledger")
		return imported, fmt.Errorf("%w: %v", ErrPartialPublish, err)
	}
	p.logger.Printf("imported %d episodes", len(imported))
	return imported, nil
}

// EpisodeFromFilename derives a title and voice from names such as
// "why-go-works_af_bella.mp3". Names without a voice suffix get UnknownVoice.
func EpisodeFromFilename(name string) (title, voice string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	voice = UnknownVoice
	if m := voiceSuffix.FindStringSubmatch(base); m != nil {
		base, voice = m[1], m[2]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return importTitle.String(strings.Join(strings.Fields(base), " ")), voice
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
