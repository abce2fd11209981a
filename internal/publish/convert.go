package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"read-articles/internal/article"
	"read-articles/internal/audio"
	"read-articles/internal/feed"
	"read-articles/internal/models"
	"read-articles/internal/site"
)

// ErrPartialPublish is returned when the ledger was updated but the feed or
// the page could not be written. Regenerate repairs the derived documents.
var ErrPartialPublish = errors.New("episode recorded but publishing did not finish; run regenerate to recover")

// Convert fetches the article at url, narrates it with voice and publishes
// the episode. Nothing is recorded unless fetching, synthesis and encoding
// all succeed.
func (p *Publisher) Convert(ctx context.Context, url, voice string) (models.Episode, error) {
	if p.fetcher == nil || p.tts == nil || p.encoder == nil {
		return models.Episode{}, errors.New("convert requires a fetcher, a synthesizer and an encoder")
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = p.settings.Voice
	}

	lock, err := p.ws.Lock()
	if err != nil {
		return models.Episode{}, err
	}
	defer lock.Unlock()

	doc, page, err := p.loadDocuments()
	if err != nil {
		return models.Episode{}, err
	}

	art, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Episode{}, err
	}
	if strings.TrimSpace(art.Title) == "" || strings.TrimSpace(art.Text) == "" {
		return models.Episode{}, fmt.Errorf("%w: %s has no title or text", article.ErrFetchFailed, url)
	}
	title := strings.TrimSpace(art.Title)
	p.logger.Printf("processing %q", title)

	text := article.CleanForSpeech(art.Text)
	if text == "" {
		return models.Episode{}, fmt.Errorf("%w: %s has no readable text", article.ErrFetchFailed, url)
	}

	mix := p.settings.Mix
	music, err := audio.LoadAsset(ctx, p.settings.MusicPath, mix.SampleRate, p.decoder)
	if err != nil {
		return models.Episode{}, err
	}

	assembler, err := audio.NewAssembler(mix, p.tts, p.logger)
	if err != nil {
		return models.Episode{}, err
	}

	p.logger.Printf("generating narration with voice %s (%d chars)", voice, len(text))
	narration, err := p.tts.Synthesize(ctx, text, voice)
	if err != nil {
		return models.Episode{}, fmt.Errorf("synthesize article: %w", err)
	}

	script, err := p.introScript(title, voice, url)
	if err != nil {
		return models.Episode{}, err
	}
	timeline, err := assembler.Assemble(ctx, music, voice, script, narration)
	if err != nil {
		return models.Episode{}, err
	}

	if err := p.ws.EnsureDirs(); err != nil {
		return models.Episode{}, err
	}
	filename := article.EpisodeFilename(title, voice)
	path := p.ws.EpisodePath(filename)
	if _, err := os.Stat(path); err == nil {
		p.logger.Printf("warning: %s already exists and will be replaced", filename)
	}
	// The encoded audio keeps a hidden name until the ledger row exists.
	partial := filepath.Join(p.ws.EpisodesDir, "."+filename+".partial")
	if err := assembler.Export(ctx, timeline, p.encoder, partial); err != nil {
		os.Remove(partial)
		return models.Episode{}, err
	}

	now := p.now()
	ep := models.Episode{
		Title:      title,
		ArticleURL: url,
		AudioURL:   p.AudioURL(filename),
		Voice:      voice,
		DateAdded:  now.UTC().Truncate(time.Second),
	}
	if err := p.ledger.Append(ep); err != nil {
		os.Remove(partial)
		return models.Episode{}, fmt.Errorf("record episode: %w", err)
	}
	p.logger.Printf("recorded %s in %s", filename, p.ledger.Path())

	if err := os.Rename(partial, path); err != nil {
		os.Remove(partial)
		p.logger.Printf("moving %s into place failed after the ledger was updated: %v", filename, err)
		return ep, fmt.Errorf("%w: %v", ErrPartialPublish, err)
	}

	if err := p.publishOne(ep, doc, page, now); err != nil {
		p.logger.Printf("publishing %s failed after the ledger was updated: %v", filename, err)
		p.logger.Printf("run regenerate to rebuild the feed and page from the ledger")
		return ep, fmt.Errorf("%w: %v", ErrPartialPublish, err)
	}
	p.logger.Printf("published %q", title)
	return ep, nil
}

// publishOne puts ep at the top of the feed and the page and writes both.
func (p *Publisher) publishOne(ep models.Episode, doc *feed.Document, page *site.Page, now time.Time) error {
	info, _ := p.probe(ep)
	item, frag, err := p.project(ep, info, 0, now)
	if err != nil {
		return err
	}
	doc.Prepend(item)
	page.Prepend(frag)
	return p.writeDocuments(doc, page, now)
}

func (p *Publisher) writeDocuments(doc *feed.Document, page *site.Page, now time.Time) error {
	p.logger.Printf("updating podcast feed")
	if err := doc.Write(p.ws.FeedPath, now); err != nil {
		return err
	}
	p.logger.Printf("updating website")
	return page.Write(p.ws.PagePath)
}
