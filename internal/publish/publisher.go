package publish

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"text/template"
	"time"

	"read-articles/internal/article"
	"read-articles/internal/audio"
	"read-articles/internal/config"
	"read-articles/internal/feed"
	"read-articles/internal/ledger"
	"read-articles/internal/metadata"
	"read-articles/internal/models"
	"read-articles/internal/site"
	"read-articles/internal/workspace"
)

// Options wires a Publisher. Fetcher, Synthesizer, Encoder and Decoder are
// only needed by Convert; Import and Regenerate work without them.
type Options struct {
	Workspace   workspace.Workspace
	Settings    config.Settings
	Fetcher     article.Fetcher
	Synthesizer audio.Synthesizer
	Encoder     audio.Encoder
	Decoder     audio.Decoder
	Now         func() time.Time
	Logger      *log.Logger
}

// Publisher keeps the ledger, the feed and the site page in step.
type Publisher struct {
	ws       workspace.Workspace
	settings config.Settings
	ledger   *ledger.Ledger
	fetcher  article.Fetcher
	tts      audio.Synthesizer
	encoder  audio.Encoder
	decoder  audio.Decoder
	intro    *template.Template
	now      func() time.Time
	logger   *log.Logger
}

// New validates opts and returns a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Workspace.Root == "" {
		return nil, errors.New("publisher requires a workspace")
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	intro, err := template.New("intro").Option("missingkey=error").Parse(opts.Settings.IntroTemplate)
	if err != nil {
		return nil, fmt.Errorf("intro template: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Publisher{
		ws:       opts.Workspace,
		settings: opts.Settings,
		ledger:   ledger.New(opts.Workspace.LedgerPath),
		fetcher:  opts.Fetcher,
		tts:      opts.Synthesizer,
		encoder:  opts.Encoder,
		decoder:  opts.Decoder,
		intro:    intro,
		now:      now,
		logger:   logger,
	}, nil
}

// Ledger returns the ledger the publisher appends to.
func (p *Publisher) Ledger() *ledger.Ledger {
	return p.ledger
}

// Channel returns the configured feed header used for new and regenerated
// feeds.
func (p *Publisher) Channel() feed.Channel {
	meta := p.settings.Feed
	return feed.Channel{
		Title:       meta.Title,
		Link:        p.settings.BaseURL,
		Description: meta.Description,
		Language:    meta.Language,
		Copyright:   meta.Copyright,
		Author:      meta.Author,
		Summary:     meta.Description,
		Owner:       feed.Owner{Name: meta.OwnerName, Email: meta.OwnerEmail},
		ImageURL:    meta.ImageURL,
		Categories:  meta.Categories,
		Explicit:    meta.Explicit,
		SelfURL:     p.settings.BaseURL + "podcast.xml",
		Generator:   "read-articles",
	}
}

func (p *Publisher) newFeed() *feed.Document {
	return feed.NewDocument(p.Channel())
}

// Skeleton returns the fixed page used when no usable index exists.
func (p *Publisher) Skeleton() (*site.Page, error) {
	return site.Skeleton(site.SkeletonMeta{
		Title:       p.settings.Feed.Title,
		Description: p.settings.Feed.Description,
		FeedURL:     "podcast.xml",
	}, p.settings.ContainerID)
}

// AudioURL returns the public URL of an episode file.
func (p *Publisher) AudioURL(filename string) string {
	return p.settings.BaseURL + "episodes/" + url.PathEscape(filename)
}

// loadDocuments reads the current feed and page for an incremental publish.
// Missing documents are created from the configured skeletons; malformed ones
// are fatal.
func (p *Publisher) loadDocuments() (*feed.Document, *site.Page, error) {
	doc, err := feed.Load(p.ws.FeedPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", p.ws.FeedPath, err)
		}
		p.logger.Printf("no feed at %s, starting a new one", p.ws.FeedPath)
		doc = p.newFeed()
	}

	page, err := site.Load(p.ws.PagePath, p.settings.ContainerID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", p.ws.PagePath, err)
		}
		p.logger.Printf("no page at %s, starting from the skeleton", p.ws.PagePath)
		page, err = p.Skeleton()
		if err != nil {
			return nil, nil, err
		}
	}
	return doc, page, nil
}

// probe measures the audio for ep. A missing file is logged and projected
// with the minimum duration so the catalog still renders.
func (p *Publisher) probe(ep models.Episode) (metadata.AudioInfo, bool) {
	path := p.ws.EpisodePath(ep.Filename())
	info, err := metadata.Probe(path)
	if err != nil {
		p.logger.Printf("warning: audio for %q unavailable (%v), using placeholder duration", ep.Title, err)
		return metadata.AudioInfo{DurationSeconds: metadata.EstimateDuration(0), Estimated: true}, false
	}
	if info.Estimated {
		p.logger.Printf("duration of %s estimated from file size: %ds", ep.Filename(), info.DurationSeconds)
	}
	return info, true
}

// project renders ep for both outputs. index counts from the newest episode.
func (p *Publisher) project(ep models.Episode, info metadata.AudioInfo, index int, now time.Time) (feed.Item, site.Fragment, error) {
	item := feed.ItemFor(ep, info, p.settings.BaseURL, index, now)
	frag, err := site.FragmentFor(ep, info, ep.Title, Description(ep.Title))
	if err != nil {
		return feed.Item{}, site.Fragment{}, err
	}
	return item, frag, nil
}

// Description is the page text shown under an episode title.
func Description(title string) string {
	return "An audio version of the article: " + title
}

type introData struct {
	Title     string
	Voice     string
	VoiceID   string
	Podcast   string
	SourceURL string
}

func (p *Publisher) introScript(title, voice, source string) (string, error) {
	var b strings.Builder
	err := p.intro.Execute(&b, introData{
		Title:     title,
		Voice:     feed.VoiceDisplayName(voice),
		VoiceID:   voice,
		Podcast:   p.settings.Feed.Title,
		SourceURL: source,
	})
	if err != nil {
		return "", fmt.Errorf("render intro script: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
