package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"read-articles/internal/fileutil"
)

// ErrMalformedFeed is returned when an existing feed cannot be parsed or is
// missing required channel or item fields.
var ErrMalformedFeed = errors.New("malformed feed")

// DateLayout is the RFC 822 layout used for pubDate and lastBuildDate.
const DateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// Owner identifies the person responsible for the podcast.
type Owner struct {
	Name  string
	Email string
}

// Channel is the feed header.
type Channel struct {
	Title         string
	Link          string
	Description   string
	Language      string
	Copyright     string
	Author        string
	Summary       string
	Owner         Owner
	ImageURL      string
	Categories    []string
	Explicit      bool
	SelfURL       string
	Generator     string
	LastBuildDate string
}

// Enclosure describes the downloadable audio attached to an item.
type Enclosure struct {
	URL    string
	Length int64
	Type   string
}

// Item is one episode as it appears in the feed.
type Item struct {
	Title           string
	Link            string
	Description     string
	Enclosure       Enclosure
	GUID            string
	PubDate         string
	DurationSeconds int
	Author          string
	Subtitle        string
	Summary         string
	Explicit        bool
}

// Document is a parsed or freshly created feed.
type Document struct {
	Channel Channel
	Items   []Item
}

// NewDocument returns an empty feed with the given header.
func NewDocument(ch Channel) *Document {
	ch.Categories = append([]string(nil), ch.Categories...)
	return &Document{Channel: ch}
}

// Load parses the feed at path. A missing file returns an error wrapping
// os.ErrNotExist; anything that is not a well formed feed returns
// ErrMalformedFeed and is never repaired.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a serialized feed.
func Parse(data []byte) (*Document, error) {
	var in inFeed
	if err := xml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if in.Channel == nil {
		return nil, fmt.Errorf("%w: no channel element", ErrMalformedFeed)
	}
	c := in.Channel
	required := []struct{ name, value string }{
		{"title", c.Title},
		{"link", c.Link},
		{"description", c.Description},
		{"language", c.Language},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: channel %s is empty", ErrMalformedFeed, f.name)
		}
	}

	doc := &Document{Channel: Channel{
		Title:         c.Title,
		Link:          c.Link,
		Description:   c.Description,
		Language:      c.Language,
		Copyright:     c.Copyright,
		Author:        c.ITunesAuthor,
		Summary:       c.ITunesSummary,
		Explicit:      c.ITunesExplicit == "true" || c.ITunesExplicit == "yes",
		Generator:     c.Generator,
		LastBuildDate: c.LastBuildDate,
	}}
	if c.ITunesOwner != nil {
		doc.Channel.Owner = Owner{Name: c.ITunesOwner.Name, Email: c.ITunesOwner.Email}
	}
	if c.ITunesImage != nil {
		doc.Channel.ImageURL = c.ITunesImage.Href
	}
	if c.AtomLink != nil {
		doc.Channel.SelfURL = c.AtomLink.Href
	}
	for _, cat := range c.ITunesCategory {
		doc.Channel.Categories = append(doc.Channel.Categories, cat.Text)
	}

	for i, it := range c.Items {
		if strings.TrimSpace(it.Title) == "" {
			return nil, fmt.Errorf("%w: item %d has no title", ErrMalformedFeed, i)
		}
		if it.Enclosure == nil || strings.TrimSpace(it.Enclosure.URL) == "" {
			return nil, fmt.Errorf("%w: item %d has no enclosure", ErrMalformedFeed, i)
		}
		if strings.TrimSpace(it.GUID.Value) == "" {
			return nil, fmt.Errorf("%w: item %d has no guid", ErrMalformedFeed, i)
		}
		duration := 0
		if it.ITunesDuration != "" {
			d, err := parseDuration(it.ITunesDuration)
			if err != nil {
				return nil, fmt.Errorf("%w: item %d duration: %v", ErrMalformedFeed, i, err)
			}
			duration = d
		}
		doc.Items = append(doc.Items, Item{
			Title:           it.Title,
			Link:            it.Link,
			Description:     it.Description,
			Enclosure:       Enclosure{URL: it.Enclosure.URL, Length: it.Enclosure.Length, Type: it.Enclosure.Type},
			GUID:            it.GUID.Value,
			PubDate:         it.PubDate,
			DurationSeconds: duration,
			Author:          it.ITunesAuthor,
			Subtitle:        it.ITunesSubtitle,
			Summary:         it.ITunesSummary,
			Explicit:        it.ITunesExplicit == "true" || it.ITunesExplicit == "yes",
		})
	}
	return doc, nil
}

// Prepend inserts item at the top of the feed.
func (d *Document) Prepend(item Item) {
	d.Items = append([]Item{item}, d.Items...)
}

// Append adds item at the bottom of the feed.
func (d *Document) Append(item Item) {
	d.Items = append(d.Items, item)
}

// Reset drops every item and replaces the header.
func (d *Document) Reset(ch Channel) {
	*d = *NewDocument(ch)
}

// Marshal serializes the document with two space indentation. now becomes
// the channel lastBuildDate.
func (d *Document) Marshal(now time.Time) ([]byte, error) {
	d.Channel.LastBuildDate = now.UTC().Format(DateLayout)

	out := rssFeed{
		Version:   "2.0",
		ITunesNS:  ITunesNS,
		ContentNS: ContentNS,
		AtomNS:    AtomNS,
		Channel:   toWire(d),
	}
	body, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Write marshals the document and replaces the file at path atomically.
func (d *Document) Write(path string, now time.Time) error {
	data, err := d.Marshal(now)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

func toWire(d *Document) rssChannel {
	c := d.Channel
	ch := rssChannel{
		Title:          c.Title,
		Link:           c.Link,
		Description:    c.Description,
		Language:       c.Language,
		Copyright:      c.Copyright,
		Generator:      c.Generator,
		LastBuildDate:  c.LastBuildDate,
		ITunesAuthor:   c.Author,
		ITunesSummary:  c.Summary,
		ITunesExplicit: yesNo(c.Explicit),
	}
	if c.SelfURL != "" {
		ch.AtomLink = &rssAtomLink{Href: c.SelfURL, Rel: "self", Type: "application/rss+xml"}
	}
	if c.Owner.Name != "" || c.Owner.Email != "" {
		ch.ITunesOwner = &rssOwner{Name: c.Owner.Name, Email: c.Owner.Email}
	}
	if c.ImageURL != "" {
		ch.ITunesImage = &rssImage{Href: c.ImageURL}
	}
	for _, cat := range c.Categories {
		ch.ITunesCategory = append(ch.ITunesCategory, rssCategory{Text: cat})
	}
	for _, it := range d.Items {
		mime := it.Enclosure.Type
		if mime == "" {
			mime = "audio/mpeg"
		}
		ch.Items = append(ch.Items, rssItem{
			Title:          it.Title,
			Link:           it.Link,
			Description:    it.Description,
			Enclosure:      rssEnclosure{URL: it.Enclosure.URL, Length: it.Enclosure.Length, Type: mime},
			GUID:           rssGUID{IsPermaLink: "false", Value: it.GUID},
			PubDate:        it.PubDate,
			ITunesDuration: strconv.Itoa(it.DurationSeconds),
			ITunesAuthor:   it.Author,
			ITunesSubtitle: it.Subtitle,
			ITunesSummary:  it.Summary,
			ITunesExplicit: yesNo(it.Explicit),
		})
	}
	return ch
}

func yesNo(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// parseDuration accepts plain seconds as well as MM:SS and HH:MM:SS.
func parseDuration(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		total = total*60 + n
	}
	return total, nil
}
