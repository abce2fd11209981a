package feed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"read-articles/internal/metadata"
	"read-articles/internal/models"
)

func testChannel() Channel {
	return Channel{
		Title:       "Read Articles",
		Link:        "https://podcast.example/",
		Description: "Articles read aloud.",
		Language:    "en-us",
		Copyright:   "Copyright Example",
		Author:      "Example Owner",
		Summary:     "Articles read aloud.",
		Owner:       Owner{Name: "Example Owner", Email: "owner@example.com"},
		ImageURL:    "https://podcast.example/cover.jpg",
		Categories:  []string{"News", "Technology"},
		SelfURL:     "https://podcast.example/podcast.xml",
		Generator:   "read-articles",
	}
}

func testEpisode() models.Episode {
	return models.Episode{
		Title:      "Why Go Works - The Example Times",
		ArticleURL: "https://news.example/go",
		AudioURL:   "https://podcast.example/episodes/Why_Go_Works_af_bella.mp3",
		Voice:      "af_bella",
		DateAdded:  time.Date(2025, 4, 9, 8, 0, 0, 0, time.UTC),
	}
}

func TestItemFor(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	info := metadata.AudioInfo{SizeBytes: 4096, DurationSeconds: 321}

	item := ItemFor(testEpisode(), info, "https://podcast.example/", 2, now)

	if item.Title != "Why Go Works - The Example Times (Bella Voice)" {
		t.Fatalf("unexpected title %q", item.Title)
	}
	if item.Enclosure.URL != testEpisode().AudioURL || item.Enclosure.Length != 4096 || item.Enclosure.Type != "audio/mpeg" {
		t.Fatalf("unexpected enclosure %+v", item.Enclosure)
	}
	if item.GUID != "Why_Go_Works_af_bella_2025_04_09" {
		t.Fatalf("unexpected guid %q", item.GUID)
	}
	if item.PubDate != "Tue, 08 Apr 2025 12:00:00 GMT" {
		t.Fatalf("unexpected pubDate %q", item.PubDate)
	}
	if item.Author != "The Example Times (AI Narrated)" {
		t.Fatalf("unexpected author %q", item.Author)
	}
	if item.DurationSeconds != 321 {
		t.Fatalf("unexpected duration %d", item.DurationSeconds)
	}
	if item.Link != "https://podcast.example/" {
		t.Fatalf("unexpected link %q", item.Link)
	}
}

func TestItemForWithoutSourceAndLongTitle(t *testing.T) {
	ep := testEpisode()
	ep.Title = strings.Repeat("a", 60)
	item := ItemFor(ep, metadata.AudioInfo{}, "", 0, time.Now())

	if item.Author != "AI Narrated" {
		t.Fatalf("unexpected author %q", item.Author)
	}
	if len(item.Subtitle) != SubtitleLimit || !strings.HasSuffix(item.Subtitle, "...") {
		t.Fatalf("unexpected subtitle %q", item.Subtitle)
	}
}

func TestVoiceDisplayName(t *testing.T) {
	cases := map[string]string{
		"af_bella":   "Bella",
		"am_michael": "Michael",
		"bf_emma":    "Emma",
		"heart":      "Heart",
		"am_old_man": "Old Man",
	}
	for in, want := range cases {
		if got := VoiceDisplayName(in); got != want {
			t.Fatalf("VoiceDisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "podcast.xml")
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

	doc := NewDocument(testChannel())
	older := ItemFor(testEpisode(), metadata.AudioInfo{SizeBytes: 10, DurationSeconds: 5}, "https://podcast.example/", 1, now)
	newer := older
	newer.GUID = "newer"
	doc.Append(older)
	doc.Prepend(newer)

	if err := doc.Write(path, now); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"`,
		"\n  <channel>\n",
		`<itunes:category text="Technology"></itunes:category>`,
		`<guid isPermaLink="false">newer</guid>`,
		"<lastBuildDate>Thu, 10 Apr 2025 12:00:00 GMT</lastBuildDate>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in feed:\n%s", want, text)
		}
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Items) != 2 || loaded.Items[0].GUID != "newer" {
		t.Fatalf("unexpected items %+v", loaded.Items)
	}
	if loaded.Channel.Link != "https://podcast.example/" || loaded.Channel.SelfURL != "https://podcast.example/podcast.xml" {
		t.Fatalf("link fields mixed up: %+v", loaded.Channel)
	}
	if loaded.Channel.Owner.Email != "owner@example.com" || len(loaded.Channel.Categories) != 2 {
		t.Fatalf("itunes fields lost: %+v", loaded.Channel)
	}
	if loaded.Items[1].Author != older.Author || loaded.Items[1].DurationSeconds != 5 {
		t.Fatalf("item fields lost: %+v", loaded.Items[1])
	}

	again, err := loaded.Marshal(now)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(again) != text {
		t.Fatalf("reloaded feed does not serialize identically")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "podcast.xml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestParseRejectsMalformedFeeds(t *testing.T) {
	cases := map[string]string{
		"not xml":        "<rss><channel>",
		"no channel":     `<rss version="2.0"></rss>`,
		"missing title":  `<rss><channel><link>l</link><description>d</description><language>en</language></channel></rss>`,
		"item no guid":   `<rss><channel><title>t</title><link>l</link><description>d</description><language>en</language><item><title>x</title><enclosure url="u" length="1" type="audio/mpeg"/></item></channel></rss>`,
		"item no audio":  `<rss><channel><title>t</title><link>l</link><description>d</description><language>en</language><item><title>x</title><guid>g</guid></item></channel></rss>`,
		"wrong root":     `<feed><channel/></feed>`,
		"bad duration":   `<rss xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"><channel><title>t</title><link>l</link><description>d</description><language>en</language><item><title>x</title><guid>g</guid><enclosure url="u" length="1" type="audio/mpeg"/><itunes:duration>soon</itunes:duration></item></channel></rss>`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); !errors.Is(err, ErrMalformedFeed) {
				t.Fatalf("expected ErrMalformedFeed, got %v", err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int{"42": 42, "3:05": 185, "1:00:01": 3601}
	for in, want := range cases {
		got, err := parseDuration(in)
		if err != nil || got != want {
			t.Fatalf("parseDuration(%q) = %d, %v", in, got, err)
		}
	}
}
