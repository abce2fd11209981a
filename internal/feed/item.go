package feed

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"read-articles/internal/metadata"
	"read-articles/internal/models"
)

// SubtitleLimit is the longest subtitle written to an item, ellipsis included.
const SubtitleLimit = 50

var (
	voicePrefix   = regexp.MustCompile(`^[a-z]{2}_`)
	guidUnsafe    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	titleCaser    = cases.Title(language.Und)
	sourceDivider = " - "
)

// ItemFor projects a ledger row onto a feed item. link is the site the item
// points back to. index is the item's position counting from the newest
// episode; pubDate is pushed back one day per position so readers keep the
// intended order.
func ItemFor(ep models.Episode, info metadata.AudioInfo, link string, index int, now time.Time) Item {
	voice := VoiceDisplayName(ep.Voice)
	return Item{
		Title:       fmt.Sprintf("%s (%s Voice)", ep.Title, voice),
		Link:        link,
		Description: fmt.Sprintf("%s. Read by AI voice: %s", ep.Title, voice),
		Enclosure: Enclosure{
			URL:    ep.AudioURL,
			Length: info.SizeBytes,
			Type:   "audio/mpeg",
		},
		GUID:            GUIDFor(ep),
		PubDate:         now.UTC().AddDate(0, 0, -index).Format(DateLayout),
		DurationSeconds: info.DurationSeconds,
		Author:          authorFor(ep.Title),
		Subtitle:        truncate(ep.Title, SubtitleLimit),
		Summary:         fmt.Sprintf("%s. Narrated by AI voice %s.", ep.Title, voice),
	}
}

// VoiceDisplayName turns a voice id such as "af_bella" into "Bella".
func VoiceDisplayName(voice string) string {
	name := voicePrefix.ReplaceAllString(strings.TrimSpace(voice), "")
	name = strings.ReplaceAll(name, "_", " ")
	return titleCaser.String(name)
}

// GUIDFor derives the item guid from the audio filename stem and the day the
// episode was added. Two episodes with the same stem on the same day collide.
func GUIDFor(ep models.Episode) string {
	stem := ep.Filename()
	if i := strings.Index(stem, "."); i >= 0 {
		stem = stem[:i]
	}
	return guidUnsafe.ReplaceAllString(stem, "_") + "_" + ep.DateAdded.UTC().Format("2006_01_02")
}

func authorFor(title string) string {
	if i := strings.LastIndex(title, sourceDivider); i >= 0 {
		if source := strings.TrimSpace(title[i+len(sourceDivider):]); source != "" {
			return source + " (AI Narrated)"
		}
	}
	return "AI Narrated"
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
