package models

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// DateLayout is the timestamp layout used for Date Added in the ledger.
const DateLayout = "2006-01-02 15:04:05"

// Episode is one published unit as recorded in the ledger. Rows are never
// edited once written; duration is derived from the audio file on demand.
type Episode struct {
	Title      string    `json:"title"`
	ArticleURL string    `json:"article_url"`
	AudioURL   string    `json:"audio_url"`
	Voice      string    `json:"voice"`
	DateAdded  time.Time `json:"date_added"`
}

// Filename returns the base name of the published audio file.
func (e Episode) Filename() string {
	raw := e.AudioURL
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	name := path.Base(strings.TrimRight(raw, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
