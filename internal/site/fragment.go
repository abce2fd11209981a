package site

import (
	"bytes"
	"fmt"
	"html/template"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"read-articles/internal/metadata"
	"read-articles/internal/models"
)

// PublishedLayout formats the date shown on each episode.
const PublishedLayout = "Jan 02, 2006"

// Fragment is the rendered markup for one episode.
type Fragment struct {
	HTML string
}

// FragmentFor renders ep as a self contained block: a heading linking to the
// article, a meta line, the description and an audio player.
func FragmentFor(ep models.Episode, info metadata.AudioInfo, displayTitle, description string) (Fragment, error) {
	if displayTitle == "" {
		displayTitle = ep.Title
	}

	link := element(atom.A, html.Attribute{Key: "href", Val: ep.ArticleURL})
	link.AppendChild(text(displayTitle))
	heading := element(atom.H3)
	heading.AppendChild(link)

	meta := element(atom.Div, html.Attribute{Key: "class", Val: "episode-meta"})
	meta.AppendChild(text(fmt.Sprintf("Duration: %s | Voice: %s | Published: %s",
		FormatDuration(info.DurationSeconds), ep.Voice, ep.DateAdded.UTC().Format(PublishedLayout))))

	desc := element(atom.P)
	desc.AppendChild(text(description))

	source := element(atom.Source,
		html.Attribute{Key: "src", Val: ep.AudioURL},
		html.Attribute{Key: "type", Val: "audio/mpeg"},
	)
	player := element(atom.Audio,
		html.Attribute{Key: "controls"},
		html.Attribute{Key: "class", Val: "audio-player"},
	)
	player.AppendChild(source)
	player.AppendChild(text("Your browser does not support the audio element."))

	root := element(atom.Div, html.Attribute{Key: "class", Val: "episode"})
	for _, child := range []*html.Node{heading, meta, desc, player} {
		root.AppendChild(text("\n    "))
		root.AppendChild(child)
	}
	root.AppendChild(text("\n  "))

	var buf bytes.Buffer
	buf.WriteString("  ")
	if err := html.Render(&buf, root); err != nil {
		return Fragment{}, fmt.Errorf("render fragment: %w", err)
	}
	buf.WriteByte('\n')
	return Fragment{HTML: buf.String()}, nil
}

// FormatDuration renders seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// SkeletonMeta fills the fixed page used when no usable page exists.
type SkeletonMeta struct {
	Title       string
	Description string
	FeedURL     string
}

var skeletonTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="alternate" type="application/rss+xml" title="{{.Title}}" href="{{.FeedURL}}">
  <style>
    body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
    .episode { border-bottom: 1px solid #ddd; padding: 1rem 0; }
    .episode-meta { color: #666; font-size: 0.9rem; }
    .audio-player { width: 100%; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p>{{.Description}}</p>
  <p><a href="{{.FeedURL}}">Subscribe to the podcast feed</a></p>
  <h2>Latest Episodes</h2>
  <div id="{{.ContainerID}}">
</div>
</body>
</html>
`))

// Skeleton renders the fixed page with an empty container.
func Skeleton(meta SkeletonMeta, containerID string) (*Page, error) {
	if containerID == "" {
		containerID = DefaultContainerID
	}
	var buf bytes.Buffer
	err := skeletonTemplate.Execute(&buf, struct {
		SkeletonMeta
		ContainerID string
	}{meta, containerID})
	if err != nil {
		return nil, fmt.Errorf("render skeleton: %w", err)
	}
	return Parse(buf.Bytes(), containerID)
}
