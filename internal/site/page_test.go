package site

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

const samplePage = `<!DOCTYPE html>
<html>
<head><title>My   Podcast</title>
<script>var s = "<div id='episodes'></div>";</script>
</head>
<body>
  <!-- hand edited -->
  <div class="intro"><p>Welcome<br>friends</div>
  <div id="episodes">
  <div class="episode"><h3><a href="https://a.example">Old <b>one</b></a></h3><div><audio><source src="https://p.example/episodes/old.mp3"></audio></div></div>
</div>
  <footer>  kept   as is </footer>
</body>
</html>
`

func fragmentFor(t *testing.T, title, audio string) Fragment {
	t.Helper()
	ep := models.Episode{
		Title:      title,
		ArticleURL: "https://news.example/" + title,
		AudioURL:   audio,
		Voice:      "af_bella",
		DateAdded:  time.Date(2025, 4, 9, 8, 0, 0, 0, time.UTC),
	}
	f, err := FragmentFor(ep, metadata.AudioInfo{DurationSeconds: 321}, title+" (Bella Voice)", "An episode")
	if err != nil {
		t.Fatalf("FragmentFor: %v", err)
	}
	return f
}

func TestParseKeepsBytesOutsideContainer(t *testing.T) {
	page, err := Parse([]byte(samplePage), "episodes")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(page.Bytes()) != samplePage {
		t.Fatalf("unmodified page does not round trip")
	}

	page.Prepend(fragmentFor(t, "New", "https://p.example/episodes/new.mp3"))
	out := string(page.Bytes())

	openTag := `<div id="episodes">`
	cut := strings.Index(samplePage, openTag) + len(openTag)
	if !strings.HasPrefix(out, samplePage[:cut]) {
		t.Fatalf("prefix changed:\n%s", out)
	}
	tail := samplePage[strings.LastIndex(samplePage, "</div>\n  <footer>"):]
	if !strings.HasSuffix(out, tail) {
		t.Fatalf("suffix changed:\n%s", out)
	}

	entries, err := page.Fragments()
	if err != nil {
		t.Fatalf("Fragments: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 fragments, got %+v", entries)
	}
	if entries[0].AudioURL != "https://p.example/episodes/new.mp3" || entries[1].Title != "Old one" {
		t.Fatalf("unexpected order %+v", entries)
	}
}

func TestResetAndAppend(t *testing.T) {
	page, err := Parse([]byte(samplePage), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	page.Reset()
	if entries, _ := page.Fragments(); len(entries) != 0 {
		t.Fatalf("expected empty container, got %d", len(entries))
	}

	page.Append(fragmentFor(t, "B", "https://p.example/b.mp3"))
	page.Append(fragmentFor(t, "A", "https://p.example/a.mp3"))
	entries, err := page.Fragments()
	if err != nil {
		t.Fatalf("Fragments: %v", err)
	}
	if len(entries) != 2 || entries[0].AudioURL != "https://p.example/b.mp3" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	reparsed, err := Parse(page.Bytes(), "episodes")
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if string(reparsed.Bytes()) != string(page.Bytes()) {
		t.Fatalf("rewritten page does not reparse identically")
	}
}

func TestParseRejectsMalformedPages(t *testing.T) {
	cases := map[string]string{
		"no container":  `<html><body><div id="other"></div></body></html>`,
		"two":           `<div id="episodes"></div><section id="episodes"></section>`,
		"nested twin":   `<div id="episodes"><div id="episodes"></div></div>`,
		"unclosed":      `<html><body><div id="episodes"><div></div></body></html>`,
		"void":          `<img id="episodes">`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw), "episodes"); !errors.Is(err, ErrMalformedPage) {
				t.Fatalf("expected ErrMalformedPage, got %v", err)
			}
		})
	}
}

func TestFragmentMarkup(t *testing.T) {
	f := fragmentFor(t, "Title & more", "https://p.example/episodes/t.mp3")
	for _, want := range []string{
		`<div class="episode">`,
		`<a href="https://news.example/Title &amp; more">Title &amp; more (Bella Voice)</a>`,
		`Duration: 5:21 | Voice: af_bella | Published: Apr 09, 2025`,
		`<source src="https://p.example/episodes/t.mp3" type="audio/mpeg"/>`,
		`class="audio-player"`,
	} {
		if !strings.Contains(f.HTML, want) {
			t.Fatalf("expected %q in %s", want, f.HTML)
		}
	}
}

func TestSkeletonWriteAndLoad(t *testing.T) {
	page, err := Skeleton(SkeletonMeta{Title: "Read <Articles>", FeedURL: "podcast.xml"}, "")
	if err != nil {
		t.Fatalf("Skeleton: %v", err)
	}
	if !strings.Contains(string(page.Bytes()), "Read &lt;Articles&gt;") {
		t.Fatalf("expected escaped title")
	}
	page.Prepend(fragmentFor(t, "One", "https://p.example/one.mp3"))

	path := filepath.Join(t.TempDir(), "docs", "index.html")
	if err := page.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := Load(path, "episodes")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries, err := loaded.Fragments()
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one fragment, got %+v, %v", entries, err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.html"), "episodes"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 3600: "60:00", -3: "0:00"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
