package article

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<html><head><title>Site Title</title><style>p{}</style></head>
<body><h1>  The   Big Story </h1>
<p>First paragraph.</p><script>var x = "<p>nope</p>";</script>
<p>Second <b>bold</b> paragraph.</p><p>   </p></body></html>`

func TestExtract(t *testing.T) {
	art, err := Extract(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if art.Title != "The Big Story" {
		t.Fatalf("unexpected title %q", art.Title)
	}
	if art.Text != "First paragraph.\nSecond bold paragraph." {
		t.Fatalf("unexpected text %q", art.Text)
	}
}

func TestExtractFallsBackToTitleAndRejectsEmpty(t *testing.T) {
	art, err := Extract(strings.NewReader(`<title>Only Title</title><p>Body</p>`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if art.Title != "Only Title" {
		t.Fatalf("expected <title> fallback, got %q", art.Title)
	}

	if _, err := Extract(strings.NewReader(`<h1>No body</h1>`)); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestHTTPFetcherUsesArchiveFallback(t *testing.T) {
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		if strings.HasPrefix(r.URL.Path, "/archive/") {
			_, _ = io.WriteString(w, samplePage)
			return
		}
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	t.Cleanup(srv.Close)

	f := NewHTTPFetcher(log.New(io.Discard, "", 0))
	f.Client = srv.Client()
	f.ArchiveURL = srv.URL + "/archive/"

	art, err := f.Fetch(context.Background(), srv.URL+"/paywalled")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if art.Title != "The Big Story" || art.URL != srv.URL+"/paywalled" {
		t.Fatalf("unexpected article %+v", art)
	}
	if len(agents) != 2 || !strings.HasPrefix(agents[0], "Mozilla/5.0") {
		t.Fatalf("expected two requests with a browser user agent, got %v", agents)
	}

	f.ArchiveURL = ""
	if _, err := f.Fetch(context.Background(), srv.URL+"/paywalled"); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed without archive, got %v", err)
	}
}

func TestCleanForSpeech(t *testing.T) {
	in := "# Heading\n\nSome **bold** and *italic* and `code`.\nSee https://example.com/x?y=1 now."
	want := "Heading Some bold and italic and code. See now."
	if got := CleanForSpeech(in); got != want {
		t.Fatalf("CleanForSpeech:\n got %q\nwant %q", got, want)
	}
}

func TestEpisodeFilename(t *testing.T) {
	cases := map[string]string{
		"Why Go? A Retrospective!": "why-go-a-retrospective_am_santa.mp3",
		"  ":                       "article_am_santa.mp3",
		"Ünïcode & Friends":        "ncode--friends_am_santa.mp3",
	}
	for title, want := range cases {
		if got := EpisodeFilename(title, "am_santa"); got != want {
			t.Fatalf("EpisodeFilename(%q) = %q, want %q", title, got, want)
		}
	}
}
