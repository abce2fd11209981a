package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultArchive  = "https://archive.is/"
	maxArticleBytes = 10 << 20
)

// ErrFetchFailed is returned when no usable article could be retrieved.
var ErrFetchFailed = errors.New("failed to fetch or parse article")

// Article is the extracted title and body text of a web page.
type Article struct {
	URL   string
	Title string
	Text  string
}

// Fetcher retrieves an article by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Article, error)
}

// HTTPFetcher downloads a page and extracts the first heading and paragraph
// text. Pages that do not answer 200 are retried through an archive mirror.
type HTTPFetcher struct {
	Client     *http.Client
	ArchiveURL string
	Logger     *log.Logger
}

// NewHTTPFetcher returns a fetcher with sane defaults.
func NewHTTPFetcher(logger *log.Logger) *HTTPFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPFetcher{
		Client:     &http.Client{Timeout: 60 * time.Second},
		ArchiveURL: defaultArchive,
		Logger:     logger,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Article, error) {
	f.Logger.Printf("fetching article: %s", url)
	body, status, err := f.get(ctx, url)
	if err != nil {
		return Article{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if status != http.StatusOK {
		f.Logger.Printf("failed to fetch article, status: %d", status)
		if f.ArchiveURL == "" {
			return Article{}, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, status)
		}
		archived := f.ArchiveURL + url
		f.Logger.Printf("trying archive copy: %s", archived)
		body, status, err = f.get(ctx, archived)
		if err != nil {
			return Article{}, fmt.Errorf("%w: archive: %v", ErrFetchFailed, err)
		}
		if status != http.StatusOK {
			return Article{}, fmt.Errorf("%w: archive HTTP %d", ErrFetchFailed, status)
		}
	}

	art, err := Extract(strings.NewReader(body))
	if err != nil {
		return Article{}, err
	}
	art.URL = url
	return art, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(data), resp.StatusCode, nil
}

// Extract pulls the title (first h1, else <title>) and the text of every
// paragraph from an HTML document.
func Extract(r io.Reader) (Article, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Article{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var h1, title string
	var paragraphs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.H1:
				if h1 == "" {
					h1 = collapse(textContent(n))
				}
				return
			case atom.Title:
				if title == "" {
					title = collapse(textContent(n))
				}
				return
			case atom.P:
				if text := strings.TrimSpace(textContent(n)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if h1 != "" {
		title = h1
	}
	art := Article{Title: title, Text: strings.Join(paragraphs, "\n")}
	if art.Title == "" || art.Text == "" {
		return Article{}, fmt.Errorf("%w: no title or paragraph text found", ErrFetchFailed)
	}
	return art, nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
