package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"
	"time"

	"read-articles/internal/feed"
	"read-articles/internal/publish"
)

// EpisodeProvider abstracts the catalog for the HTTP handlers.
type EpisodeProvider interface {
	ListEpisodes() ([]publish.Listing, error)
}

type serverHandler struct {
	lib      EpisodeProvider
	docsRoot string
	feedPath string
	baseURL  string
	logger   *log.Logger
}

// New creates the preview handler. It serves the published docs directory
// as-is, plus a catalog API and a feed whose URLs point back at this server.
func New(lib EpisodeProvider, docsRoot, baseURL string, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}

	cleanRoot := filepath.Clean(docsRoot)
	absRoot, err := filepath.Abs(cleanRoot)
	if err != nil {
		logger.Printf("warning: unable to resolve absolute docs root %q: %v", docsRoot, err)
		absRoot = cleanRoot
	}

	h := &serverHandler{
		lib:      lib,
		docsRoot: absRoot,
		feedPath: filepath.Join(absRoot, "podcast.xml"),
		baseURL:  baseURL,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/episodes", h.handleEpisodes)
	mux.HandleFunc("/feed", h.handleFeed)
	mux.HandleFunc("/feed.xml", h.handleFeed)
	mux.HandleFunc("/rss", h.handleFeed)
	mux.HandleFunc("/", h.handleStatic)

	return logRequests(mux, logger)
}

func (h *serverHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *serverHandler) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	episodes, err := h.lib.ListEpisodes()
	if err != nil {
		h.logger.Printf("failed to list episodes: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if episodes == nil {
		episodes = []publish.Listing{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(episodes); err != nil {
		h.logger.Printf("failed to encode episodes: %v", err)
	}
}

// handleFeed serves the published feed with every URL under the public base
// rewritten to this server, so the catalog can be tried in a podcast app
// before it is pushed. Pass ?published=1 for the file exactly as written.
func (h *serverHandler) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("published") != "" {
		h.serveFile(w, r, h.feedPath)
		return
	}

	base := h.requestBaseURL(r)
	if base == nil {
		h.logger.Printf("unable to determine request base URL")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	doc, err := feed.Load(h.feedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.Printf("failed to load feed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	data, err := h.previewFeed(doc, base)
	if err != nil {
		h.logger.Printf("failed to build preview feed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		h.logger.Printf("failed to write RSS feed: %v", err)
	}
}

func (h *serverHandler) previewFeed(doc *feed.Document, base *url.URL) ([]byte, error) {
	local := base.String() + "/"
	rewrite := func(u string) string {
		if h.baseURL == "" || !strings.HasPrefix(u, h.baseURL) {
			return u
		}
		return local + strings.TrimPrefix(u, h.baseURL)
	}

	doc.Channel.Link = rewrite(doc.Channel.Link)
	doc.Channel.SelfURL = rewrite(doc.Channel.SelfURL)
	doc.Channel.ImageURL = rewrite(doc.Channel.ImageURL)
	for i := range doc.Items {
		doc.Items[i].Link = rewrite(doc.Items[i].Link)
		doc.Items[i].Enclosure.URL = rewrite(doc.Items[i].Enclosure.URL)
	}

	built, err := time.Parse(feed.DateLayout, doc.Channel.LastBuildDate)
	if err != nil {
		built = time.Now()
	}
	return doc.Marshal(built)
}

func (h *serverHandler) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rel := pathpkg.Clean("/" + r.URL.Path)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = "index.html"
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	}

	target := filepath.Join(h.docsRoot, filepath.FromSlash(rel))
	resolved, err := filepath.Abs(target)
	if err != nil {
		h.logger.Printf("failed to resolve path %s: %v", target, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if !pathWithinRoot(h.docsRoot, resolved) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h.serveFile(w, r, resolved)
}

func (h *serverHandler) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.logger.Printf("failed to stat %s: %v", path, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if info.IsDir() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if strings.EqualFold(filepath.Ext(path), ".xml") {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	}
	http.ServeFile(w, r, path)
}

func (h *serverHandler) requestBaseURL(r *http.Request) *url.URL {
	scheme := "http"
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				scheme = candidate
			}
		}
	} else if r.TLS != nil {
		scheme = "https"
	}

	host := strings.TrimSpace(r.Host)
	if host == "" {
		return nil
	}

	return &url.URL{Scheme: scheme, Host: host}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func logRequests(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		duration := time.Since(start)
		logger.Printf("%s %s -> %d (%dB) in %s", r.Method, r.URL.Path, sw.status, sw.size, duration)
	})
}

func pathWithinRoot(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
