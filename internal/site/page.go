package site

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"read-articles/internal/fileutil"
)

// ErrMalformedPage is returned when a page does not contain exactly one
// properly closed episode container.
var ErrMalformedPage = errors.New("malformed page")

// DefaultContainerID is the id of the element holding the episode list.
const DefaultContainerID = "episodes"

// Page is an HTML document split around its episode container. Only the
// container content is ever rewritten; prefix and suffix are kept byte for
// byte.
type Page struct {
	containerID string
	prefix      string
	inner       string
	suffix      string
}

// Load reads and splits the page at path. A missing file returns an error
// wrapping os.ErrNotExist.
func Load(path, containerID string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return Parse(data, containerID)
}

// Parse splits data around the element whose id is containerID.
func Parse(data []byte, containerID string) (*Page, error) {
	if containerID == "" {
		containerID = DefaultContainerID
	}

	z := html.NewTokenizer(bytes.NewReader(data))
	var (
		offset     int
		found      int
		inside     bool
		depth      int
		tag        string
		innerStart int
		innerEnd   = -1
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedPage, z.Err())
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if hasAttr && idMatches(z, containerID) {
				found++
				if found > 1 {
					return nil, fmt.Errorf("%w: more than one #%s container", ErrMalformedPage, containerID)
				}
				if isVoid(atom.Lookup(name)) {
					return nil, fmt.Errorf("%w: #%s is a void element", ErrMalformedPage, containerID)
				}
				inside = true
				depth = 1
				tag = string(name)
				innerStart = offset
				continue
			}
			if inside && string(name) == tag {
				depth++
			}
		case html.EndTagToken:
			if !inside {
				continue
			}
			name, _ := z.TagName()
			if string(name) != tag {
				continue
			}
			depth--
			if depth == 0 {
				inside = false
				innerEnd = start
			}
		}
	}

	if found == 0 {
		return nil, fmt.Errorf("%w: no #%s container", ErrMalformedPage, containerID)
	}
	if inside || innerEnd < 0 {
		return nil, fmt.Errorf("%w: #%s container is not closed", ErrMalformedPage, containerID)
	}

	return &Page{
		containerID: containerID,
		prefix:      string(data[:innerStart]),
		inner:       string(data[innerStart:innerEnd]),
		suffix:      string(data[innerEnd:]),
	}, nil
}

func idMatches(z *html.Tokenizer, id string) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" && strings.TrimSpace(string(val)) == id {
			return true
		}
		if !more {
			return false
		}
	}
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// ContainerID returns the id of the episode container.
func (p *Page) ContainerID() string {
	return p.containerID
}

// Prepend inserts f at the front of the container.
func (p *Page) Prepend(f Fragment) {
	if strings.HasPrefix(p.inner, "\n") {
		p.inner = "\n" + f.HTML + p.inner[1:]
		return
	}
	p.inner = f.HTML + p.inner
}

// Append adds f at the end of the container.
func (p *Page) Append(f Fragment) {
	p.inner += f.HTML
}

// Reset empties the container.
func (p *Page) Reset() {
	p.inner = "\n"
}

// Bytes returns the full page.
func (p *Page) Bytes() []byte {
	return []byte(p.prefix + p.inner + p.suffix)
}

// Write replaces the file at path atomically.
func (p *Page) Write(path string) error {
	if err := fileutil.WriteFileAtomic(path, p.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// Entry is one rendered episode found in the container.
type Entry struct {
	Title    string
	AudioURL string
}

// Fragments parses the container and lists the episodes it holds, in page
// order.
func (p *Page) Fragments() ([]Entry, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(p.inner), parent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	var entries []Entry
	for _, n := range nodes {
		if n.Type != html.ElementNode || !hasClass(n, "episode") {
			continue
		}
		var e Entry
		if h := find(n, atom.H3); h != nil {
			e.Title = strings.TrimSpace(textOf(h))
		}
		if s := find(n, atom.Source); s != nil {
			e.AudioURL = attr(s, "src")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func find(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
