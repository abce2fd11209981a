package feed

import "encoding/xml"

const (
	ITunesNS  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	ContentNS = "http://purl.org/rss/1.0/modules/content/"
	AtomNS    = "http://www.w3.org/2005/Atom"
)

// Output types. Prefixed element names are written literally; the root
// declares the matching namespaces.

type rssFeed struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ITunesNS  string     `xml:"xmlns:itunes,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title          string        `xml:"title"`
	Link           string        `xml:"link"`
	Description    string        `xml:"description"`
	Language       string        `xml:"language"`
	Copyright      string        `xml:"copyright,omitempty"`
	Generator      string        `xml:"generator,omitempty"`
	LastBuildDate  string        `xml:"lastBuildDate"`
	AtomLink       *rssAtomLink  `xml:"atom:link,omitempty"`
	ITunesAuthor   string        `xml:"itunes:author,omitempty"`
	ITunesSummary  string        `xml:"itunes:summary,omitempty"`
	ITunesOwner    *rssOwner     `xml:"itunes:owner,omitempty"`
	ITunesImage    *rssImage     `xml:"itunes:image,omitempty"`
	ITunesCategory []rssCategory `xml:"itunes:category"`
	ITunesExplicit string        `xml:"itunes:explicit"`
	Items          []rssItem     `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssOwner struct {
	Name  string `xml:"itunes:name"`
	Email string `xml:"itunes:email"`
}

type rssImage struct {
	Href string `xml:"href,attr"`
}

type rssCategory struct {
	Text string `xml:"text,attr"`
}

type rssItem struct {
	Title          string       `xml:"title"`
	Link           string       `xml:"link"`
	Description    string       `xml:"description"`
	Enclosure      rssEnclosure `xml:"enclosure"`
	GUID           rssGUID      `xml:"guid"`
	PubDate        string       `xml:"pubDate"`
	ITunesDuration string       `xml:"itunes:duration"`
	ITunesAuthor   string       `xml:"itunes:author,omitempty"`
	ITunesSubtitle string       `xml:"itunes:subtitle,omitempty"`
	ITunesSummary  string       `xml:"itunes:summary,omitempty"`
	ITunesExplicit string       `xml:"itunes:explicit"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Input types. encoding/xml resolves prefixes to namespace URLs on read, so
// namespaced fields are matched by URL and listed before plain fields that
// share a local name.

type inFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel *inChannel `xml:"channel"`
}

type inChannel struct {
	AtomLink       *rssAtomLink  `xml:"http://www.w3.org/2005/Atom link"`
	ITunesAuthor   string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
	ITunesSummary  string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd summary"`
	ITunesOwner    *inOwner      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd owner"`
	ITunesImage    *rssImage     `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	ITunesCategory []rssCategory `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd category"`
	ITunesExplicit string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd explicit"`
	Title          string        `xml:"title"`
	Link           string        `xml:"link"`
	Description    string        `xml:"description"`
	Language       string        `xml:"language"`
	Copyright      string        `xml:"copyright"`
	Generator      string        `xml:"generator"`
	LastBuildDate  string        `xml:"lastBuildDate"`
	Items          []inItem      `xml:"item"`
}

type inOwner struct {
	Name  string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd name"`
	Email string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd email"`
}

type inItem struct {
	ITunesDuration string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	ITunesAuthor   string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
	ITunesSubtitle string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd subtitle"`
	ITunesSummary  string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd summary"`
	ITunesExplicit string        `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd explicit"`
	Title          string        `xml:"title"`
	Link           string        `xml:"link"`
	Description    string        `xml:"description"`
	Enclosure      *rssEnclosure `xml:"enclosure"`
	GUID           rssGUID       `xml:"guid"`
	PubDate        string        `xml:"pubDate"`
}
