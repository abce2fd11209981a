package article

import (
	"regexp"
	"strings"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern  = regexp.MustCompile(`\*(.+?)\*`)
	codePattern    = regexp.MustCompile("`(.+?)`")
	headingPattern = regexp.MustCompile(`#+ `)
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	spacePattern   = regexp.MustCompile(`\s+`)

	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)
)

// CleanForSpeech strips markdown emphasis, headings and URLs and collapses
// whitespace so the text reads naturally when synthesized.
func CleanForSpeech(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	text = headingPattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SafeFilename lowercases title, turns spaces into dashes and drops anything
// that is not a letter, digit, dash or underscore.
func SafeFilename(title string) string {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "-")
	return unsafeFilenameChars.ReplaceAllString(name, "")
}

// EpisodeFilename returns the audio filename for an article read by voice.
func EpisodeFilename(title, voice string) string {
	base := SafeFilename(title)
	if base == "" {
		base = "article"
	}
	return base + "_" + voice + ".mp3"
}
