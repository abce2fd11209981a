package audio

// Kind labels a span of the episode timeline.
type Kind string

const (
	KindSilence   Kind = "silence"
	KindMusic     Kind = "music"
	KindVoice     Kind = "voice"
	KindNarration Kind = "narration"
)

// Segment is a labelled, already rendered span of audio. GainDB records the
// adjustment that was applied to the underlying source.
type Segment struct {
	Kind   Kind
	Buffer Buffer
	GainDB float64
}

// DurationMS returns the segment length in milliseconds.
func (s Segment) DurationMS() int {
	return s.Buffer.DurationMS()
}

// Timeline is the ordered list of segments making up one episode.
type Timeline struct {
	Segments []Segment
}

// DurationMS returns the sum of the segment durations.
func (t Timeline) DurationMS() int {
	total := 0
	for _, s := range t.Segments {
		total += s.DurationMS()
	}
	return total
}

// Flatten concatenates the segments into one buffer.
func (t Timeline) Flatten() (Buffer, error) {
	parts := make([]Buffer, 0, len(t.Segments))
	for _, s := range t.Segments {
		parts = append(parts, s.Buffer)
	}
	return Concat(parts...)
}
