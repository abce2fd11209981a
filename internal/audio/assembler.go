package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// MixConfig carries every constant used to build an episode timeline.
type MixConfig struct {
	SampleRate  int     `yaml:"sample_rate"`
	DuckStartMS int     `yaml:"duck_start_ms"`
	DuckGainDB  float64 `yaml:"duck_gain_db"`
	PrerollMS   int     `yaml:"preroll_ms"`
	GapMS       int     `yaml:"gap_ms"`
	BitrateKbps int     `yaml:"bitrate_kbps"`
}

// DefaultMixConfig returns the production mix settings.
func DefaultMixConfig() MixConfig {
	return MixConfig{
		SampleRate:  24000,
		DuckStartMS: 1000,
		DuckGainDB:  -8,
		PrerollMS:   1000,
		GapMS:       2000,
		BitrateKbps: 192,
	}
}

// Validate reports settings that cannot produce a timeline.
func (c MixConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	case c.DuckStartMS < 0 || c.PrerollMS < 0 || c.GapMS < 0:
		return errors.New("timeline offsets must not be negative")
	case c.BitrateKbps <= 0:
		return fmt.Errorf("bitrate must be positive, got %d", c.BitrateKbps)
	}
	return nil
}

// Synthesizer turns text into speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (Buffer, error)
}

// Encoder writes a buffer to a compressed audio file.
type Encoder interface {
	EncodeMP3(ctx context.Context, buf Buffer, path string, bitrateKbps int) error
}

// Assembler builds episode timelines: ducked intro music with a voiceover,
// then the article narration.
type Assembler struct {
	cfg    MixConfig
	tts    Synthesizer
	logger *log.Logger
}

// NewAssembler creates an assembler using tts for the intro voiceover.
func NewAssembler(cfg MixConfig, tts Synthesizer, logger *log.Logger) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tts == nil {
		return nil, errors.New("assembler requires a synthesizer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{cfg: cfg, tts: tts, logger: logger}, nil
}

// Config returns the mix settings in use.
func (a *Assembler) Config() MixConfig {
	return a.cfg
}

// Assemble synthesizes the intro voiceover and lays out the full timeline:
// pre-roll silence, ducked intro music, gap, narration.
func (a *Assembler) Assemble(ctx context.Context, music Buffer, voice, introScript string, narration Buffer) (Timeline, error) {
	if music.Len() == 0 {
		return Timeline{}, fmt.Errorf("%w: intro music is empty", ErrAssetMissing)
	}
	if err := a.checkRate("intro music", music); err != nil {
		return Timeline{}, err
	}
	if err := a.checkRate("narration", narration); err != nil {
		return Timeline{}, err
	}

	a.logger.Printf("synthesizing intro voiceover (%d chars)", len(introScript))
	voiceover, err := a.tts.Synthesize(ctx, introScript, voice)
	if err != nil {
		return Timeline{}, fmt.Errorf("synthesize intro: %w", err)
	}
	if err := a.checkRate("intro voiceover", voiceover); err != nil {
		return Timeline{}, err
	}

	segments, err := a.duck(music, voiceover)
	if err != nil {
		return Timeline{}, err
	}

	timeline := Timeline{Segments: make([]Segment, 0, len(segments)+3)}
	timeline.Segments = append(timeline.Segments, Segment{Kind: KindSilence, Buffer: Silence(a.cfg.SampleRate, a.cfg.PrerollMS)})
	timeline.Segments = append(timeline.Segments, segments...)
	timeline.Segments = append(timeline.Segments,
		Segment{Kind: KindSilence, Buffer: Silence(a.cfg.SampleRate, a.cfg.GapMS)},
		Segment{Kind: KindNarration, Buffer: narration},
	)

	a.logger.Printf("timeline assembled: voiceover %dms, narration %dms, total %dms",
		voiceover.DurationMS(), narration.DurationMS(), timeline.DurationMS())
	return timeline, nil
}

// DuckIntro returns the intro music with the voiceover laid over the ducked
// section.
func (a *Assembler) DuckIntro(music, voiceover Buffer) (Buffer, error) {
	segments, err := a.duck(music, voiceover)
	if err != nil {
		return Buffer{}, err
	}
	return Timeline{Segments: segments}.Flatten()
}

// duck splits music into before/during/after around the voiceover. The
// during slice is clipped to the track, but the overlay keeps the full
// voiceover, so a voiceover running past the end of the music lengthens the
// intro instead of being cut.
func (a *Assembler) duck(music, voiceover Buffer) ([]Segment, error) {
	start := a.cfg.DuckStartMS
	end := start + voiceover.DurationMS()

	before := music.Slice(0, start)
	during := music.Slice(start, end)
	after := music.From(end)

	quiet := Gain(during, a.cfg.DuckGainDB)
	overlaid, err := Overlay(quiet, voiceover, 0)
	if err != nil {
		return nil, fmt.Errorf("overlay intro: %w", err)
	}

	return []Segment{
		{Kind: KindMusic, Buffer: before},
		{Kind: KindVoice, Buffer: overlaid, GainDB: a.cfg.DuckGainDB},
		{Kind: KindMusic, Buffer: after},
	}, nil
}

// Export flattens the timeline and encodes it to path.
func (a *Assembler) Export(ctx context.Context, timeline Timeline, enc Encoder, path string) error {
	buf, err := timeline.Flatten()
	if err != nil {
		return err
	}
	a.logger.Printf("encoding %dms of audio at %dkbps to %s", buf.DurationMS(), a.cfg.BitrateKbps, path)
	if err := enc.EncodeMP3(ctx, buf, path, a.cfg.BitrateKbps); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func (a *Assembler) checkRate(label string, b Buffer) error {
	if b.SampleRate != a.cfg.SampleRate {
		return fmt.Errorf("%w: %s is %d Hz, expected %d Hz", ErrSampleRateMismatch, label, b.SampleRate, a.cfg.SampleRate)
	}
	return nil
}
