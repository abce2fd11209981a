package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"read-articles/internal/audio"
)

var (
	// ErrSynthesisFailed is returned when the speech backend fails.
	ErrSynthesisFailed = errors.New("TTS synthesis failed")
	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("empty text")
)

// Config describes the external Kokoro worker.
type Config struct {
	// Command is the worker invocation, parsed with shell quoting rules.
	Command    string
	ModelPath  string
	VoicesPath string
	SampleRate int
	// Assets are downloaded before the first synthesis when missing.
	Assets []Asset
}

// Kokoro runs an external Kokoro worker once per request. The worker reads
// text on stdin and writes a WAV file to the path given by --output.
type Kokoro struct {
	cmd     []string
	cfg     Config
	decoder audio.Decoder
	client  *http.Client
	logger  *log.Logger
	ready   bool
}

// NewKokoro parses the worker command. decoder, when set, resamples worker
// output that does not match cfg.SampleRate.
func NewKokoro(cfg Config, decoder audio.Decoder, logger *log.Logger) (*Kokoro, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("tts command is empty")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid tts sample rate %d", cfg.SampleRate)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Kokoro{cmd: args, cfg: cfg, decoder: decoder, client: http.DefaultClient, logger: logger}, nil
}

// Synthesize speaks text with voice and returns mono PCM at the configured
// sample rate.
func (k *Kokoro) Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return audio.Buffer{}, ErrEmptyText
	}

	if !k.ready {
		if err := EnsureAssets(ctx, k.client, k.cfg.Assets, k.logger); err != nil {
			return audio.Buffer{}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		}
		k.ready = true
	}

	out, err := os.CreateTemp("", "read-articles-tts-*.wav")
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := append([]string{}, k.cmd[1:]...)
	if k.cfg.ModelPath != "" {
		args = append(args, "--model", k.cfg.ModelPath)
	}
	if k.cfg.VoicesPath != "" {
		args = append(args, "--voices", k.cfg.VoicesPath)
	}
	args = append(args, "--voice", voice, "--output", outPath)

	k.logger.Printf("generating audio with voice %s (%d chars)", voice, len(text))
	cmd := exec.CommandContext(ctx, k.cmd[0], args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return audio.Buffer{}, ctx.Err()
		}
		return audio.Buffer{}, fmt.Errorf("%w: %v: %s", ErrSynthesisFailed, err, strings.TrimSpace(stderr.String()))
	}

	buf, err := audio.ReadWAVFile(outPath)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("%w: read worker output: %v", ErrSynthesisFailed, err)
	}
	if buf.SampleRate != k.cfg.SampleRate {
		if k.decoder == nil {
			return audio.Buffer{}, fmt.Errorf("%w: worker produced %d Hz, expected %d Hz", ErrSynthesisFailed, buf.SampleRate, k.cfg.SampleRate)
		}
		buf, err = k.decoder.Decode(ctx, outPath, k.cfg.SampleRate)
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("%w: resample: %v", ErrSynthesisFailed, err)
		}
	}
	if buf.Len() == 0 {
		return audio.Buffer{}, fmt.Errorf("%w: no audio output", ErrSynthesisFailed)
	}
	return buf, nil
}
