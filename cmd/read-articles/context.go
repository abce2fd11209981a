package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"read-articles/internal/article"
	"read-articles/internal/audio"
	"read-articles/internal/config"
	"read-articles/internal/publish"
	"read-articles/internal/tts"
	"read-articles/internal/workspace"
)

type commandContext struct {
	rootFlag *string
	logger   *log.Logger

	once     sync.Once
	ws       workspace.Workspace
	settings config.Settings
	err      error
}

func newCommandContext(rootFlag *string) *commandContext {
	return &commandContext{
		rootFlag: rootFlag,
		logger:   log.New(os.Stdout, "read-articles ", log.LstdFlags|log.Lmsgprefix),
	}
}

func (c *commandContext) ensure() (workspace.Workspace, config.Settings, error) {
	c.once.Do(func() {
		root, err := c.resolveRoot()
		if err != nil {
			c.err = fmt.Errorf("resolve workspace: %w", err)
			return
		}
		ws, err := workspace.New(root)
		if err != nil {
			c.err = err
			return
		}
		settings, err := config.Load(ws.Root)
		if err != nil {
			c.err = fmt.Errorf("load settings: %w", err)
			return
		}
		c.ws, c.settings = ws, settings
	})
	return c.ws, c.settings, c.err
}

func (c *commandContext) resolveRoot() (string, error) {
	if c.rootFlag == nil || strings.TrimSpace(*c.rootFlag) == "" {
		return config.ResolveRoot()
	}
	abs, err := filepath.Abs(strings.TrimSpace(*c.rootFlag))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// publisher builds a Publisher. Only conversions need the speech and media
// toolchain, so the rest of the commands run without ffmpeg installed.
func (c *commandContext) publisher(forConvert bool) (*publish.Publisher, error) {
	ws, settings, err := c.ensure()
	if err != nil {
		return nil, err
	}

	opts := publish.Options{
		Workspace: ws,
		Settings:  settings,
		Logger:    c.logger,
	}
	if forConvert {
		transcoder, err := audio.NewTranscoder()
		if err != nil {
			return nil, err
		}
		kokoro, err := tts.NewKokoro(kokoroConfig(settings), transcoder, c.logger)
		if err != nil {
			return nil, err
		}
		opts.Fetcher = article.NewHTTPFetcher(c.logger)
		opts.Synthesizer = kokoro
		opts.Encoder = transcoder
		opts.Decoder = transcoder
	}
	return publish.New(opts)
}

func kokoroConfig(s config.Settings) tts.Config {
	return tts.Config{
		Command:    s.TTS.Command,
		ModelPath:  filepath.Join(s.TTS.ModelDir, "kokoro-v1.0.onnx"),
		VoicesPath: filepath.Join(s.TTS.ModelDir, "voices-v1.0.bin"),
		SampleRate: s.Mix.SampleRate,
		Assets:     tts.KokoroAssets(s.TTS.ModelDir, s.TTS.ModelBaseURL),
	}
}
