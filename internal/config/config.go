package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"read-articles/internal/audio"
)

const (
	defaultListenAddr        = "127.0.0.1:8080"
	defaultRefreshDebounceMS = 500
	defaultVoice             = "af_bella"
	defaultBaseURL           = "https://example.github.io/read-articles/"
	defaultFeedTitle         = "Read Articles"
	defaultFeedDescription   = "Articles converted to audio with an AI narrator."
	defaultFeedLanguage      = "en-us"
	defaultFeedAuthor        = "Read Articles"
	defaultMusicPath         = "assets/intro.wav"
	defaultModelDir          = "."
	defaultModelBaseURL      = "https://github.com/thewh1teagle/kokoro-onnx/releases/download/model-files-v1.0/"
	defaultTTSCommand        = "python3 scripts/kokoro_worker.py"
	defaultIntroTemplate     = "{{.Title}}. Read for you by {{.Voice}}."
	defaultContainerID       = "episodes"
)

var defaultCategories = []string{"News", "Technology"}

// AllowedExtensions returns the audio extensions accepted by the import
// command (lowercase).
func AllowedExtensions() []string {
	return []string{".mp3"}
}

// ResolveRoot returns the workspace directory. It defaults to the working
// directory and is created when missing.
func ResolveRoot() (string, error) {
	dir := strings.TrimSpace(os.Getenv("READARTICLES_ROOT"))
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}

	abs, err := expandPath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// ListenAddr returns the TCP address the preview server binds to.
func ListenAddr() string {
	addr := strings.TrimSpace(os.Getenv("READARTICLES_LISTEN_ADDR"))
	if addr == "" {
		return defaultListenAddr
	}
	return addr
}

// RefreshDebounce returns how long the watcher waits after the last ledger
// change before regenerating.
func RefreshDebounce() time.Duration {
	value := strings.TrimSpace(os.Getenv("READARTICLES_REFRESH_DEBOUNCE_MS"))
	if value == "" {
		return time.Duration(defaultRefreshDebounceMS) * time.Millisecond
	}

	ms, err := strconv.Atoi(value)
	if err != nil || ms < 0 {
		return time.Duration(defaultRefreshDebounceMS) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// ValidateListenAddr ensures the preview server only binds to localhost.
func ValidateListenAddr(addr string) error {
	addr = strings.TrimSpace(strings.ToLower(addr))
	if strings.HasPrefix(addr, "127.0.0.1:") || strings.HasPrefix(addr, "localhost:") || strings.HasPrefix(addr, "[::1]:") {
		return nil
	}
	return errors.New("listen address must bind to localhost")
}

// FeedMetadata is the static channel information of the podcast.
type FeedMetadata struct {
	Title       string
	Description string
	Language    string
	Copyright   string
	Author      string
	OwnerName   string
	OwnerEmail  string
	ImageURL    string
	Categories  []string
	Explicit    bool
}

// TTSSettings configures the external Kokoro worker.
type TTSSettings struct {
	Command      string
	ModelDir     string
	ModelBaseURL string
}

// Settings is everything a publish run needs beyond the workspace layout.
type Settings struct {
	BaseURL       string
	Voice         string
	MusicPath     string
	IntroTemplate string
	ContainerID   string
	Feed          FeedMetadata
	Mix           audio.MixConfig
	TTS           TTSSettings
}

type settingsYAML struct {
	BaseURL       string           `yaml:"base_url"`
	Voice         string           `yaml:"voice"`
	MusicPath     string           `yaml:"music_path"`
	IntroTemplate string           `yaml:"intro_template"`
	ContainerID   string           `yaml:"container_id"`
	Feed          feedMetadataYAML `yaml:"feed"`
	Mix           *audio.MixConfig `yaml:"mix"`
	TTS           ttsYAML          `yaml:"tts"`
}

type feedMetadataYAML struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Language    string   `yaml:"language"`
	Copyright   string   `yaml:"copyright"`
	Author      string   `yaml:"author"`
	OwnerName   string   `yaml:"owner_name"`
	OwnerEmail  string   `yaml:"owner_email"`
	ImageURL    string   `yaml:"image_url"`
	Categories  []string `yaml:"categories"`
	Explicit    *bool    `yaml:"explicit"`
}

type ttsYAML struct {
	Command      string `yaml:"command"`
	ModelDir     string `yaml:"model_dir"`
	ModelBaseURL string `yaml:"model_base_url"`
}

// Load resolves settings from defaults, the YAML file named by
// READARTICLES_CONFIG (or read-articles.yaml in root when present), then
// environment overrides. Relative paths are resolved against root.
func Load(root string) (Settings, error) {
	s := Settings{
		BaseURL:       defaultBaseURL,
		Voice:         defaultVoice,
		MusicPath:     defaultMusicPath,
		IntroTemplate: defaultIntroTemplate,
		ContainerID:   defaultContainerID,
		Feed: FeedMetadata{
			Title:       defaultFeedTitle,
			Description: defaultFeedDescription,
			Language:    defaultFeedLanguage,
			Author:      defaultFeedAuthor,
			OwnerName:   defaultFeedAuthor,
			Categories:  append([]string(nil), defaultCategories...),
		},
		Mix: audio.DefaultMixConfig(),
		TTS: TTSSettings{
			Command:      defaultTTSCommand,
			ModelDir:     defaultModelDir,
			ModelBaseURL: defaultModelBaseURL,
		},
	}

	configPath, err := configFile(root)
	if err != nil {
		return Settings{}, err
	}
	if configPath != "" {
		if err := applyYAML(&s, configPath); err != nil {
			return Settings{}, err
		}
	}
	applyEnv(&s)

	if !strings.HasSuffix(s.BaseURL, "/") {
		s.BaseURL += "/"
	}
	s.MusicPath = resolveAgainst(root, s.MusicPath)
	s.TTS.ModelDir = resolveAgainst(root, s.TTS.ModelDir)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports settings that cannot produce an episode.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Voice) == "" {
		return errors.New("voice must not be empty")
	}
	if strings.TrimSpace(s.Feed.Title) == "" || strings.TrimSpace(s.Feed.Language) == "" {
		return errors.New("feed title and language are required")
	}
	if _, err := template.New("intro").Parse(s.IntroTemplate); err != nil {
		return fmt.Errorf("intro template: %w", err)
	}
	return s.Mix.Validate()
}

func configFile(root string) (string, error) {
	if path := strings.TrimSpace(os.Getenv("READARTICLES_CONFIG")); path != "" {
		return expandPath(path)
	}
	candidate := filepath.Join(root, "read-articles.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

func applyYAML(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg settingsYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&s.BaseURL, cfg.BaseURL)
	setString(&s.Voice, cfg.Voice)
	setString(&s.MusicPath, cfg.MusicPath)
	setString(&s.IntroTemplate, cfg.IntroTemplate)
	setString(&s.ContainerID, cfg.ContainerID)

	setString(&s.Feed.Title, cfg.Feed.Title)
	setString(&s.Feed.Description, cfg.Feed.Description)
	setString(&s.Feed.Language, cfg.Feed.Language)
	setString(&s.Feed.Copyright, cfg.Feed.Copyright)
	setString(&s.Feed.Author, cfg.Feed.Author)
	setString(&s.Feed.OwnerName, cfg.Feed.OwnerName)
	setString(&s.Feed.OwnerEmail, cfg.Feed.OwnerEmail)
	setString(&s.Feed.ImageURL, cfg.Feed.ImageURL)
	if len(cfg.Feed.Categories) > 0 {
		s.Feed.Categories = cfg.Feed.Categories
	}
	if cfg.Feed.Explicit != nil {
		s.Feed.Explicit = *cfg.Feed.Explicit
	}

	if cfg.Mix != nil {
		mergeMix(&s.Mix, *cfg.Mix)
	}

	setString(&s.TTS.Command, cfg.TTS.Command)
	setString(&s.TTS.ModelDir, cfg.TTS.ModelDir)
	setString(&s.TTS.ModelBaseURL, cfg.TTS.ModelBaseURL)
	return nil
}

// mergeMix copies the non zero fields of override into dst.
func mergeMix(dst *audio.MixConfig, override audio.MixConfig) {
	if override.SampleRate != 0 {
		dst.SampleRate = override.SampleRate
	}
	if override.DuckStartMS != 0 {
		dst.DuckStartMS = override.DuckStartMS
	}
	if override.DuckGainDB != 0 {
		dst.DuckGainDB = override.DuckGainDB
	}
	if override.PrerollMS != 0 {
		dst.PrerollMS = override.PrerollMS
	}
	if override.GapMS != 0 {
		dst.GapMS = override.GapMS
	}
	if override.BitrateKbps != 0 {
		dst.BitrateKbps = override.BitrateKbps
	}
}

func applyEnv(s *Settings) {
	setString(&s.BaseURL, os.Getenv("READARTICLES_BASE_URL"))
	setString(&s.Voice, os.Getenv("READARTICLES_VOICE"))
	setString(&s.MusicPath, os.Getenv("READARTICLES_MUSIC"))
	setString(&s.Feed.Title, os.Getenv("READARTICLES_FEED_TITLE"))
	setString(&s.Feed.Description, os.Getenv("READARTICLES_FEED_DESCRIPTION"))
	setString(&s.Feed.Language, os.Getenv("READARTICLES_FEED_LANGUAGE"))
	setString(&s.Feed.Author, os.Getenv("READARTICLES_FEED_AUTHOR"))
	setString(&s.TTS.Command, os.Getenv("READARTICLES_TTS_COMMAND"))
	setString(&s.TTS.ModelDir, os.Getenv("READARTICLES_MODEL_DIR"))

	if value := strings.TrimSpace(os.Getenv("READARTICLES_BITRATE_KBPS")); value != "" {
		if kbps, err := strconv.Atoi(value); err == nil && kbps > 0 {
			s.Mix.BitrateKbps = kbps
		}
	}
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func resolveAgainst(root, path string) string {
	if strings.HasPrefix(path, "~") {
		if expanded, err := expandPath(path); err == nil {
			return expanded
		}
	}
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Abs(path)
}
