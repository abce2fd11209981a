package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"READARTICLES_CONFIG",
		"READARTICLES_BASE_URL",
		"READARTICLES_VOICE",
		"READARTICLES_MUSIC",
		"READARTICLES_FEED_TITLE",
		"READARTICLES_FEED_DESCRIPTION",
		"READARTICLES_FEED_LANGUAGE",
		"READARTICLES_FEED_AUTHOR",
		"READARTICLES_TTS_COMMAND",
		"READARTICLES_MODEL_DIR",
		"READARTICLES_BITRATE_KBPS",
	} {
		t.Setenv(key, "")
	}
}

func TestResolveRootDefaultAndCustom(t *testing.T) {
	temp := t.TempDir()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})
	if err := os.Chdir(temp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	t.Setenv("READARTICLES_ROOT", "")
	path, err := ResolveRoot()
	if err != nil {
		t.Fatalf("ResolveRoot default: %v", err)
	}
	assertSamePath(t, path, temp)

	tempHome := filepath.Join(temp, "home")
	if err := os.Mkdir(tempHome, 0o755); err != nil {
		t.Fatalf("mkdir temp home: %v", err)
	}
	t.Setenv("HOME", tempHome)
	t.Setenv("READARTICLES_ROOT", "~/podcast")

	path, err = ResolveRoot()
	if err != nil {
		t.Fatalf("ResolveRoot tilde: %v", err)
	}
	assertSamePath(t, path, filepath.Join(tempHome, "podcast"))
}

func TestListenAddr(t *testing.T) {
	t.Setenv("READARTICLES_LISTEN_ADDR", "")
	if ListenAddr() != "127.0.0.1:8080" {
		t.Fatalf("expected default listen address")
	}

	t.Setenv("READARTICLES_LISTEN_ADDR", "localhost:9000")
	if ListenAddr() != "localhost:9000" {
		t.Fatalf("expected custom listen address")
	}
}

func TestRefreshDebounce(t *testing.T) {
	t.Setenv("READARTICLES_REFRESH_DEBOUNCE_MS", "")
	if RefreshDebounce() != 500*time.Millisecond {
		t.Fatalf("expected default debounce")
	}

	t.Setenv("READARTICLES_REFRESH_DEBOUNCE_MS", "1500")
	if RefreshDebounce() != 1500*time.Millisecond {
		t.Fatalf("expected custom debounce")
	}

	t.Setenv("READARTICLES_REFRESH_DEBOUNCE_MS", "not-a-number")
	if RefreshDebounce() != 500*time.Millisecond {
		t.Fatalf("expected fallback debounce on parse error")
	}

	t.Setenv("READARTICLES_REFRESH_DEBOUNCE_MS", "-10")
	if RefreshDebounce() != 500*time.Millisecond {
		t.Fatalf("expected fallback debounce on negative value")
	}
}

func TestValidateListenAddr(t *testing.T) {
	valid := []string{"127.0.0.1:8080", "localhost:9000", "[::1]:7000"}
	for _, addr := range valid {
		if err := ValidateListenAddr(addr); err != nil {
			t.Fatalf("expected %s to be valid: %v", addr, err)
		}
	}

	invalid := []string{"0.0.0.0:80", "192.168.1.1:1234", ":8080"}
	for _, addr := range invalid {
		if err := ValidateListenAddr(addr); err == nil {
			t.Fatalf("expected %s to be rejected", addr)
		}
	}
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Voice != defaultVoice || s.Feed.Title != defaultFeedTitle || s.Mix.BitrateKbps != 192 {
		t.Fatalf("expected defaults, got %+v", s)
	}
	if s.MusicPath != filepath.Join(root, "assets", "intro.wav") {
		t.Fatalf("expected music path relative to root, got %q", s.MusicPath)
	}
	if len(s.Feed.Categories) != 2 {
		t.Fatalf("expected default categories, got %v", s.Feed.Categories)
	}

	t.Setenv("READARTICLES_BASE_URL", "https://cast.example/site")
	t.Setenv("READARTICLES_VOICE", "am_michael")
	t.Setenv("READARTICLES_FEED_TITLE", "My Cast")
	t.Setenv("READARTICLES_BITRATE_KBPS", "128")
	t.Setenv("READARTICLES_MUSIC", "/srv/music.mp3")

	s, err = Load(root)
	if err != nil {
		t.Fatalf("Load overrides: %v", err)
	}
	if s.BaseURL != "https://cast.example/site/" {
		t.Fatalf("expected trailing slash on base url, got %q", s.BaseURL)
	}
	if s.Voice != "am_michael" || s.Feed.Title != "My Cast" || s.Mix.BitrateKbps != 128 || s.MusicPath != "/srv/music.mp3" {
		t.Fatalf("expected env overrides, got %+v", s)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	content := "" +
		"base_url: https://file.example/\n" +
		"intro_template: \"{{.Title}} with {{.Voice}}\"\n" +
		"feed:\n" +
		"  title: File Title\n" +
		"  language: es\n" +
		"  owner_email: me@file.example\n" +
		"  categories: [Education]\n" +
		"  explicit: true\n" +
		"mix:\n" +
		"  gap_ms: 500\n" +
		"tts:\n" +
		"  model_dir: models\n"
	if err := os.WriteFile(filepath.Join(root, "read-articles.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.BaseURL != "https://file.example/" || s.Feed.Title != "File Title" || s.Feed.Language != "es" {
		t.Fatalf("expected file-derived settings, got %+v", s)
	}
	if !s.Feed.Explicit || s.Feed.OwnerEmail != "me@file.example" || len(s.Feed.Categories) != 1 {
		t.Fatalf("expected feed metadata from file, got %+v", s.Feed)
	}
	if s.Mix.GapMS != 500 || s.Mix.DuckStartMS != 1000 {
		t.Fatalf("expected mix override merged with defaults, got %+v", s.Mix)
	}
	if s.TTS.ModelDir != filepath.Join(root, "models") {
		t.Fatalf("expected model dir relative to root, got %q", s.TTS.ModelDir)
	}

	t.Setenv("READARTICLES_FEED_TITLE", "Env Title")
	s, err = Load(root)
	if err != nil {
		t.Fatalf("Load env override: %v", err)
	}
	if s.Feed.Title != "Env Title" {
		t.Fatalf("expected env override to win, got %s", s.Feed.Title)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	path := filepath.Join(root, "custom.yaml")
	if err := os.WriteFile(path, []byte("intro_template: \"{{.Title\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("READARTICLES_CONFIG", path)
	if _, err := Load(root); err == nil {
		t.Fatalf("expected invalid template to be rejected")
	}

	if err := os.WriteFile(path, []byte("mix: [oops\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Fatalf("expected invalid yaml to be rejected")
	}

	t.Setenv("READARTICLES_CONFIG", filepath.Join(root, "missing.yaml"))
	if _, err := Load(root); err == nil {
		t.Fatalf("expected missing config file to be an error")
	}
}

func TestAllowedExtensions(t *testing.T) {
	exts := AllowedExtensions()
	if len(exts) == 0 || exts[0] != ".mp3" {
		t.Fatalf("unexpected extensions %v", exts)
	}
}

func assertSamePath(t *testing.T, got, want string) {
	t.Helper()
	resolvedGot, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatalf("eval symlinks for %s: %v", got, err)
	}
	resolvedWant, err := filepath.EvalSymlinks(want)
	if err != nil {
		t.Fatalf("eval symlinks for %s: %v", want, err)
	}
	if resolvedGot != resolvedWant {
		t.Fatalf("expected %s, got %s", resolvedWant, resolvedGot)
	}
}
