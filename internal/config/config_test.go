package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/dataforgoodfr/bechdelai/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OMDB_API_KEY", "omdb-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "bechdelai")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantData, "bechdelai.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.TMDB.APIKey != "tmdb-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.OMDB.APIKey != "omdb-key" {
		t.Fatalf("expected OMDB key from env, got %q", cfg.OMDB.APIKey)
	}
	if cfg.Subtitles.Language != "fre" {
		t.Fatalf("unexpected subtitle language: %q", cfg.Subtitles.Language)
	}
	if cfg.Subtitles.JaroWinklerThreshold != 0.875 {
		t.Fatalf("unexpected jaro-winkler threshold: %v", cfg.Subtitles.JaroWinklerThreshold)
	}
	if cfg.Audio.Segmenter != "pitch" || cfg.Audio.Transcriber != "none" {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if err := cfg.RequireTMDB(); err != nil {
		t.Fatalf("RequireTMDB: %v", err)
	}
	if err := cfg.RequireLLM(); err != nil {
		t.Fatalf("RequireLLM: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.CacheDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bechdelai.toml")

	type payload struct {
		TMDB struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"tmdb"`
		Audio struct {
			Profile   string `toml:"profile"`
			Segmenter string `toml:"segmenter"`
		} `toml:"audio"`
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.BaseURL = "https://example.com/tmdb/"
	custom.Audio.Profile = "US_English"
	custom.Audio.Segmenter = "ina"
	custom.Paths.DataDir = filepath.Join(tempDir, "data")

	encoded, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("unexpected api key: %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.Audio.Profile != "us_english" || cfg.Audio.Segmenter != "ina" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")
	os.Unsetenv("TMDB_API_KEY")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TMDB_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.TMDB.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"profile", func(c *config.Config) { c.Audio.Profile = "klingon" }, "audio.profile"},
		{"segmenter", func(c *config.Config) { c.Audio.Segmenter = "magic" }, "audio.segmenter"},
		{"transcriber", func(c *config.Config) { c.Audio.Transcriber = "google" }, "audio.transcriber"},
		{"frame rate", func(c *config.Config) { c.Vision.FrameRate = -1 }, "vision.frame_rate"},
		{"jaro", func(c *config.Config) { c.Subtitles.JaroWinklerThreshold = 1.5 }, "subtitles.jaro_winkler_threshold"},
		{"storage", func(c *config.Config) { c.Storage.Enabled = true }, "storage.bucket"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRequireLLMRejectsMalformedOpenAIKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "not-a-key"
	if err := cfg.RequireLLM(); err == nil {
		t.Fatal("expected malformed key to be rejected")
	}
	cfg.LLM.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	if err := cfg.RequireLLM(); err != nil {
		t.Fatalf("non-OpenAI endpoints accept any key: %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
