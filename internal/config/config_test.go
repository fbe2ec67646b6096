package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"clippa/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "ALLOWED_ORIGIN", "APP_ENV", "CLIPPA_BUCKET", "REDIS_ADDR", "REDIS_PASS", "KAFKA_BROKERS", "AWS_REGION"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
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

	wantWork := filepath.Join(tempHome, ".local", "share", "clippa", "uploads")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.API.Bind != ":3001" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.API.AllowedOrigin != "http://localhost:3000" {
		t.Fatalf("unexpected allowed origin: %q", cfg.API.AllowedOrigin)
	}
	if cfg.Storage.Bucket != "videos" {
		t.Fatalf("unexpected bucket: %q", cfg.Storage.Bucket)
	}
	if cfg.Storage.Backend != config.StorageS3 {
		t.Fatalf("unexpected storage backend: %q", cfg.Storage.Backend)
	}
	if cfg.Store.Backend != config.StoreSQLite {
		t.Fatalf("unexpected store backend: %q", cfg.Store.Backend)
	}
	if cfg.TranscodeTimeout() != 300*time.Second {
		t.Fatalf("unexpected transcode timeout: %s", cfg.TranscodeTimeout())
	}
	if cfg.Extraction.SubtitleLanguage != "en" {
		t.Fatalf("unexpected subtitle language: %q", cfg.Extraction.SubtitleLanguage)
	}
	if len(cfg.Extraction.Headers) != 2 {
		t.Fatalf("expected default headers, got %v", cfg.Extraction.Headers)
	}
	if cfg.KafkaEnabled() {
		t.Fatal("expected kafka disabled by default")
	}
	if cfg.JobDBPath() != filepath.Join(tempHome, ".local", "share", "clippa", "jobs.db") {
		t.Fatalf("unexpected job db path: %q", cfg.JobDBPath())
	}
}

func TestLoadAppliesEnvironmentFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CLIPPA_BUCKET", "clips")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.Bind != ":8080" {
		t.Fatalf("expected bind from PORT, got %q", cfg.API.Bind)
	}
	if cfg.API.AllowedOrigin != "https://clippa.in" {
		t.Fatalf("expected production origin, got %q", cfg.API.AllowedOrigin)
	}
	if cfg.Storage.Bucket != "clips" {
		t.Fatalf("expected bucket from env, got %q", cfg.Storage.Bucket)
	}
	if got := strings.Join(cfg.Notifications.KafkaBrokers, ","); got != "k1:9092,k2:9092" {
		t.Fatalf("unexpected brokers: %q", got)
	}
}

func TestLoadCustomFile(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "custom.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"work_dir": "~/scratch",
		},
		"api": map[string]any{
			"bind":           "127.0.0.1:9000",
			"allowed_origin": "https://example.test",
		},
		"transcode": map[string]any{
			"timeout_seconds": 45,
			"crf":             23,
		},
		"storage": map[string]any{
			"backend":   "local",
			"local_dir": "~/public",
		},
		"notifications": map[string]any{
			"kafka_brokers": []string{"localhost:9092"},
			"kafka_topic":   "clip-events",
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.API.Bind != "127.0.0.1:9000" || cfg.API.AllowedOrigin != "https://example.test" {
		t.Fatalf("unexpected api section: %+v", cfg.API)
	}
	if cfg.TranscodeTimeout() != 45*time.Second || cfg.Transcode.CRF != 23 {
		t.Fatalf("unexpected transcode section: %+v", cfg.Transcode)
	}
	if cfg.Transcode.Preset != "ultrafast" {
		t.Fatalf("expected preset default to be retained, got %q", cfg.Transcode.Preset)
	}
	if cfg.Storage.Backend != config.StorageLocal || cfg.Storage.LocalDir != filepath.Join(tempHome, "public") {
		t.Fatalf("unexpected storage section: %+v", cfg.Storage)
	}
	if !cfg.KafkaEnabled() {
		t.Fatal("expected kafka enabled")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lower-cased logging values, got %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.DataDir, cfg.Storage.LocalDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"storage backend", func(c *config.Config) { c.Storage.Backend = "gcs" }, "storage.backend"},
		{"store backend", func(c *config.Config) { c.Store.Backend = "mongo" }, "store.backend"},
		{"timeout", func(c *config.Config) { c.Transcode.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"crf", func(c *config.Config) { c.Transcode.CRF = 60 }, "crf"},
		{"subtitle format", func(c *config.Config) { c.Extraction.SubtitleFormat = "srt" }, "subtitle_format"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"concurrency", func(c *config.Config) { c.Workflow.MaxConcurrentJobs = -1 }, "max_concurrent_jobs"},
		{"redis addr", func(c *config.Config) {
			c.Store.Backend = config.StoreRedis
			c.Store.RedisAddr = ""
		}, "redis_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Bucket = "videos"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsInvalidSubtitleLanguage(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(configPath, []byte("[extraction]\nsubtitle_language = \"not a tag\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected invalid language tag to be rejected")
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected second CreateSample to refuse overwrite")
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Transcode.VideoCodec != "libx264" {
		t.Fatalf("unexpected codec from sample: %q", cfg.Transcode.VideoCodec)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !strings.Contains(encoded, "[transcode]") {
		t.Fatalf("expected encoded config to contain transcode section, got:\n%s", encoded)
	}
}
