package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// API contains HTTP listener configuration.
type API struct {
	Bind          string `toml:"bind"`
	AllowedOrigin string `toml:"allowed_origin"`
}

// Tools names the external executables the pipeline drives.
type Tools struct {
	Downloader string `toml:"downloader"`
	Transcoder string `toml:"transcoder"`
}

// Extraction configures the downloader invocation.
type Extraction struct {
	DefaultFormat       string   `toml:"default_format"`
	SubtitleLanguage    string   `toml:"subtitle_language"`
	SubtitleFormat      string   `toml:"subtitle_format"`
	Headers             []string `toml:"headers"`
	SharedCookiesPath   string   `toml:"shared_cookies_path"`
	FallbackCookiesPath string   `toml:"fallback_cookies_path"`
}

// Transcode configures the transcoder invocation and its runtime budget.
type Transcode struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	VideoCodec     string `toml:"video_codec"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	MaxRate        string `toml:"max_rate"`
	BufSize        string `toml:"buf_size"`
	AudioCodec     string `toml:"audio_codec"`
	AudioBitrate   string `toml:"audio_bitrate"`
}

// Storage configures where finished clips are uploaded.
type Storage struct {
	Backend       string `toml:"backend"`
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	Profile       string `toml:"profile"`
	UsePathStyle  bool   `toml:"use_path_style"`
	PublicBaseURL string `toml:"public_base_url"`
	LocalDir      string `toml:"local_dir"`
}

// Store configures the job-record backend.
type Store struct {
	Backend        string `toml:"backend"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
}

// Notifications configures job lifecycle events published to Kafka.
type Notifications struct {
	KafkaBrokers   []string `toml:"kafka_brokers"`
	KafkaTopic     string   `toml:"kafka_topic"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Workflow contains pipeline scheduling knobs.
type Workflow struct {
	MaxConcurrentJobs      int `toml:"max_concurrent_jobs"`
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for clippa.
//
// Configuration sections by subsystem:
//   - Paths: temporary artifact, database, and log directories
//   - API: HTTP bind address and CORS origin
//   - Tools: downloader and transcoder executables
//   - Extraction: format selector, subtitle language, headers, cookies
//   - Transcode: encoder settings and the hard runtime budget
//   - Storage: object storage backend for finished clips
//   - Store: job-record backend (sqlite or redis)
//   - Notifications: Kafka job events
//   - Workflow: concurrency and shutdown
//   - Logging: log format, level, and file
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Tools         Tools         `toml:"tools"`
	Extraction    Extraction    `toml:"extraction"`
	Transcode     Transcode     `toml:"transcode"`
	Storage       Storage       `toml:"storage"`
	Store         Store         `toml:"store"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clippa/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// Variables already present in the environment win over .env entries.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clippa.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server and CLI write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.DataDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobDBPath returns the SQLite job database location.
func (c *Config) JobDBPath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "clippa.lock")
}

// TranscodeTimeout returns the hard wall-clock budget for one transcoder run.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Transcode.TimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds how long serve waits for in-flight jobs on exit.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Workflow.ShutdownTimeoutSeconds) * time.Second
}

// NotificationTimeout bounds one Kafka publish.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.TimeoutSeconds) * time.Second
}

// KafkaEnabled reports whether job events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.Notifications.KafkaBrokers) > 0 && strings.TrimSpace(c.Notifications.KafkaTopic) != ""
}

// CreateSample writes a sample configuration file to the provided path.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// Encode renders the config back to TOML, used by `config show`.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
