package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeTools()
	if err := c.normalizeExtraction(); err != nil {
		return err
	}
	c.normalizeTranscode()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
			c.API.Bind = ":" + strings.TrimSpace(port)
		} else {
			c.API.Bind = defaultAPIBind
		}
	}
	c.API.AllowedOrigin = strings.TrimSpace(c.API.AllowedOrigin)
	if c.API.AllowedOrigin == "" {
		if value, ok := os.LookupEnv("ALLOWED_ORIGIN"); ok && strings.TrimSpace(value) != "" {
			c.API.AllowedOrigin = strings.TrimSpace(value)
		} else if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
			c.API.AllowedOrigin = defaultProductionOrigin
		} else {
			c.API.AllowedOrigin = defaultDevelopmentOrigin
		}
	}
}

func (c *Config) normalizeTools() {
	c.Tools.Downloader = strings.TrimSpace(c.Tools.Downloader)
	if c.Tools.Downloader == "" {
		c.Tools.Downloader = defaultDownloader
	}
	c.Tools.Transcoder = strings.TrimSpace(c.Tools.Transcoder)
	if c.Tools.Transcoder == "" {
		c.Tools.Transcoder = defaultTranscoder
	}
}

func (c *Config) normalizeExtraction() error {
	c.Extraction.DefaultFormat = strings.TrimSpace(c.Extraction.DefaultFormat)
	if c.Extraction.DefaultFormat == "" {
		c.Extraction.DefaultFormat = defaultFormatSelector
	}

	lang := strings.TrimSpace(c.Extraction.SubtitleLanguage)
	if lang == "" {
		lang = defaultSubtitleLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("extraction.subtitle_language: %q is not a valid language tag: %w", lang, err)
	}
	c.Extraction.SubtitleLanguage = tag.String()

	c.Extraction.SubtitleFormat = strings.ToLower(strings.TrimSpace(c.Extraction.SubtitleFormat))
	if c.Extraction.SubtitleFormat == "" {
		c.Extraction.SubtitleFormat = defaultSubtitleFormat
	}

	headers := make([]string, 0, len(c.Extraction.Headers))
	for _, header := range c.Extraction.Headers {
		if trimmed := strings.TrimSpace(header); trimmed != "" {
			headers = append(headers, trimmed)
		}
	}
	c.Extraction.Headers = headers

	if c.Extraction.SharedCookiesPath, err = expandPath(strings.TrimSpace(c.Extraction.SharedCookiesPath)); err != nil {
		return fmt.Errorf("extraction.shared_cookies_path: %w", err)
	}
	if c.Extraction.FallbackCookiesPath, err = expandPath(strings.TrimSpace(c.Extraction.FallbackCookiesPath)); err != nil {
		return fmt.Errorf("extraction.fallback_cookies_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscode() {
	if c.Transcode.TimeoutSeconds <= 0 {
		c.Transcode.TimeoutSeconds = defaultTranscodeTimeout
	}
	c.Transcode.VideoCodec = valueOr(c.Transcode.VideoCodec, defaultVideoCodec)
	c.Transcode.Preset = valueOr(c.Transcode.Preset, defaultPreset)
	c.Transcode.MaxRate = valueOr(c.Transcode.MaxRate, defaultMaxRate)
	c.Transcode.BufSize = valueOr(c.Transcode.BufSize, defaultBufSize)
	c.Transcode.AudioCodec = valueOr(c.Transcode.AudioCodec, defaultAudioCodec)
	c.Transcode.AudioBitrate = valueOr(c.Transcode.AudioBitrate, defaultAudioBitrate)
	if c.Transcode.CRF == 0 {
		c.Transcode.CRF = defaultCRF
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageS3
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		if value, ok := os.LookupEnv("CLIPPA_BUCKET"); ok && strings.TrimSpace(value) != "" {
			c.Storage.Bucket = strings.TrimSpace(value)
		} else {
			c.Storage.Bucket = defaultBucket
		}
	}
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		c.Storage.Region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	}
	c.Storage.Endpoint = strings.TrimRight(strings.TrimSpace(c.Storage.Endpoint), "/")
	c.Storage.Profile = strings.TrimSpace(c.Storage.Profile)
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")

	var err error
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultLocalStorageDir
	}
	if c.Storage.LocalDir, err = expandPath(strings.TrimSpace(c.Storage.LocalDir)); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = StoreSQLite
	}
	c.Store.RedisAddr = strings.TrimSpace(c.Store.RedisAddr)
	if c.Store.RedisAddr == "" {
		if value, ok := os.LookupEnv("REDIS_ADDR"); ok && strings.TrimSpace(value) != "" {
			c.Store.RedisAddr = strings.TrimSpace(value)
		} else {
			c.Store.RedisAddr = defaultRedisAddr
		}
	}
	if c.Store.RedisPassword == "" {
		if value, ok := os.LookupEnv("REDIS_PASS"); ok {
			c.Store.RedisPassword = value
		}
	}
	c.Store.RedisKeyPrefix = strings.Trim(strings.TrimSpace(c.Store.RedisKeyPrefix), ":")
	if c.Store.RedisKeyPrefix == "" {
		c.Store.RedisKeyPrefix = defaultRedisKeyPrefix
	}
}

func (c *Config) normalizeNotifications() {
	if len(c.Notifications.KafkaBrokers) == 0 {
		if value, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
			c.Notifications.KafkaBrokers = strings.Split(value, ",")
		}
	}
	brokers := make([]string, 0, len(c.Notifications.KafkaBrokers))
	for _, broker := range c.Notifications.KafkaBrokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	c.Notifications.KafkaBrokers = brokers
	c.Notifications.KafkaTopic = strings.TrimSpace(c.Notifications.KafkaTopic)
	if c.Notifications.TimeoutSeconds <= 0 {
		c.Notifications.TimeoutSeconds = defaultKafkaTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
