package config

const (
	// StorageS3 uploads clips to an S3-compatible bucket.
	StorageS3 = "s3"
	// StorageLocal copies clips into a local directory (development).
	StorageLocal = "local"

	// StoreSQLite keeps job records in the local SQLite database.
	StoreSQLite = "sqlite"
	// StoreRedis keeps job records in Redis hashes.
	StoreRedis = "redis"
)

const (
	defaultWorkDir             = "~/.local/share/clippa/uploads"
	defaultDataDir             = "~/.local/share/clippa"
	defaultLogDir              = "~/.local/share/clippa/logs"
	defaultLocalStorageDir     = "~/.local/share/clippa/public"
	defaultAPIBind             = ":3001"
	defaultProductionOrigin    = "https://clippa.in"
	defaultDevelopmentOrigin   = "http://localhost:3000"
	defaultDownloader          = "yt-dlp"
	defaultTranscoder          = "ffmpeg"
	defaultFormatSelector      = "bv[ext=mp4][vcodec^=avc1][height<=?1080][fps<=?60]+ba[ext=m4a]/best[ext=mp4][vcodec^=avc1][height<=?1080]"
	defaultSubtitleLanguage    = "en"
	defaultSubtitleFormat      = "vtt"
	defaultSharedCookiesPath   = "/etc/secrets/cookies.txt"
	defaultFallbackCookiesPath = "~/.config/clippa/cookies.txt"
	defaultTranscodeTimeout    = 300
	defaultVideoCodec          = "libx264"
	defaultPreset              = "ultrafast"
	defaultCRF                 = 28
	defaultMaxRate             = "2M"
	defaultBufSize             = "4M"
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "128k"
	defaultBucket              = "videos"
	defaultRedisAddr           = "localhost:6379"
	defaultRedisKeyPrefix      = "clippa:jobs"
	defaultKafkaTimeout        = 10
	defaultShutdownTimeout     = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultHeaders = []string{"referer:youtube.com", "user-agent:Mozilla/5.0"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Tools: Tools{
			Downloader: defaultDownloader,
			Transcoder: defaultTranscoder,
		},
		Extraction: Extraction{
			DefaultFormat:       defaultFormatSelector,
			SubtitleLanguage:    defaultSubtitleLanguage,
			SubtitleFormat:      defaultSubtitleFormat,
			Headers:             append([]string(nil), defaultHeaders...),
			SharedCookiesPath:   defaultSharedCookiesPath,
			FallbackCookiesPath: defaultFallbackCookiesPath,
		},
		Transcode: Transcode{
			TimeoutSeconds: defaultTranscodeTimeout,
			VideoCodec:     defaultVideoCodec,
			Preset:         defaultPreset,
			CRF:            defaultCRF,
			MaxRate:        defaultMaxRate,
			BufSize:        defaultBufSize,
			AudioCodec:     defaultAudioCodec,
			AudioBitrate:   defaultAudioBitrate,
		},
		Storage: Storage{
			Backend:  StorageS3,
			LocalDir: defaultLocalStorageDir,
		},
		Store: Store{
			Backend:        StoreSQLite,
			RedisKeyPrefix: defaultRedisKeyPrefix,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultKafkaTimeout,
		},
		Workflow: Workflow{
			ShutdownTimeoutSeconds: defaultShutdownTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
