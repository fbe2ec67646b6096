// Package downloader runs the extraction stage: it asks the downloader tool
// (yt-dlp) for just the requested time section of a source video, plus its
// subtitle track when requested.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"clippa/internal/config"
	"clippa/internal/fileutil"
	"clippa/internal/logging"
	"clippa/internal/media"
	"clippa/internal/services"
	"clippa/internal/timecode"
)

// Settings controls the downloader invocation.
type Settings struct {
	Binary           string
	DefaultFormat    string
	SubtitleLanguage string
	SubtitleFormat   string
	Headers          []string
}

// SettingsFromConfig derives Settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Binary:           cfg.Tools.Downloader,
		DefaultFormat:    cfg.Extraction.DefaultFormat,
		SubtitleLanguage: cfg.Extraction.SubtitleLanguage,
		SubtitleFormat:   cfg.Extraction.SubtitleFormat,
		Headers:          append([]string(nil), cfg.Extraction.Headers...),
	}
}

// Request describes one extraction.
type Request struct {
	URL         string
	Start       string
	End         string
	FormatID    string
	Subtitles   bool
	OutputPath  string
	CookiesPath string
}

// BuildArgs renders the downloader argument list for req.
func BuildArgs(s Settings, req Request) []string {
	format := strings.TrimSpace(req.FormatID)
	if format == "" {
		format = s.DefaultFormat
	}
	args := []string{
		req.URL,
		"-f", format,
		"--download-sections", timecode.Section(req.Start, req.End),
		"-o", req.OutputPath,
		"--merge-output-format", "mp4",
		"--no-check-certificates",
		"--no-warnings",
	}
	for _, header := range s.Headers {
		args = append(args, "--add-header", header)
	}
	args = append(args, "--verbose")
	if req.Subtitles {
		args = append(args,
			"--write-subs",
			"--write-auto-subs",
			"--sub-lang", s.SubtitleLanguage,
			"--sub-format", s.SubtitleFormat,
		)
	}
	if req.CookiesPath != "" {
		args = append(args, "--cookies", req.CookiesPath)
	}
	return args
}

// StageCredentials resolves the cookie file to hand the downloader. When the
// shared file exists it is copied to stagedPath and that copy is returned with
// staged=true; the caller owns and must delete it. Otherwise fallbackPath is
// returned if present, or "" when no credentials are available.
func StageCredentials(sharedPath, fallbackPath, stagedPath string) (path string, staged bool, err error) {
	if sharedPath != "" {
		info, statErr := os.Stat(sharedPath)
		switch {
		case statErr == nil && info.Mode().IsRegular():
			if err := fileutil.CopyFileMode(sharedPath, stagedPath, 0o600); err != nil {
				_ = fileutil.RemoveIfExists(stagedPath)
				return "", false, fmt.Errorf("stage credentials: %w", err)
			}
			return stagedPath, true, nil
		case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat shared credentials: %w", statErr)
		}
	}
	if fileutil.Exists(fallbackPath) {
		return fallbackPath, false, nil
	}
	return "", false, nil
}

// Extractor runs the downloader.
type Extractor struct {
	settings Settings
	runner   media.Runner
	logger   *slog.Logger
}

// New constructs an Extractor. A nil runner uses media.ExecRunner.
func New(settings Settings, runner media.Runner, logger *slog.Logger) *Extractor {
	if runner == nil {
		runner = media.ExecRunner{}
	}
	return &Extractor{
		settings: settings,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "downloader"),
	}
}

// Extract downloads the requested section to req.OutputPath. It makes a single
// attempt; any non-zero exit, signal, or spawn failure is returned wrapped in
// services.ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, req Request) error {
	logger := logging.WithContext(ctx, e.logger)
	args := BuildArgs(e.settings, req)
	logger.Info("starting downloader",
		logging.String(logging.FieldEventType, "extraction_start"),
		logging.String("section", timecode.Section(req.Start, req.End)),
		logging.Bool("subtitles", req.Subtitles),
		logging.Bool("cookies", req.CookiesPath != ""),
	)

	tool := e.settings.Binary
	err := e.runner.Run(ctx, e.settings.Binary, args, func(line string) {
		logger.Debug(line, logging.String("tool", tool))
	})
	if err != nil {
		return services.Wrap(services.ErrExtractionFailed, "extracting", "downloader", "", err)
	}
	if !fileutil.Exists(req.OutputPath) {
		return services.Wrap(services.ErrExtractionFailed, "extracting", "downloader", "no output file was written", nil)
	}
	return nil
}
