// Package transcoder runs the transcoding stage: burn re-timed subtitles into
// the extracted clip, or copy its video stream and normalize audio, always
// producing a fast-start MP4 under a hard wall-clock budget.
package transcoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clippa/internal/config"
	"clippa/internal/logging"
	"clippa/internal/media"
	"clippa/internal/services"
)

// Settings controls the transcoder invocation.
type Settings struct {
	Binary       string
	Timeout      time.Duration
	VideoCodec   string
	Preset       string
	CRF          int
	MaxRate      string
	BufSize      string
	AudioCodec   string
	AudioBitrate string
}

// SettingsFromConfig derives Settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Binary:       cfg.Tools.Transcoder,
		Timeout:      cfg.TranscodeTimeout(),
		VideoCodec:   cfg.Transcode.VideoCodec,
		Preset:       cfg.Transcode.Preset,
		CRF:          cfg.Transcode.CRF,
		MaxRate:      cfg.Transcode.MaxRate,
		BufSize:      cfg.Transcode.BufSize,
		AudioCodec:   cfg.Transcode.AudioCodec,
		AudioBitrate: cfg.Transcode.AudioBitrate,
	}
}

// BuildArgs renders the transcoder argument list. With a subtitle path the
// video is re-encoded with the subtitles composited in; without one the video
// stream is copied. Audio is always re-encoded.
func BuildArgs(input, output, subtitlePath string, s Settings) []string {
	kwargs := ffmpeg.KwArgs{
		"c:a":      s.AudioCodec,
		"b:a":      s.AudioBitrate,
		"movflags": "+faststart",
	}
	if subtitlePath != "" {
		kwargs["vf"] = "subtitles=" + escapeFilterPath(subtitlePath)
		kwargs["c:v"] = s.VideoCodec
		kwargs["preset"] = s.Preset
		kwargs["crf"] = s.CRF
		kwargs["maxrate"] = s.MaxRate
		kwargs["bufsize"] = s.BufSize
	} else {
		kwargs["c:v"] = "copy"
	}
	return ffmpeg.Input(input).Output(output, kwargs).OverWriteOutput().GetArgs()
}

// escapeFilterPath quotes characters the filtergraph parser treats as
// separators inside a filter argument.
func escapeFilterPath(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`, `[`, `\[`, `]`, `\]`)
	return r.Replace(path)
}

// Transcoder runs the transcoder tool.
type Transcoder struct {
	settings Settings
	runner   media.Runner
	logger   *slog.Logger
}

// New constructs a Transcoder. A nil runner uses media.ExecRunner.
func New(settings Settings, runner media.Runner, logger *slog.Logger) *Transcoder {
	if runner == nil {
		runner = media.ExecRunner{}
	}
	return &Transcoder{
		settings: settings,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "transcoder"),
	}
}

// Transcode converts input into output. subtitlePath selects burn mode when
// non-empty. The run is killed once Settings.Timeout elapses and the error
// then wraps services.ErrTranscodeTimeout; every other failure wraps
// services.ErrTranscodeFailed.
func (t *Transcoder) Transcode(ctx context.Context, input, output, subtitlePath string) error {
	logger := logging.WithContext(ctx, t.logger)
	args := BuildArgs(input, output, subtitlePath, t.settings)
	mode := "copy video"
	if subtitlePath != "" {
		mode = "burn subtitles"
	}
	logger.Info("starting transcoder",
		logging.String(logging.FieldEventType, "transcode_start"),
		logging.String("mode", mode),
		logging.Duration("timeout", t.settings.Timeout),
	)
	logger.Debug("transcoder arguments", logging.String("args", strings.Join(args, " ")))

	runCtx := ctx
	if t.settings.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.settings.Timeout)
		defer cancel()
	}

	tool := t.settings.Binary
	started := time.Now()
	err := t.runner.Run(runCtx, t.settings.Binary, args, func(line string) {
		logger.Debug(line, logging.String("tool", tool))
	})
	if err == nil {
		logger.Info("transcoder finished",
			logging.String(logging.FieldEventType, "transcode_complete"),
			logging.Duration("elapsed", time.Since(started)),
		)
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		logging.WarnWithContext(logger, "transcoder timed out and was killed", "transcode_timeout",
			logging.Duration("timeout", t.settings.Timeout),
			logging.String(logging.FieldErrorHint, "raise transcode.timeout_seconds or lower output quality"),
			logging.String(logging.FieldImpact, "job fails"),
		)
		return services.Wrap(services.ErrTranscodeTimeout, "transcoding", tool,
			fmt.Sprintf("killed after %s", t.settings.Timeout), err)
	}
	return services.Wrap(services.ErrTranscodeFailed, "transcoding", tool, "", err)
}
