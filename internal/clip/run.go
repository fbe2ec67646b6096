package clip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clippa/internal/downloader"
	"clippa/internal/fileutil"
	"clippa/internal/jobs"
	"clippa/internal/logging"
	"clippa/internal/services"
	"clippa/internal/subtitles"
)

// Run executes job id to a terminal state and returns the outcome it
// reported. Finalization runs on every exit path, including a panic in a
// stage.
func (p *Pipeline) Run(ctx context.Context, id string, req Request) (outcome jobs.Outcome) {
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldUserID, req.UserID))
	paths := PathsFor(p.opts.WorkDir, id, p.opts.SubtitleLanguage)
	started := time.Now()

	var stageErr error
	defer func() {
		if r := recover(); r != nil {
			stageErr = fmt.Errorf("pipeline panic: %v", r)
			logging.ErrorWithContext(logger, "pipeline stage panicked", "pipeline_panic", logging.Any("panic", r))
		}
		outcome = p.finalize(ctx, logger, id, req, paths, stageErr)
		logger.Info("job finished",
			logging.String(logging.FieldEventType, "job_complete"),
			logging.String("status", string(outcome.Status)),
			logging.Duration("elapsed", time.Since(started)),
		)
	}()

	stageErr = p.process(ctx, logger, id, req, paths)
	return outcome
}

// process runs the sequential stages. The first failure stops it.
func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, id string, req Request, paths Paths) error {
	err := p.stage(ctx, logger, id, StateExtracting, func(ctx context.Context) error {
		cookies, staged, err := downloader.StageCredentials(p.opts.SharedCookiesPath, p.opts.FallbackCookiesPath, paths.Cookies)
		if err != nil {
			return services.Wrap(services.ErrExtractionFailed, string(StateExtracting), "stage credentials", "", err)
		}
		if staged {
			logger.Debug("staged credential copy", logging.String("path", cookies))
		}
		return p.deps.Extractor.Extract(ctx, downloader.Request{
			URL:         req.URL,
			Start:       req.StartTime,
			End:         req.EndTime,
			FormatID:    req.FormatID,
			Subtitles:   req.Subtitles,
			OutputPath:  paths.Raw,
			CookiesPath: cookies,
		})
	})
	if err != nil {
		return err
	}

	subtitlePath := ""
	if req.Subtitles {
		if fileutil.Exists(paths.Subtitle) {
			err := p.stage(ctx, logger, id, StateAdjustingSubtitles, func(ctx context.Context) error {
				summary, err := subtitles.AdjustFile(ctx, paths.Subtitle, req.Offset(), paths.Adjusted)
				if err != nil {
					return err
				}
				logger.Debug("subtitle track re-timed",
					logging.Int("cues", summary.Cues),
					logging.Int("shifted", summary.Shifted),
				)
				return nil
			})
			if err != nil {
				return err
			}
			subtitlePath = paths.Subtitle
		} else {
			logging.WarnWithContext(logger, "subtitles requested but no track was downloaded", "subtitles_missing",
				logging.String(logging.FieldErrorHint, "the source may not offer the configured subtitle language"),
				logging.String(logging.FieldImpact, "clip is produced without subtitles"),
			)
		}
	}

	return p.stage(ctx, logger, id, StateTranscoding, func(ctx context.Context) error {
		return p.deps.Transcoder.Transcode(ctx, paths.Raw, paths.Fast, subtitlePath)
	})
}

func (p *Pipeline) stage(ctx context.Context, logger *slog.Logger, id string, state State, fn func(context.Context) error) error {
	p.transition(id, state)
	stageCtx := services.WithStage(ctx, string(state))
	stageLogger := logger.With(logging.String(logging.FieldStage, string(state)))
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()
	if err := fn(stageCtx); err != nil {
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
