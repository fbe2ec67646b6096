package clip

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"clippa/internal/fileutil"
	"clippa/internal/jobs"
	"clippa/internal/logging"
	"clippa/internal/services"
	"clippa/internal/storage"
)

// finalize cleans up, uploads on success, and reports the single terminal
// outcome. Cleanup failures are logged and never change the outcome. The
// report happens even when a cleanup or upload step panics.
func (p *Pipeline) finalize(ctx context.Context, logger *slog.Logger, id string, req Request, paths Paths, stageErr error) jobs.Outcome {
	p.transition(id, StateFinalizing)
	ctx = services.WithStage(ctx, string(StateFinalizing))
	logger = logger.With(logging.String(logging.FieldStage, string(StateFinalizing)))

	outcome := p.settle(ctx, logger, id, paths, stageErr)

	// 6. Terminal report.
	p.report(ctx, logger, id, req, outcome)
	if outcome.Status == jobs.StatusReady {
		p.transition(id, StateReady)
	} else {
		p.transition(id, StateError)
	}
	return outcome
}

// settle runs finalization steps 1 to 5 and returns the outcome to report.
// A panic is converted into an error outcome: UploadFailed when it happened
// during the upload, Unknown otherwise.
func (p *Pipeline) settle(ctx context.Context, logger *slog.Logger, id string, paths Paths, stageErr error) (outcome jobs.Outcome) {
	uploading := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("pipeline panic: %v", r)
		if uploading {
			err = services.Wrap(services.ErrUploadFailed, string(StateFinalizing), "upload", ObjectKey(id), err)
		}
		logging.ErrorWithContext(logger, "finalization panicked", "pipeline_panic", logging.Any("panic", r))
		outcome = jobs.Failed(services.Kind(err), services.Message(err))
		p.sweep(logger, paths)
	}()

	// 1. Drop the raw extraction and promote the transcoder output.
	p.remove(logger, paths.Raw)
	if stageErr == nil {
		if err := os.Rename(paths.Fast, paths.Raw); err != nil {
			stageErr = services.Wrap(services.ErrTranscodeFailed, string(StateFinalizing), "promote output", "", err)
		}
	}
	p.remove(logger, paths.Fast)

	// 2. Subtitle tracks and the re-timed scratch file.
	p.remove(logger, paths.Subtitle)
	p.remove(logger, paths.Adjusted)

	// 3. Upload.
	if stageErr == nil {
		key := ObjectKey(id)
		uploading = true
		err := p.upload(ctx, paths.Raw, key)
		uploading = false
		if err != nil {
			stageErr = services.Wrap(services.ErrUploadFailed, string(StateFinalizing), "upload", key, err)
		} else {
			outcome = jobs.Ready(key, p.deps.Objects.PublicURL(key))
		}
	}
	if stageErr != nil {
		outcome = jobs.Failed(services.Kind(stageErr), services.Message(stageErr))
	}

	// 4. Canonical output. 5. Staged credentials.
	p.sweep(logger, paths)
	return outcome
}

// sweep removes every file the job may have left under its names. Panics are
// swallowed so a broken cleanup never blocks the terminal report.
func (p *Pipeline) sweep(logger *slog.Logger, paths Paths) {
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(logger, "cleanup panicked", "cleanup_failed",
				logging.Any("panic", r),
				logging.String(logging.FieldImpact, "temporary files may be left on disk"),
			)
		}
	}()
	p.remove(logger, paths.Raw)
	p.remove(logger, paths.Cookies)
	for _, path := range paths.leftovers() {
		p.remove(logger, path)
	}
}

func (p *Pipeline) upload(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat clip: %w", err)
	}
	return p.deps.Objects.Upload(ctx, key, f, info.Size(), storage.ContentTypeMP4)
}

func (p *Pipeline) remove(logger *slog.Logger, path string) {
	if err := fileutil.RemoveIfExists(path); err != nil {
		logging.WarnWithContext(logger, "failed to remove temporary file", "cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check work directory permissions"),
			logging.String(logging.FieldImpact, "temporary file left on disk"),
		)
	}
}

func (p *Pipeline) report(ctx context.Context, logger *slog.Logger, id string, req Request, outcome jobs.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "terminal status report panicked", "status_report_failed",
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "check job store and notifier"),
			)
		}
	}()
	attrs := []logging.Attr{
		logging.String("status", string(outcome.Status)),
	}
	if outcome.Status == jobs.StatusReady {
		attrs = append(attrs,
			logging.String("storage_path", outcome.StoragePath),
			logging.String("public_url", outcome.PublicURL),
		)
	} else {
		attrs = append(attrs,
			logging.String(logging.FieldErrorKind, outcome.ErrorKind),
			logging.String("error_message", outcome.ErrorMessage),
		)
	}

	if err := p.deps.Store.Update(ctx, id, outcome); err != nil {
		wrapped := services.Wrap(services.ErrStatusReport, string(StateFinalizing), "update job", "", err)
		logging.ErrorWithContext(logger, "failed to report terminal status", "status_report_failed",
			append(attrs,
				logging.Error(wrapped),
				logging.String(logging.FieldErrorHint, "check job store connectivity"),
			)...,
		)
		return
	}
	logger.Info("terminal status reported", logging.Args(append(attrs, logging.String(logging.FieldEventType, "status_reported"))...)...)

	job := jobs.Job{
		ID:           id,
		OwnerID:      req.UserID,
		Status:       outcome.Status,
		StoragePath:  outcome.StoragePath,
		PublicURL:    outcome.PublicURL,
		ErrorMessage: outcome.ErrorMessage,
		ErrorKind:    outcome.ErrorKind,
		SourceURL:    req.URL,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Subtitles:    req.Subtitles,
		FormatID:     req.FormatID,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := p.deps.Notifier.JobFinished(ctx, job); err != nil {
		logging.WarnWithContext(logger, "failed to publish job event", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check kafka brokers"),
			logging.String(logging.FieldImpact, "event consumers miss this job"),
		)
	}
}
