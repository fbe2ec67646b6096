package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clippa/internal/config"
	"clippa/internal/downloader"
	"clippa/internal/jobid"
	"clippa/internal/jobs"
	"clippa/internal/logging"
	"clippa/internal/notify"
	"clippa/internal/services"
	"clippa/internal/storage"
)

// State is a step of the per-job state machine.
type State string

const (
	StateCreated            State = "created"
	StateExtracting         State = "extracting"
	StateAdjustingSubtitles State = "adjusting_subtitles"
	StateTranscoding        State = "transcoding"
	StateFinalizing         State = "finalizing"
	StateReady              State = "ready"
	StateError              State = "error"
)

// ErrShuttingDown is returned by Submit once Wait has been called.
var ErrShuttingDown = errors.New("pipeline is shutting down")

// Extractor fetches the requested section of a source video.
type Extractor interface {
	Extract(ctx context.Context, req downloader.Request) error
}

// Transcoder converts the extracted section into the final clip.
type Transcoder interface {
	Transcode(ctx context.Context, input, output, subtitlePath string) error
}

// Options holds the read-only settings shared by every job.
type Options struct {
	WorkDir             string
	SubtitleLanguage    string
	SharedCookiesPath   string
	FallbackCookiesPath string
	// MaxConcurrent caps running jobs. Zero means unlimited.
	MaxConcurrent int
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WorkDir:             cfg.Paths.WorkDir,
		SubtitleLanguage:    cfg.Extraction.SubtitleLanguage,
		SharedCookiesPath:   cfg.Extraction.SharedCookiesPath,
		FallbackCookiesPath: cfg.Extraction.FallbackCookiesPath,
		MaxConcurrent:       cfg.Workflow.MaxConcurrentJobs,
	}
}

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Store      jobs.Store
	Objects    storage.ObjectStore
	Notifier   notify.Notifier
	Extractor  Extractor
	Transcoder Transcoder
	Logger     *slog.Logger
	// NewID defaults to jobid.New.
	NewID func() string
	// OnState observes every state transition. Optional.
	OnState func(id string, state State)
}

// Pipeline accepts clip requests and runs each one to a terminal state.
type Pipeline struct {
	opts Options
	deps Deps

	logger *slog.Logger
	slots  chan struct{}

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// New builds a Pipeline. Store, Objects, Extractor and Transcoder are
// required.
func New(opts Options, deps Deps) (*Pipeline, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: job store is required", services.ErrConfiguration)
	case deps.Objects == nil:
		return nil, fmt.Errorf("%w: object store is required", services.ErrConfiguration)
	case deps.Extractor == nil || deps.Transcoder == nil:
		return nil, fmt.Errorf("%w: extractor and transcoder are required", services.ErrConfiguration)
	case opts.WorkDir == "":
		return nil, fmt.Errorf("%w: work directory is required", services.ErrConfiguration)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Noop{}
	}
	if deps.NewID == nil {
		deps.NewID = jobid.New
	}
	if opts.SubtitleLanguage == "" {
		opts.SubtitleLanguage = "en"
	}
	p := &Pipeline{
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
	}
	if opts.MaxConcurrent > 0 {
		p.slots = make(chan struct{}, opts.MaxConcurrent)
	}
	return p, nil
}

// Submit validates req, records a processing job, and starts the job in the
// background. It returns once the record exists. Validation failures wrap
// services.ErrValidation and store failures wrap services.ErrJobCreation.
func (p *Pipeline) Submit(ctx context.Context, req Request) (string, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return "", services.Wrap(services.ErrJobCreation, "created", "submit", "", ErrShuttingDown)
	}
	p.wg.Add(1)
	p.mu.Unlock()

	id := p.deps.NewID()
	now := time.Now().UTC()
	job := jobs.Job{
		ID:        id,
		OwnerID:   req.UserID,
		Status:    jobs.StatusProcessing,
		SourceURL: req.URL,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subtitles: req.Subtitles,
		FormatID:  req.FormatID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.deps.Store.Insert(ctx, job); err != nil {
		p.wg.Done()
		logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "failed to create job record", "job_create_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check job store connectivity"),
		)
		return "", services.Wrap(services.ErrJobCreation, "created", "insert job", "", err)
	}
	p.transition(id, StateCreated)

	// The job outlives the request that created it but keeps its values.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.wg.Done()
		p.acquire()
		defer p.release()
		p.Run(runCtx, id, req)
	}()
	return id, nil
}

// Wait blocks new submissions and waits for in-flight jobs, or until ctx is
// done.
func (p *Pipeline) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire waits for a run slot. A queued job is already acknowledged.
func (p *Pipeline) acquire() {
	if p.slots != nil {
		p.slots <- struct{}{}
	}
}

func (p *Pipeline) release() {
	if p.slots != nil {
		<-p.slots
	}
}

func (p *Pipeline) transition(id string, state State) {
	if p.deps.OnState != nil {
		p.deps.OnState(id, state)
	}
}
