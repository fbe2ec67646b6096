package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"

	"clippa/internal/api"
	"clippa/internal/clip"
	"clippa/internal/config"
	"clippa/internal/downloader"
	"clippa/internal/jobs"
	"clippa/internal/logging"
	"clippa/internal/media"
	"clippa/internal/notify"
	"clippa/internal/preflight"
	"clippa/internal/storage"
	"clippa/internal/transcoder"
)

const orphanedMessage = "server restarted before the clip finished"

// Option overrides a collaborator, mainly for tests.
type Option func(*Server)

// WithRunner replaces the subprocess runner shared by both tools.
func WithRunner(r media.Runner) Option { return func(s *Server) { s.runner = r } }

// WithStore replaces the configured job store.
func WithStore(st jobs.Store) Option { return func(s *Server) { s.store = st } }

// WithObjects replaces the configured object store.
func WithObjects(o storage.ObjectStore) Option { return func(s *Server) { s.objects = o } }

// WithNotifier replaces the configured notifier.
func WithNotifier(n notify.Notifier) Option { return func(s *Server) { s.notifier = n } }

// Server owns every long-lived resource of a serving process.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	lock   *flock.Flock

	runner   media.Runner
	store    jobs.Store
	objects  storage.ObjectStore
	notifier notify.Notifier
	pipeline *clip.Pipeline

	httpServer *http.Server
	listener   net.Listener
}

// New acquires the instance lock and builds every collaborator.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "server"),
		lock:   flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(s)
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another clippa server already owns %s", cfg.Paths.DataDir)
	}

	if err := s.init(ctx, logger); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context, logger *slog.Logger) error {
	var err error
	if s.store == nil {
		if s.store, err = jobs.Open(ctx, s.cfg); err != nil {
			return fmt.Errorf("open job store: %w", err)
		}
	}
	if s.objects == nil {
		if s.objects, err = storage.Open(ctx, s.cfg); err != nil {
			return fmt.Errorf("open object storage: %w", err)
		}
	}
	if s.notifier == nil {
		if s.notifier, err = notify.New(s.cfg); err != nil {
			return fmt.Errorf("open notifier: %w", err)
		}
	}
	if s.runner == nil {
		s.runner = media.ExecRunner{}
	}

	if n, err := s.store.ResetOrphaned(ctx, orphanedMessage); err != nil {
		logging.WarnWithContext(s.logger, "failed to reset orphaned jobs", "orphan_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "interrupted jobs stay processing"),
		)
	} else if n > 0 {
		s.logger.Info("marked interrupted jobs as failed",
			logging.String(logging.FieldEventType, "orphans_reset"),
			logging.Int64("count", n),
		)
	}

	s.pipeline, err = clip.New(clip.OptionsFromConfig(s.cfg), clip.Deps{
		Store:      s.store,
		Objects:    s.objects,
		Notifier:   s.notifier,
		Extractor:  downloader.New(downloader.SettingsFromConfig(s.cfg), s.runner, logger),
		Transcoder: transcoder.New(transcoder.SettingsFromConfig(s.cfg), s.runner, logger),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Options{
		Pipeline:      s.pipeline,
		Jobs:          s.store,
		AllowedOrigin: s.cfg.API.AllowedOrigin,
		Logger:        logger,
	})
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Start begins accepting HTTP requests.
func (s *Server) Start() error {
	for _, r := range preflight.Failed(preflight.RunAll(context.Background(), s.cfg)) {
		logging.WarnWithContext(s.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "jobs may fail until fixed"),
		)
	}

	listener, err := net.Listen("tcp", s.cfg.API.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	}()
	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "server_start"),
		logging.String("address", listener.Addr().String()),
		logging.String("store", s.cfg.Store.Backend),
		logging.String("storage", s.cfg.Storage.Backend),
		logging.Bool("kafka", s.cfg.KafkaEnabled()),
	)
	return nil
}

// Addr returns the bound listener address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the listener, then waits for in-flight jobs up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	httpCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(httpCtx); err != nil {
			s.logger.Warn("api shutdown incomplete", logging.Error(err))
		}
	}

	var waitErr error
	if s.pipeline != nil {
		waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout())
		defer cancel()
		if waitErr = s.pipeline.Wait(waitCtx); waitErr != nil {
			logging.WarnWithContext(s.logger, "in-flight jobs did not finish before shutdown", "shutdown_timeout",
				logging.Duration("timeout", s.cfg.ShutdownTimeout()),
				logging.String(logging.FieldImpact, "unfinished jobs are failed on next start"),
			)
		}
	}
	return errors.Join(waitErr, s.Close())
}

// Close releases the store, notifier, and lock.
func (s *Server) Close() error {
	var errs []error
	if s.notifier != nil {
		errs = append(errs, s.notifier.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// Run serves until SIGINT, SIGTERM, or ctx cancellation.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) error {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := New(signalCtx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		_ = s.Close()
		return err
	}

	<-signalCtx.Done()
	s.logger.Info("clippa server shutting down", logging.String(logging.FieldEventType, "server_stop"))
	return s.Shutdown(context.Background())
}
