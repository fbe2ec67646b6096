package jobs

import (
	"context"
	"fmt"

	"clippa/internal/config"
)

// Store persists job records.
type Store interface {
	// Insert creates a new record. The job's status must be processing.
	Insert(ctx context.Context, job Job) error
	// Update applies the terminal outcome to a processing job.
	Update(ctx context.Context, id string, outcome Outcome) error
	// Get returns the job or nil when it does not exist.
	Get(ctx context.Context, id string) (*Job, error)
	// List returns jobs newest first, optionally filtered by status.
	List(ctx context.Context, statuses ...Status) ([]*Job, error)
	// ResetOrphaned fails every processing job. It runs at startup, when any
	// such job belongs to a process that is gone.
	ResetOrphaned(ctx context.Context, message string) (int64, error)
	Close() error
}

// Open returns the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		return OpenRedis(ctx, RedisOptions{
			Addr:      cfg.Store.RedisAddr,
			Password:  cfg.Store.RedisPassword,
			DB:        cfg.Store.RedisDB,
			KeyPrefix: cfg.Store.RedisKeyPrefix,
		})
	case config.StoreSQLite, "":
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenSQLite(cfg.JobDBPath())
	default:
		return nil, fmt.Errorf("unsupported job store backend %q", cfg.Store.Backend)
	}
}

func validateInsert(job Job) error {
	if job.ID == "" {
		return fmt.Errorf("insert job: id is required")
	}
	if job.OwnerID == "" {
		return fmt.Errorf("insert job: owner id is required")
	}
	if job.Status != StatusProcessing {
		return fmt.Errorf("insert job: initial status must be %q, got %q", StatusProcessing, job.Status)
	}
	return nil
}
