package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"clippa/internal/config"
	"clippa/internal/deps"
	"clippa/internal/jobs"
	"clippa/internal/storage"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the downloader and transcoder executables.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "Downloader",
			Command:     cfg.Tools.Downloader,
			Description: "Required to extract source sections",
		},
		{
			Name:        "Transcoder",
			Command:     cfg.Tools.Transcoder,
			Description: "Required to encode clips",
		},
	})
}

// CheckCredentials reports which cookie file extraction will use. Missing
// credentials are not fatal; some sources need none.
func CheckCredentials(sharedPath, fallbackPath string) Result {
	const name = "Downloader cookies"
	for _, candidate := range []struct{ label, path string }{{"shared", sharedPath}, {"fallback", fallbackPath}} {
		if candidate.path == "" {
			continue
		}
		if err := unix.Access(candidate.path, unix.R_OK); err == nil {
			return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (%s)", candidate.path, candidate.label)}
		}
	}
	return Result{Name: name, Optional: true, Detail: "no cookie file; age-gated sources may fail"}
}

// CheckStore verifies the job store answers a query.
func CheckStore(ctx context.Context, store jobs.Store) Result {
	const name = "Job store"
	if store == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := store.List(checkCtx, jobs.StatusProcessing); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckObjectStore verifies the object store is reachable when it supports a
// check.
func CheckObjectStore(ctx context.Context, objects storage.ObjectStore) Result {
	const name = "Object storage"
	checker, ok := objects.(storage.Checker)
	if !ok {
		return Result{Name: name, Passed: true, Optional: true, Detail: "no reachability check"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := checker.Check(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out"
	}
	return err.Error()
}
