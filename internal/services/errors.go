package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrJobCreation        = errors.New("job creation failed")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrSubtitleAdjustment = errors.New("subtitle adjustment failed")
	ErrTranscodeFailed    = errors.New("transcode failed")
	ErrTranscodeTimeout   = errors.New("transcode timed out")
	ErrUploadFailed       = errors.New("upload failed")
	ErrStatusReport       = errors.New("status report failed")
	ErrExternalTool       = errors.New("external tool unavailable")
)

// kindNames maps each marker to the taxonomy name used in logs.
var kindNames = []struct {
	marker error
	name   string
}{
	{ErrValidation, "ValidationError"},
	{ErrConfiguration, "ConfigurationError"},
	{ErrJobCreation, "JobCreationError"},
	{ErrExtractionFailed, "ExtractionFailed"},
	{ErrSubtitleAdjustment, "SubtitleAdjustmentFailed"},
	{ErrTranscodeTimeout, "TranscodeTimeout"},
	{ErrTranscodeFailed, "TranscodeFailed"},
	{ErrUploadFailed, "UploadFailed"},
	{ErrStatusReport, "StatusReportFailed"},
	{ErrExternalTool, "ExternalToolError"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExtractionFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy name for err, or "Unknown" when no marker matches.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "Unknown"
}

// Message renders err as the human-readable text stored on a failed job.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "clip pipeline failed"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// ExitError describes how an external tool process failed. Exactly one of
// Code, Signal, or Spawn is meaningful. Context is set when the run's context
// was done by the time the process exited, so errors.Is(err,
// context.DeadlineExceeded) identifies a killed-on-timeout run.
type ExitError struct {
	Tool    string
	Code    int
	Signal  string
	Spawn   error
	Context error
}

// Kind reports "spawn", "signal", or "code".
func (e *ExitError) Kind() string {
	switch {
	case e.Spawn != nil:
		return "spawn"
	case e.Signal != "":
		return "signal"
	default:
		return "code"
	}
}

func (e *ExitError) Error() string {
	tool := e.Tool
	if tool == "" {
		tool = "process"
	}
	switch e.Kind() {
	case "spawn":
		return fmt.Sprintf("%s could not be started: %v", tool, e.Spawn)
	case "signal":
		return fmt.Sprintf("%s process was killed by signal: %s", tool, e.Signal)
	default:
		return fmt.Sprintf("%s exited with code %d", tool, e.Code)
	}
}

func (e *ExitError) Unwrap() []error {
	var errs []error
	if e.Spawn != nil {
		errs = append(errs, e.Spawn)
	}
	if e.Context != nil {
		errs = append(errs, e.Context)
	}
	return errs
}
