package jobs

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusProcessing, StatusReady, StatusError:
		return Status(value), nil
	default:
		return "", fmt.Errorf("unknown job status %q", value)
	}
}

var (
	// ErrTerminal is returned when updating a job that already finished.
	ErrTerminal = errors.New("job already in a terminal state")
	// ErrNotFound is returned when updating a job that does not exist.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidOutcome is returned when an update does not name a terminal status.
	ErrInvalidOutcome = errors.New("outcome must be ready or error")
)

// Job is the persisted record of one clip request.
type Job struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"user_id"`
	Status       Status    `json:"status"`
	StoragePath  string    `json:"storage_path,omitempty"`
	PublicURL    string    `json:"public_url,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	SourceURL    string    `json:"url"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Subtitles    bool      `json:"subtitles"`
	FormatID     string    `json:"format_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Outcome is the single terminal update applied to a job.
type Outcome struct {
	Status       Status
	StoragePath  string
	PublicURL    string
	ErrorMessage string
	ErrorKind    string
}

// Ready builds a successful outcome.
func Ready(storagePath, publicURL string) Outcome {
	return Outcome{Status: StatusReady, StoragePath: storagePath, PublicURL: publicURL}
}

// Failed builds an error outcome. An empty message is replaced so error jobs
// always carry text.
func Failed(kind, message string) Outcome {
	if message == "" {
		message = "clip pipeline failed"
	}
	return Outcome{Status: StatusError, ErrorKind: kind, ErrorMessage: message}
}

// Validate checks that o is a well-formed terminal outcome.
func (o Outcome) Validate() error {
	switch o.Status {
	case StatusReady:
		if o.StoragePath == "" || o.PublicURL == "" {
			return fmt.Errorf("%w: ready outcome needs storage path and public url", ErrInvalidOutcome)
		}
	case StatusError:
		if o.ErrorMessage == "" {
			return fmt.Errorf("%w: error outcome needs a message", ErrInvalidOutcome)
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidOutcome, o.Status)
	}
	return nil
}
