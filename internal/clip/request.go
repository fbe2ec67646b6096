package clip

import (
	"fmt"
	"strings"

	"clippa/internal/services"
	"clippa/internal/timecode"
)

// Request is one clip submission.
type Request struct {
	URL       string `json:"url"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subtitles bool   `json:"subtitles"`
	FormatID  string `json:"formatId"`
	UserID    string `json:"userId"`
}

// Normalize trims surrounding whitespace from every text field.
func (r Request) Normalize() Request {
	r.URL = strings.TrimSpace(r.URL)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	r.FormatID = strings.TrimSpace(r.FormatID)
	r.UserID = strings.TrimSpace(r.UserID)
	return r
}

// Validate checks required fields and the time range. Failures wrap
// services.ErrValidation.
func (r Request) Validate() error {
	if r.URL == "" || r.StartTime == "" || r.EndTime == "" || r.UserID == "" {
		return fmt.Errorf("%w: url, startTime, endTime and userId are required", services.ErrValidation)
	}
	start, err := timecode.Parse(r.StartTime)
	if err != nil {
		return fmt.Errorf("%w: startTime: %w", services.ErrValidation, err)
	}
	end, err := timecode.Parse(r.EndTime)
	if err != nil {
		return fmt.Errorf("%w: endTime: %w", services.ErrValidation, err)
	}
	if start < 0 {
		return fmt.Errorf("%w: startTime must not be negative", services.ErrValidation)
	}
	if end <= start {
		return fmt.Errorf("%w: endTime must be after startTime", services.ErrValidation)
	}
	return nil
}

// Offset returns the clip start in source seconds. It assumes Validate passed.
func (r Request) Offset() float64 {
	start, _ := timecode.Parse(r.StartTime)
	return start
}
