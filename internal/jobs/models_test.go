package jobs_test

import (
	"errors"
	"testing"

	"clippa/internal/jobs"
)

func TestOutcomeValidate(t *testing.T) {
	tests := []struct {
		name    string
		outcome jobs.Outcome
		ok      bool
	}{
		{"ready", jobs.Ready("clip-a.mp4", "https://x/clip-a.mp4"), true},
		{"failed", jobs.Failed("TranscodeTimeout", "transcode timed out"), true},
		{"failed default message", jobs.Failed("", ""), true},
		{"ready missing url", jobs.Outcome{Status: jobs.StatusReady, StoragePath: "k"}, false},
		{"error missing message", jobs.Outcome{Status: jobs.StatusError}, false},
		{"processing", jobs.Outcome{Status: jobs.StatusProcessing}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.outcome.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, jobs.ErrInvalidOutcome) {
				t.Fatalf("expected ErrInvalidOutcome, got %v", err)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	if jobs.StatusProcessing.IsTerminal() || !jobs.StatusReady.IsTerminal() || !jobs.StatusError.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
	if _, err := jobs.ParseStatus("done"); err == nil {
		t.Fatal("expected unknown status error")
	}
	if st, err := jobs.ParseStatus("ready"); err != nil || st != jobs.StatusReady {
		t.Fatalf("ParseStatus(ready) = %q, %v", st, err)
	}
}
