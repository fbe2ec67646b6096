package main

import (
	"context"
	"strings"
	"testing"

	"clippa/internal/jobs"
	"clippa/internal/testsupport"
)

func TestClipDryRunPrintsInvocations(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"clip", "--dry-run",
		"--url", "https://youtu.be/x",
		"--start", "00:01:00.000",
		"--end", "00:01:10.000",
		"--subs",
	}, env.configPath)
	if err != nil {
		t.Fatalf("clip --dry-run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out)
	}
	if !strings.HasPrefix(lines[0], env.cfg.Tools.Downloader+" ") {
		t.Fatalf("first line should run the downloader: %q", lines[0])
	}
	requireContains(t, lines[0], "'*00:01:00.000-00:01:10.000'")
	requireContains(t, lines[0], "--write-subs")
	if !strings.HasPrefix(lines[1], env.cfg.Tools.Transcoder+" ") {
		t.Fatalf("second line should run the transcoder: %q", lines[1])
	}
	requireContains(t, lines[1], "subtitles=")
	requireContains(t, lines[2], "clip-dry-run.mp4")
}

func TestClipRejectsInvalidRequest(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing url", []string{"--start", "1", "--end", "2"}, "required"},
		{"reversed range", []string{"--url", "u", "--start", "00:00:10", "--end", "00:00:05"}, "endTime must be after startTime"},
		{"bad time", []string{"--url", "u", "--start", "abc", "--end", "00:00:05"}, "startTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, append([]string{"clip", "--dry-run"}, tt.args...), env.configPath)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestClipRunRecordsFailedJob(t *testing.T) {
	// Stub tools exit 0 without producing output, so extraction fails.
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	_, _, err := runCLI(t, []string{
		"clip",
		"--url", "https://youtu.be/x",
		"--start", "00:00:01",
		"--end", "00:00:03",
		"--user", "cli-user",
	}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "failed") {
		t.Fatalf("expected clip failure, got %v", err)
	}

	store := testsupport.MustOpenStore(t, env.cfg)
	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one job, got %d", len(list))
	}
	if list[0].Status != jobs.StatusError || list[0].OwnerID != "cli-user" {
		t.Fatalf("unexpected job: %+v", list[0])
	}
}
