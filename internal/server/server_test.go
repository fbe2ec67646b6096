package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"clippa/internal/jobs"
	"clippa/internal/logging"
	"clippa/internal/testsupport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestServerEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := testsupport.NewFakeRunner().
		On(cfg.Tools.Downloader, testsupport.DownloaderWrites("")).
		On(cfg.Tools.Transcoder, testsupport.TranscoderWrites())

	s, err := New(context.Background(), cfg, logging.NewNop(), WithRunner(runner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + s.Addr()

	body := `{"url":"https://youtu.be/x","startTime":"00:01:00.000","endTime":"00:01:10.000","userId":"u1"}`
	resp, err := http.Post(base+"/api/clip", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	var created struct{ ID string }
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted || created.ID == "" {
		t.Fatalf("POST status %d id %q", resp.StatusCode, created.ID)
	}

	var job jobs.Job
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/api/clip/" + created.ID)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		_ = json.NewDecoder(resp.Body).Decode(&job)
		resp.Body.Close()
		if job.Status.IsTerminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if job.Status != jobs.StatusReady {
		t.Fatalf("job status = %q (%s)", job.Status, job.ErrorMessage)
	}
	if !strings.HasPrefix(job.PublicURL, "file://") {
		t.Fatalf("public url = %q", job.PublicURL)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestServerRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := New(context.Background(), cfg, nil, WithRunner(testsupport.NewFakeRunner()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer first.Close()

	if _, err := New(context.Background(), cfg, nil); err == nil || !strings.Contains(err.Error(), "already owns") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestServerResetsOrphanedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewMemoryStore()
	if err := store.Insert(context.Background(), jobs.Job{ID: "orphan00001", OwnerID: "u", Status: jobs.StatusProcessing}); err != nil {
		t.Fatal(err)
	}

	s, err := New(context.Background(), cfg, nil, WithStore(store), WithObjects(testsupport.NewMemoryObjects()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	job, _ := store.Get(context.Background(), "orphan00001")
	if job.Status != jobs.StatusError || job.ErrorMessage != orphanedMessage {
		t.Fatalf("orphan not reset: %+v", job)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &logs})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, logger, WithRunner(testsupport.NewFakeRunner())) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !strings.Contains(logs.String(), "server_stop") {
		t.Fatalf("expected shutdown log, got %s", logs.String())
	}
}
