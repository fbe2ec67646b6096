package jobs

import (
	"context"
	"testing"
	"time"
)

func TestJobFromHash(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	job := jobFromHash(map[string]string{
		"id":           "abc",
		"user_id":      "u1",
		"status":       "ready",
		"storage_path": "clip-abc.mp4",
		"public_url":   "https://cdn.test/clip-abc.mp4",
		"subtitles":    "1",
		"created_at":   formatTime(created),
		"updated_at":   formatTime(created),
	})
	if job.ID != "abc" || job.OwnerID != "u1" || job.Status != StatusReady || !job.Subtitles {
		t.Fatalf("unexpected job: %+v", job)
	}
	if !job.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %s, want %s", job.CreatedAt, created)
	}
}

func TestRedisKeys(t *testing.T) {
	s := NewRedisStore(nil, ":clippa:jobs:")
	if s.jobKey("abc") != "clippa:jobs:abc" || s.indexKey() != "clippa:jobs:index" {
		t.Fatalf("unexpected keys %q %q", s.jobKey("abc"), s.indexKey())
	}
}

func TestOpenRedisFailsFastWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := OpenRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected connection error")
	}
}
