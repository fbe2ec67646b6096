package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps each job in a hash at "<prefix>:<id>" and indexes ids in
// the sorted set "<prefix>:index" scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// updateScript applies a terminal outcome only while the job is processing.
// It returns 0 when the job is missing, 1 on success, and 2 when the job is
// already terminal.
var updateScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return 0
end
if status ~= 'processing' then
  return 2
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// OpenRedis connects to Redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client, opts.KeyPrefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "clippa:jobs"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) jobKey(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) indexKey() string { return s.prefix + ":index" }

// Insert implements Store.
func (s *RedisStore) Insert(ctx context.Context, job Job) error {
	if err := validateInsert(job); err != nil {
		return err
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now().UTC()
	}
	job.UpdatedAt = job.CreatedAt

	key := s.jobKey(job.ID)
	created, err := s.client.HSetNX(ctx, key, "id", job.ID).Result()
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	if !created {
		return fmt.Errorf("insert job %s: already exists", job.ID)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    job.OwnerID,
			"status":     string(job.Status),
			"source_url": job.SourceURL,
			"start_time": job.StartTime,
			"end_time":   job.EndTime,
			"subtitles":  boolToInt(job.Subtitles),
			"format_id":  job.FormatID,
			"created_at": formatTime(job.CreatedAt),
			"updated_at": formatTime(job.UpdatedAt),
		})
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(job.CreatedAt.UnixMilli()), Member: job.ID})
		return nil
	})
	if err != nil {
		_ = s.client.Del(ctx, key).Err()
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, id string, outcome Outcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}
	args := []any{
		"status", string(outcome.Status),
		"storage_path", outcome.StoragePath,
		"public_url", outcome.PublicURL,
		"error", outcome.ErrorMessage,
		"error_kind", outcome.ErrorKind,
		"updated_at", formatTime(s.now().UTC()),
	}
	code, err := updateScript.Run(ctx, s.client, []string{s.jobKey(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	switch code {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("update job %s: %w", id, ErrNotFound)
	default:
		return fmt.Errorf("update job %s: %w", id, ErrTerminal)
	}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	fields, err := s.client.HGetAll(ctx, s.jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return jobFromHash(fields), nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.HGetAll(ctx, s.jobKey(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	want := make(map[Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	out := make([]*Job, 0, len(cmds))
	for _, cmd := range cmds {
		fields, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		job := jobFromHash(fields)
		if len(want) > 0 && !want[job.Status] {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

// ResetOrphaned implements Store.
func (s *RedisStore) ResetOrphaned(ctx context.Context, message string) (int64, error) {
	processing, err := s.List(ctx, StatusProcessing)
	if err != nil {
		return 0, err
	}
	var reset int64
	for _, job := range processing {
		err := s.Update(ctx, job.ID, Outcome{Status: StatusError, ErrorMessage: message, ErrorKind: "Interrupted"})
		switch {
		case err == nil:
			reset++
		case errors.Is(err, ErrTerminal), errors.Is(err, ErrNotFound):
		default:
			return reset, err
		}
	}
	return reset, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func jobFromHash(fields map[string]string) *Job {
	job := &Job{
		ID:           fields["id"],
		OwnerID:      fields["user_id"],
		Status:       Status(fields["status"]),
		StoragePath:  fields["storage_path"],
		PublicURL:    fields["public_url"],
		ErrorMessage: fields["error"],
		ErrorKind:    fields["error_kind"],
		SourceURL:    fields["source_url"],
		StartTime:    fields["start_time"],
		EndTime:      fields["end_time"],
		FormatID:     fields["format_id"],
	}
	if n, err := strconv.Atoi(fields["subtitles"]); err == nil {
		job.Subtitles = n != 0
	}
	if t, err := parseTimeString(fields["created_at"]); err == nil {
		job.CreatedAt = t
	}
	if t, err := parseTimeString(fields["updated_at"]); err == nil {
		job.UpdatedAt = t
	}
	return job
}
