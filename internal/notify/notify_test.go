package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"clippa/internal/config"
	"clippa/internal/jobs"
	"clippa/internal/notify"
)

func TestNewReturnsNoopWithoutBrokers(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.KafkaBrokers = nil
	n, err := notify.New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := n.(notify.Noop); !ok {
		t.Fatalf("expected Noop, got %T", n)
	}
	if err := n.JobFinished(context.Background(), jobs.Job{ID: "x"}); err != nil {
		t.Fatalf("noop JobFinished: %v", err)
	}
}

func TestKafkaPublishesKeyedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	job := jobs.Job{
		ID:        "lq3k2b8aabcdefgh",
		OwnerID:   "user-1",
		Status:    jobs.StatusReady,
		PublicURL: "https://videos.s3.amazonaws.com/clip-lq3k2b8aabcdefgh.mp4",
		SourceURL: "https://example.com/watch?v=1",
		StartTime: "00:00:10",
		EndTime:   "00:00:20",
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "clip-events" {
			t.Errorf("topic = %q", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != job.ID {
			t.Errorf("key = %q", key)
		}
		raw, _ := msg.Value.Encode()
		var evt notify.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			return err
		}
		if evt.Type != notify.EventJobFinished || evt.Status != "ready" || evt.PublicURL != job.PublicURL {
			t.Errorf("unexpected event %+v", evt)
		}
		if !evt.FinishedAt.Equal(job.UpdatedAt) {
			t.Errorf("finished_at = %v", evt.FinishedAt)
		}
		return nil
	})

	n := notify.NewKafka(producer, "clip-events")
	if err := n.JobFinished(context.Background(), job); err != nil {
		t.Fatalf("JobFinished: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaReturnsPublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	n := notify.NewKafka(producer, "clip-events")
	defer n.Close()
	err := n.JobFinished(context.Background(), jobs.Job{ID: "a", Status: jobs.StatusError, ErrorMessage: "boom"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
}

func TestKafkaSkipsCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	n := notify.NewKafka(producer, "clip-events")
	defer n.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.JobFinished(ctx, jobs.Job{ID: "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProducerConfigValidates(t *testing.T) {
	sc := notify.ProducerConfig(0)
	if err := sc.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
	if !sc.Producer.Return.Successes {
		t.Fatal("sync producer requires Return.Successes")
	}
}
