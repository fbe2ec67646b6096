package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"clippa/internal/config"
	"clippa/internal/jobs"
)

// EventJobFinished is the event type of terminal job messages.
const EventJobFinished = "job.finished"

// Notifier receives terminal job events.
type Notifier interface {
	JobFinished(ctx context.Context, job jobs.Job) error
	Close() error
}

// Event is the wire payload of a job event.
type Event struct {
	Type       string    `json:"type"`
	JobID      string    `json:"id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	PublicURL  string    `json:"public_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	SourceURL  string    `json:"url"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewEvent converts a job record into its event payload.
func NewEvent(job jobs.Job) Event {
	finished := job.UpdatedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	return Event{
		Type:       EventJobFinished,
		JobID:      job.ID,
		UserID:     job.OwnerID,
		Status:     string(job.Status),
		PublicURL:  job.PublicURL,
		Error:      job.ErrorMessage,
		ErrorKind:  job.ErrorKind,
		SourceURL:  job.SourceURL,
		StartTime:  job.StartTime,
		EndTime:    job.EndTime,
		FinishedAt: finished,
	}
}

// New returns a Kafka notifier when brokers and a topic are configured, and a
// no-op otherwise.
func New(cfg *config.Config) (Notifier, error) {
	if cfg == nil || !cfg.KafkaEnabled() {
		return Noop{}, nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Notifications.KafkaBrokers, ProducerConfig(cfg.NotificationTimeout()))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafka(producer, cfg.Notifications.KafkaTopic), nil
}

// ProducerConfig returns the sarama settings used for job events.
func ProducerConfig(timeout time.Duration) *sarama.Config {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.ClientID = "clippa"
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = 3
	sc.Producer.Timeout = timeout
	sc.Net.DialTimeout = timeout
	sc.Net.WriteTimeout = timeout
	return sc
}

// Kafka publishes events through a synchronous producer.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafka wraps an existing producer. The notifier owns it from then on.
func NewKafka(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

// JobFinished implements Notifier.
func (k *Kafka) JobFinished(ctx context.Context, job jobs.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(NewEvent(job))
	if err != nil {
		return fmt.Errorf("encode job event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(job.ID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventJobFinished)},
		},
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish job event to %s: %w", k.topic, err)
	}
	return nil
}

// Close implements Notifier.
func (k *Kafka) Close() error {
	return k.producer.Close()
}

// Noop discards events.
type Noop struct{}

func (Noop) JobFinished(context.Context, jobs.Job) error { return nil }
func (Noop) Close() error                                { return nil }
