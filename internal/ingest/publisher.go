package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-customer/internal/models"
)

// Publisher records workflow events. Publishing is best-effort: callers
// log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, evt models.ClientEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.ClientEvent) error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, Balancer: &kafka.LeastBytes{}}
	return &KafkaPublisher{writer: w, timeout: 2 * time.Second}
}

// Publish keys messages by ride so one ride's events stay ordered.
func (k *KafkaPublisher) Publish(ctx context.Context, evt models.ClientEvent) error {
	evt = Stamp(evt)
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	key := evt.RideID
	if key == "" {
		key = evt.ID
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// Stamp fills in the id and timestamp when the caller left them empty.
func Stamp(evt models.ClientEvent) models.ClientEvent {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	return evt
}

// Emit publishes evt and logs, rather than returns, any failure.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, evt models.ClientEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil && logger != nil {
		logger.Warn("publish workflow event", "type", evt.Type, "ride_id", evt.RideID, "error", err)
	}
}

// Decode parses a message produced by Publish.
func Decode(b []byte) (models.ClientEvent, error) {
	var evt models.ClientEvent
	if err := json.Unmarshal(b, &evt); err != nil {
		return evt, err
	}
	if evt.Type == "" {
		return evt, &models.DecodeError{Type: "event", Field: "type"}
	}
	return evt, nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []models.ClientEvent
}

func (r *Recorder) Publish(_ context.Context, evt models.ClientEvent) error {
	r.Events = append(r.Events, Stamp(evt))
	return nil
}
