package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yapplr/notify"
)

// KafkaConfig configures the kafka provider.
type KafkaConfig struct {
	// Brokers lists the bootstrap addresses. Empty means the provider
	// reports unavailable.
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Topic receives the delivery requests (default
	// "yapplr.notifications.push").
	Topic string `env:"KAFKA_PUSH_TOPIC" envDefault:"yapplr.notifications.push"`
}

// KafkaProvider publishes delivery requests to a topic consumed by the
// mobile push workers. Messages are keyed by user id so one user's
// notifications stay ordered within a partition.
type KafkaProvider struct {
	writer kafkaWriter
	topic  string
	log    *slog.Logger
}

// kafkaWriter is the slice of kafka.Writer the provider uses.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaOption configures the provider.
type KafkaOption func(*KafkaProvider)

// WithKafkaLogger attaches a logger for publish diagnostics.
func WithKafkaLogger(log *slog.Logger) KafkaOption {
	return func(p *KafkaProvider) {
		if log != nil {
			p.log = log
		}
	}
}

// withKafkaWriter swaps the writer. Used in tests.
func withKafkaWriter(w kafkaWriter) KafkaOption {
	return func(p *KafkaProvider) {
		p.writer = w
	}
}

// NewKafkaProvider creates the provider. With no brokers configured it
// reports unavailable rather than failing construction.
func NewKafkaProvider(cfg KafkaConfig, opts ...KafkaOption) *KafkaProvider {
	p := &KafkaProvider{
		topic: cfg.Topic,
		log:   slog.New(slog.DiscardHandler),
	}
	if len(cfg.Brokers) > 0 {
		p.writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			AllowAutoTopicCreation: true,
			Compression:            kafka.Gzip,
			RequiredAcks:           kafka.RequireOne,
			WriteBackoffMin:        100 * time.Millisecond,
			WriteBackoffMax:        time.Second,
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaProvider) Name() string {
	return "kafka"
}

func (p *KafkaProvider) Available(ctx context.Context) bool {
	return p.writer != nil
}

func (p *KafkaProvider) Send(ctx context.Context, req notify.DeliveryRequest) bool {
	if p.writer == nil {
		return false
	}

	msg, err := p.message(req)
	if err != nil {
		p.log.ErrorContext(ctx, "kafka payload marshal failed", slog.Any("error", err))
		return false
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.DebugContext(ctx, "kafka publish failed",
			slog.String("topic", p.topic),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

// Close releases the underlying writer. Call on shutdown.
func (p *KafkaProvider) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaProvider) message(req notify.DeliveryRequest) (kafka.Message, error) {
	value, err := json.Marshal(req)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(req.UserID.String()),
		Value: value,
	}, nil
}
