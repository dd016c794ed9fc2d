package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/justin-dews/data-matcher-sub001/pkg/models"
	"github.com/justin-dews/data-matcher-sub001/pkg/tracing"
)

// SchemaVersion tags every published event so consumers can detect
// payload changes.
const SchemaVersion = "1.0"

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// DecisionEvent announces a recorded review decision to downstream
// consumers (analytics, embedding refresh, notification fanout).
type DecisionEvent struct {
	EventType      string                 `json:"event_type"` // decision.approved, decision.rejected
	TenantID       string                 `json:"tenant_id"`
	DecisionID     string                 `json:"decision_id"`
	EntryID        string                 `json:"entry_id"`
	QueryText      string                 `json:"query_text"`
	NormalizedText string                 `json:"normalized_text"`
	FinalScore     float64                `json:"final_score"`
	Tier           models.MatchTier       `json:"tier"`
	Decision       models.DecisionOutcome `json:"decision"`
	Reviewer       string                 `json:"reviewer"`
	Timestamp      time.Time              `json:"timestamp"`
}

// PublishDecisionEvent publishes a decision event to Kafka. Messages are
// keyed by entry ID so all decisions about one product land in one partition.
func (p *Producer) PublishDecisionEvent(ctx context.Context, event *DecisionEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDecisionEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.EntryID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
			{Key: "schema_version", Value: []byte(SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish decision event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"entry_id":   event.EntryID,
	}).Debug("Published decision event")

	return nil
}

// AliasEvent announces a competitor alias learned from an approval.
type AliasEvent struct {
	EventType      string             `json:"event_type"`
	TenantID       string             `json:"tenant_id"`
	AliasID        string             `json:"alias_id"`
	EntryID        string             `json:"entry_id"`
	NormalizedName string             `json:"normalized_name"`
	Confidence     float64            `json:"confidence"`
	Source         models.AliasSource `json:"source"`
	Timestamp      time.Time          `json:"timestamp"`
}

// PublishAliasEvent publishes an alias-learned event, keyed by entry ID like
// decision events so both land in the same partition per product.
func (p *Producer) PublishAliasEvent(ctx context.Context, event *AliasEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishAliasEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.EntryID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
			{Key: "schema_version", Value: []byte(SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish alias event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"entry_id":   event.EntryID,
	}).Debug("Published alias event")

	return nil
}
