// Package kafka publishes registry changes to Kafka
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
)

// messageWriter is the part of kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Recorder receives produce statistics
type Recorder interface {
	RecordKafkaMessage(err error)
}

// ChangeMessage is the JSON value of a change feed message
type ChangeMessage struct {
	MessageID string `json:"message_id"`
	entities.Change
}

// Producer implements deps.ChangePublisher
type Producer struct {
	writer   messageWriter
	topic    string
	recorder Recorder
	logger   zerolog.Logger
}

// NewProducer creates a new Kafka producer for the change feed topic
func NewProducer(cfg *config.KafkaConfig, recorder Recorder, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka change feed producer initialized")

	return newProducer(writer, cfg.Topic, recorder, logger)
}

func newProducer(writer messageWriter, topic string, recorder Recorder, logger zerolog.Logger) *Producer {
	return &Producer{
		writer:   writer,
		topic:    topic,
		recorder: recorder,
		logger:   logger.With().Str("component", "change-feed").Logger(),
	}
}

// PublishChange writes one change message. Messages of the same news item
// share a key and therefore a partition.
func (p *Producer) PublishChange(ctx context.Context, change entities.Change) error {
	msg := ChangeMessage{
		MessageID: uuid.NewString(),
		Change:    change,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	key := change.ItemID
	if key == "" {
		key = string(change.Type)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(change.Type)},
			{Key: "message_id", Value: []byte(msg.MessageID)},
		},
	})
	if p.recorder != nil {
		p.recorder.RecordKafkaMessage(err)
	}
	if err != nil {
		p.logger.Error().Err(err).Str("type", string(change.Type)).Str("item_id", change.ItemID).Msg("Failed to publish change")
		return fmt.Errorf("%w: %w", newserrors.ErrKafkaProducer, err)
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Str("type", string(change.Type)).
		Str("item_id", change.ItemID).
		Msg("Change published")
	return nil
}

// Close closes the Kafka writer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close Kafka writer")
		return err
	}
	p.logger.Info().Msg("Kafka change feed producer closed")
	return nil
}

// NopPublisher drops changes. It is used when no brokers are configured.
type NopPublisher struct{}

// PublishChange does nothing
func (NopPublisher) PublishChange(context.Context, entities.Change) error { return nil }
