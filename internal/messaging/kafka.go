package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/pkg/models"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
)

// PreferenceMessage is the wire envelope for preference events.
type PreferenceMessage struct {
	Event      models.PreferenceUpdateEvent `json:"event"`
	Timestamp  time.Time                    `json:"timestamp"`
	RetryCount int                          `json:"retry_count"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// MessageBus publishes preference events and runs the consumer loop that
// applies them, with bounded retries and a dead-letter topic.
type MessageBus struct {
	writer     messageWriter
	reader     messageReader
	dlqWriter  messageWriter
	topic      string
	dlqTopic   string
	maxRetries int
	baseDelay  time.Duration
	logger     *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	topic := cfg.Kafka.Topics.PreferenceUpdates
	dlqTopic := cfg.Kafka.Topics.PreferenceUpdatesDLQ

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // keyed by user id, keeps per-user order
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       topic,
		GroupID:     cfg.Kafka.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.FirstOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        dlqTopic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return newMessageBus(writer, reader, dlqWriter, topic, dlqTopic, logger), nil
}

func newMessageBus(writer messageWriter, reader messageReader, dlqWriter messageWriter, topic, dlqTopic string, logger *logrus.Logger) *MessageBus {
	return &MessageBus{
		writer:     writer,
		reader:     reader,
		dlqWriter:  dlqWriter,
		topic:      topic,
		dlqTopic:   dlqTopic,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		logger:     logger,
	}
}

// PublishPreferenceUpdate writes the event keyed by user id.
func (mb *MessageBus) PublishPreferenceUpdate(ctx context.Context, event *models.PreferenceUpdateEvent) error {
	message := PreferenceMessage{
		Event:     *event,
		Timestamp: time.Now(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(event.UserID),
		Value: messageBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "user_id", Value: []byte(event.UserID)},
			{Key: "timestamp", Value: []byte(message.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mb.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		mb.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to publish message to Kafka")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"topic":    mb.topic,
	}).Debug("Message published to Kafka")

	return nil
}

// ConsumePreferenceUpdates blocks until ctx is done. Each message is handed
// to handler with retries; exhausted messages go to the DLQ. Offsets are
// committed only after a message is handled or dead-lettered.
func (mb *MessageBus) ConsumePreferenceUpdates(ctx context.Context, handler func(context.Context, *models.PreferenceUpdateEvent) error) error {
	for {
		message, err := mb.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			mb.logger.WithError(err).Error("Failed to read message from Kafka")
			continue
		}

		var envelope PreferenceMessage
		if err := json.Unmarshal(message.Value, &envelope); err != nil {
			mb.logger.WithError(err).Error("Failed to unmarshal Kafka message")
			if dlqErr := mb.sendRawToDLQ(ctx, message, err); dlqErr != nil {
				mb.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
				continue
			}
			mb.commit(ctx, message)
			continue
		}

		if err := mb.processWithRetry(ctx, &envelope, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			mb.logger.WithError(err).WithField("event_id", envelope.Event.EventID).Error("Failed to process message after retries")

			if dlqErr := mb.sendToDLQ(ctx, envelope, err); dlqErr != nil {
				// Leave uncommitted so the message is redelivered
				mb.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
				continue
			}
		}

		mb.commit(ctx, message)
	}
}

func (mb *MessageBus) commit(ctx context.Context, message kafka.Message) {
	if err := mb.reader.CommitMessages(ctx, message); err != nil {
		mb.logger.WithError(err).WithField("offset", message.Offset).Warn("Failed to commit Kafka offset")
	}
}

func (mb *MessageBus) processWithRetry(ctx context.Context, message *PreferenceMessage, handler func(context.Context, *models.PreferenceUpdateEvent) error) error {
	for attempt := 0; attempt <= mb.maxRetries; attempt++ {
		if attempt > 0 {
			delay := mb.baseDelay * time.Duration(1<<uint(attempt-1))
			mb.logger.WithFields(logrus.Fields{
				"event_id": message.Event.EventID,
				"attempt":  attempt,
				"delay":    delay,
			}).Info("Retrying message processing")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		message.RetryCount = attempt
		err := handler(ctx, &message.Event)
		if err == nil {
			mb.logger.WithFields(logrus.Fields{
				"event_id": message.Event.EventID,
				"attempt":  attempt,
			}).Debug("Message processed successfully")
			return nil
		}

		mb.logger.WithError(err).WithFields(logrus.Fields{
			"event_id": message.Event.EventID,
			"attempt":  attempt,
		}).Warn("Message processing failed")

		if attempt == mb.maxRetries {
			return fmt.Errorf("max retries exceeded: %w", err)
		}
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, message PreferenceMessage, originalError error) error {
	dlqMessage := map[string]interface{}{
		"original_message": message,
		"error":            originalError.Error(),
		"dlq_timestamp":    time.Now(),
	}

	dlqBytes, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(message.Event.UserID),
		Value: dlqBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(message.Event.EventID.String())},
			{Key: "original_topic", Value: []byte(mb.topic)},
			{Key: "error", Value: []byte(originalError.Error())},
		},
	}

	if err := mb.dlqWriter.WriteMessages(ctx, kafkaMessage); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id": message.Event.EventID,
		"error":    originalError.Error(),
	}).Warn("Message sent to DLQ")

	return nil
}

// sendRawToDLQ forwards a message that could not be decoded.
func (mb *MessageBus) sendRawToDLQ(ctx context.Context, message kafka.Message, decodeError error) error {
	kafkaMessage := kafka.Message{
		Key:   message.Key,
		Value: message.Value,
		Headers: []kafka.Header{
			{Key: "original_topic", Value: []byte(mb.topic)},
			{Key: "error", Value: []byte(decodeError.Error())},
		},
	}

	if err := mb.dlqWriter.WriteMessages(ctx, kafkaMessage); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}
	return nil
}

func (mb *MessageBus) Close() error {
	var errs []error

	if err := mb.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}

	if err := mb.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
	}

	if err := mb.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing message bus: %v", errs)
	}

	return nil
}

// GetMetrics returns consumer statistics for the health endpoint.
func (mb *MessageBus) GetMetrics() map[string]interface{} {
	stats := mb.reader.Stats()
	return map[string]interface{}{
		"consumer_lag":    stats.Lag,
		"consumer_offset": stats.Offset,
		"messages_read":   stats.Messages,
		"bytes_read":      stats.Bytes,
		"rebalances":      stats.Rebalances,
		"timeouts":        stats.Timeouts,
		"errors":          stats.Errors,
	}
}
