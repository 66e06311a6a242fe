package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/pkg/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// fakeReader serves queued messages, then cancels the consumer context.
type fakeReader struct {
	queue     []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats {
	return kafka.ReaderStats{Messages: int64(len(r.committed))}
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testEvent() *models.PreferenceUpdateEvent {
	return models.NewPreferenceUpdateEvent(
		"user-1",
		models.UserInteraction{MediaID: 550, Rating: 5, Timestamp: time.Now()},
		models.Media{ID: 550, Title: "Fight Club", GenreIDs: []int{18}},
		[]models.PreferenceUpdate{{Type: models.PreferenceGenre, Value: "18", Weight: 1}},
		models.FeedbackAccepted,
	)
}

func encode(t *testing.T, event *models.PreferenceUpdateEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(PreferenceMessage{Event: *event, Timestamp: time.Now()})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.UserID), Value: data, Offset: 7}
}

func newTestBus(reader *fakeReader) (*MessageBus, *fakeWriter, *fakeWriter) {
	writer := &fakeWriter{}
	dlq := &fakeWriter{}
	bus := newMessageBus(writer, reader, dlq, "preference-updates", "preference-updates-dlq", testLogger())
	bus.baseDelay = time.Millisecond
	return bus, writer, dlq
}

func TestNewMessageBus_RequiresBrokers(t *testing.T) {
	cfg := &config.Config{}

	_, err := NewMessageBus(cfg, testLogger())

	assert.Error(t, err)
}

func TestPublishPreferenceUpdate(t *testing.T) {
	bus, writer, _ := newTestBus(&fakeReader{})
	event := testEvent()

	require.NoError(t, bus.PublishPreferenceUpdate(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "user-1", string(msg.Key))

	var decoded PreferenceMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.Event.EventID)
	assert.Equal(t, event.Updates, decoded.Event.Updates)
	assert.Equal(t, 0, decoded.RetryCount)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, event.EventID.String(), headers["event_id"])
}

func TestPublishPreferenceUpdate_WriteError(t *testing.T) {
	bus, writer, _ := newTestBus(&fakeReader{})
	writer.err = errors.New("broker down")

	err := bus.PublishPreferenceUpdate(context.Background(), testEvent())

	assert.ErrorContains(t, err, "broker down")
}

func TestConsumePreferenceUpdates_Success(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	event := testEvent()
	reader := &fakeReader{queue: []kafka.Message{encode(t, event)}, cancel: cancel}
	bus, _, dlq := newTestBus(reader)

	var handled []*models.PreferenceUpdateEvent
	err := bus.ConsumePreferenceUpdates(ctx, func(_ context.Context, e *models.PreferenceUpdateEvent) error {
		handled = append(handled, e)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, handled, 1)
	assert.Equal(t, event.EventID, handled[0].EventID)
	assert.Len(t, reader.committed, 1)
	assert.Empty(t, dlq.messages)
}

func TestConsumePreferenceUpdates_RetriesThenSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{queue: []kafka.Message{encode(t, testEvent())}, cancel: cancel}
	bus, _, dlq := newTestBus(reader)

	calls := 0
	_ = bus.ConsumePreferenceUpdates(ctx, func(context.Context, *models.PreferenceUpdateEvent) error {
		calls++
		if calls < 3 {
			return errors.New("store unavailable")
		}
		return nil
	})

	assert.Equal(t, 3, calls)
	assert.Empty(t, dlq.messages)
	assert.Len(t, reader.committed, 1)
}

func TestConsumePreferenceUpdates_DeadLetters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	event := testEvent()
	reader := &fakeReader{queue: []kafka.Message{encode(t, event)}, cancel: cancel}
	bus, _, dlq := newTestBus(reader)
	bus.maxRetries = 2

	calls := 0
	_ = bus.ConsumePreferenceUpdates(ctx, func(context.Context, *models.PreferenceUpdateEvent) error {
		calls++
		return errors.New("constraint violation")
	})

	assert.Equal(t, 3, calls)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "user-1", string(dlq.messages[0].Key))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(dlq.messages[0].Value, &payload))
	assert.Contains(t, payload["error"], "constraint violation")
	assert.Len(t, reader.committed, 1)
}

func TestConsumePreferenceUpdates_MalformedMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("k"), Value: []byte("not json")}}, cancel: cancel}
	bus, _, dlq := newTestBus(reader)

	calls := 0
	_ = bus.ConsumePreferenceUpdates(ctx, func(context.Context, *models.PreferenceUpdateEvent) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, []byte("not json"), dlq.messages[0].Value)
	assert.Len(t, reader.committed, 1)
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		attempt       int
		expectedDelay time.Duration
	}{
		{attempt: 1, expectedDelay: 1 * time.Second},
		{attempt: 2, expectedDelay: 2 * time.Second},
		{attempt: 3, expectedDelay: 4 * time.Second},
	}

	for _, tt := range tests {
		delay := defaultBaseDelay * time.Duration(1<<uint(tt.attempt-1))
		assert.Equal(t, tt.expectedDelay, delay)
	}
}

func TestMessageBus_CloseAndMetrics(t *testing.T) {
	reader := &fakeReader{}
	bus, writer, dlq := newTestBus(reader)

	metrics := bus.GetMetrics()
	assert.Equal(t, int64(0), metrics["messages_read"])

	require.NoError(t, bus.Close())
	assert.True(t, writer.closed)
	assert.True(t, dlq.closed)
	assert.True(t, reader.closed)
}
