package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

type mockRecorder struct {
	ok, failed int
}

func (r *mockRecorder) RecordKafkaMessage(err error) {
	if err != nil {
		r.failed++
		return
	}
	r.ok++
}

func TestProducer_PublishChange(t *testing.T) {
	w := &mockWriter{}
	rec := &mockRecorder{}
	p := newProducer(w, "hebbot.news", rec, zerolog.Nop())

	change := entities.Change{
		Type:      entities.ChangeSubmitted,
		ItemID:    "$m1",
		ActorID:   "@carol:example.org",
		Item:      &entities.NewsItem{ID: "$m1", Message: "the build is fixed"},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishChange(context.Background(), change))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "$m1", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, "submitted", string(msg.Headers[0].Value))

	var decoded ChangeMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.NotEmpty(t, decoded.MessageID)
	assert.Equal(t, change.Type, decoded.Type)
	assert.Equal(t, "the build is fixed", decoded.Item.Message)
	assert.Equal(t, 1, rec.ok)
}

func TestProducer_KeyWithoutItem(t *testing.T) {
	w := &mockWriter{}
	p := newProducer(w, "hebbot.news", nil, zerolog.Nop())

	require.NoError(t, p.PublishChange(context.Background(), entities.Change{Type: entities.ChangeCleared, Count: 3}))
	assert.Equal(t, "cleared", string(w.msgs[0].Key))
}

func TestProducer_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("broker unavailable")}
	rec := &mockRecorder{}
	p := newProducer(w, "hebbot.news", rec, zerolog.Nop())

	err := p.PublishChange(context.Background(), entities.Change{Type: entities.ChangeRemoved, ItemID: "$m1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, newserrors.ErrKafkaProducer)
	assert.Equal(t, 1, rec.failed)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
