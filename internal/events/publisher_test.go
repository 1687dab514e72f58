package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"quote-service/internal/task"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

func TestRecordPublishesOutcome(t *testing.T) {
	w := &stubWriter{}
	p := NewPublisher(w)

	err := p.Record(context.Background(), task.Outcome{
		ID:           "5b0a4c1e-0c0e-4d8f-9f55-0a4c7c2f7c11",
		Kind:         "quote",
		Status:       task.StatusPDFFailed,
		DraftOrderID: "gid://shopify/DraftOrder/3",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "gid://shopify/DraftOrder/3", string(msg.Key))
	assert.Equal(t, kafka.Header{Key: "event-type", Value: []byte("quote.task.pdf_failed")}, msg.Headers[0])

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "quote.task.pdf_failed", ev.Type)
	assert.Equal(t, "quote", ev.Task.Kind)
	assert.False(t, ev.OccurredAt.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestRecordKeysByTaskWithoutDraftOrder(t *testing.T) {
	w := &stubWriter{err: errors.New("leader not available")}
	err := NewPublisher(w).Record(context.Background(), task.Outcome{ID: "t1", Status: task.StatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quote.task.failed")
	assert.Equal(t, "t1", string(w.msgs[0].Key))
}
