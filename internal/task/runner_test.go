package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
	err      error
}

func (m *memRecorder) Record(_ context.Context, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
	return m.err
}

func (m *memRecorder) all() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outcome(nil), m.outcomes...)
}

type ctxKey struct{}

func TestSubmitRunsDetachedFromCaller(t *testing.T) {
	rec := &memRecorder{}
	r := NewRunner(zerolog.Nop(), 2, rec)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	started := make(chan struct{})
	id, err := r.Submit(ctx, Outcome{Kind: "quote"}, func(ctx context.Context) Outcome {
		close(started)
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() != nil {
			return Outcome{Status: StatusFailed, Error: ctx.Err().Error()}
		}
		return Outcome{DraftOrderID: ctx.Value(ctxKey{}).(string)}
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	<-started
	cancel()
	require.NoError(t, r.Shutdown(context.Background()))

	out := rec.all()
	require.Len(t, out, 2)
	assert.Equal(t, StatusRunning, out[0].Status)
	assert.Equal(t, id, out[0].ID)
	assert.Equal(t, id, out[1].ID)
	assert.Equal(t, "quote", out[1].Kind)
	assert.Equal(t, StatusCompleted, out[1].Status)
	assert.Equal(t, "req-1", out[1].DraftOrderID)
	assert.Equal(t, out[0].StartedAt, out[1].StartedAt)
	assert.False(t, out[1].FinishedAt.Before(out[1].StartedAt))
}

func TestPanicIsRecordedAsFailure(t *testing.T) {
	rec := &memRecorder{err: errors.New("journal down")}
	second := &memRecorder{}
	r := NewRunner(zerolog.Nop(), 0, rec, second)

	seed := Outcome{Kind: "quote", DraftOrderID: "gid://shopify/DraftOrder/1", DraftOrderName: "#D1"}
	_, err := r.Submit(context.Background(), seed, func(context.Context) Outcome {
		panic("nil draft order")
	})
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))

	out := second.all()
	require.Len(t, out, 2, "a failing recorder does not stop the next one")
	assert.Equal(t, StatusFailed, out[1].Status)
	assert.Contains(t, out[1].Error, "nil draft order")
	assert.Equal(t, "#D1", out[1].DraftOrderName, "seed fields survive a panic")
}

func TestConcurrencyLimit(t *testing.T) {
	r := NewRunner(zerolog.Nop(), 2)
	var running, peak atomic.Int32
	for i := 0; i < 8; i++ {
		_, err := r.Submit(context.Background(), Outcome{Kind: "quote"}, func(context.Context) Outcome {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return Outcome{}
		})
		require.NoError(t, err)
	}
	require.NoError(t, r.Shutdown(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestShutdown(t *testing.T) {
	r := NewRunner(zerolog.Nop(), 1)
	release := make(chan struct{})
	_, err := r.Submit(context.Background(), Outcome{Kind: "quote"}, func(context.Context) Outcome {
		<-release
		return Outcome{}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Shutdown(ctx), context.DeadlineExceeded)

	_, err = r.Submit(context.Background(), Outcome{Kind: "quote"}, func(context.Context) Outcome { return Outcome{} })
	assert.ErrorIs(t, err, ErrShuttingDown)

	close(release)
	assert.NoError(t, r.Shutdown(context.Background()))
}
