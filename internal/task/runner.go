// Package task runs detached background jobs. A job outlives the request that
// submitted it, its panics are contained, and its outcome is logged and handed
// to every registered Recorder. Nobody awaits a job.
package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	StatusRunning    = "running"
	StatusCompleted  = "completed"
	StatusPDFFailed  = "pdf_failed"
	StatusSendFailed = "send_failed"
	StatusFailed     = "failed"

	recordTimeout = 5 * time.Second
)

// ErrShuttingDown is returned by Submit once Shutdown has started.
var ErrShuttingDown = errors.New("task runner shutting down")

// Outcome is the final state of one job.
type Outcome struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	DraftOrderID   string    `json:"draftOrderId,omitempty"`
	DraftOrderName string    `json:"draftOrderName,omitempty"`
	PDFURL         string    `json:"pdfUrl,omitempty"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Duration is the wall time the job ran.
func (o Outcome) Duration() time.Duration { return o.FinishedAt.Sub(o.StartedAt) }

// Recorder persists or forwards outcomes. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Func is the body of a job. It reports its own status through the returned
// Outcome; ID, Kind and timestamps are filled in by the Runner and empty fields
// are taken from the seed passed to Submit.
type Func func(ctx context.Context) Outcome

type Runner struct {
	logger    zerolog.Logger
	recorders []Recorder
	sem       chan struct{}

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewRunner returns a Runner executing at most maxConcurrent jobs at once;
// maxConcurrent <= 0 means unbounded.
func NewRunner(logger zerolog.Logger, maxConcurrent int, recorders ...Recorder) *Runner {
	r := &Runner{logger: logger, recorders: recorders}
	if maxConcurrent > 0 {
		r.sem = make(chan struct{}, maxConcurrent)
	}
	return r
}

// Submit starts fn in the background and returns its id. seed names the job
// (Kind) and its subject. fn receives a context that keeps ctx's values but not
// its cancellation or deadline.
func (r *Runner) Submit(ctx context.Context, seed Outcome, fn Func) (string, error) {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return "", ErrShuttingDown
	}
	r.wg.Add(1)
	r.mu.Unlock()

	id := uuid.NewString()
	detached := context.WithoutCancel(ctx)
	seed.ID = id
	go r.run(detached, seed, fn)
	return id, nil
}

func (r *Runner) run(ctx context.Context, seed Outcome, fn Func) {
	defer r.wg.Done()
	if r.sem != nil {
		r.sem <- struct{}{}
		defer func() { <-r.sem }()
	}
	log := r.logger.With().Str("task_id", seed.ID).Str("kind", seed.Kind).Logger()

	seed.Status, seed.StartedAt = StatusRunning, time.Now()
	log.Debug().Str("draft_order_id", seed.DraftOrderID).Msg("task started")
	r.record(ctx, log, seed)

	o := r.execute(ctx, log, fn)
	o.ID, o.Kind = seed.ID, seed.Kind
	if o.DraftOrderID == "" {
		o.DraftOrderID = seed.DraftOrderID
	}
	if o.DraftOrderName == "" {
		o.DraftOrderName = seed.DraftOrderName
	}
	o.StartedAt, o.FinishedAt = seed.StartedAt, time.Now()
	if o.Status == "" || o.Status == StatusRunning {
		o.Status = StatusCompleted
	}

	ev := log.Info()
	if o.Status != StatusCompleted {
		ev = log.Warn()
	}
	ev.Str("status", o.Status).
		Str("draft_order_id", o.DraftOrderID).
		Str("pdf_url", o.PDFURL).
		Str("error", o.Error).
		Dur("elapsed", o.Duration()).
		Msg("task finished")
	r.record(ctx, log, o)
}

func (r *Runner) record(ctx context.Context, log zerolog.Logger, o Outcome) {
	for _, rec := range r.recorders {
		rctx, cancel := context.WithTimeout(ctx, recordTimeout)
		if err := rec.Record(rctx, o); err != nil {
			log.Warn().Err(err).Msgf("record outcome with %T", rec)
		}
		cancel()
	}
}

func (r *Runner) execute(ctx context.Context, log zerolog.Logger, fn Func) (o Outcome) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("stack", string(debug.Stack())).Msgf("task panicked: %v", p)
			o = Outcome{Status: StatusFailed, Error: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return fn(ctx)
}

// Shutdown stops accepting jobs and waits for running ones until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("tasks still running: %w", ctx.Err())
	}
}
