package quote

import (
	"context"
	"errors"
	"testing"

	"quote-service/internal/domain"
	"quote-service/internal/task"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDrafts struct {
	created     *domain.DraftOrder
	createErr   error
	usedPayload domain.CheckoutPayload

	order    *domain.DraftOrder
	fetchErr error

	sendErr   error
	sendCalls int
	lastEmail *domain.EmailOptions

	notes []string
}

func (s *stubDrafts) ProcessCheckoutData(_ context.Context, p domain.CheckoutPayload) (*domain.DraftOrder, domain.CheckoutPayload, error) {
	s.usedPayload = p
	return s.created, p, s.createErr
}

func (s *stubDrafts) FetchDraftOrderByID(_ context.Context, _ string) (*domain.DraftOrder, error) {
	return s.order, s.fetchErr
}

func (s *stubDrafts) SendInvoice(_ context.Context, _ string, opts *domain.EmailOptions) (*domain.DraftOrder, error) {
	s.sendCalls++
	s.lastEmail = opts
	return s.order, s.sendErr
}

func (s *stubDrafts) AppendNote(_ context.Context, _, line string) {
	s.notes = append(s.notes, line)
}

type stubGenerator struct {
	result      Result
	calls       int
	lastPayload *domain.CheckoutPayload
}

func (g *stubGenerator) GenerateAndAttachPDF(_ context.Context, _ *domain.DraftOrder, p *domain.CheckoutPayload) Result {
	g.calls++
	g.lastPayload = p
	return g.result
}

// inlineRunner runs jobs synchronously and keeps their outcomes.
type inlineRunner struct {
	outcomes []task.Outcome
	err      error
}

func (r *inlineRunner) Submit(ctx context.Context, _ task.Outcome, fn task.Func) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.outcomes = append(r.outcomes, fn(ctx))
	return "task-1", nil
}

func draft() *domain.DraftOrder {
	return &domain.DraftOrder{ID: "gid://shopify/DraftOrder/9", Name: "#D9"}
}

func TestStartQuoteRunsJob(t *testing.T) {
	d := &stubDrafts{created: draft(), order: draft()}
	g := &stubGenerator{result: Result{Status: task.StatusCompleted, URL: "https://cdn/x.pdf"}}
	r := &inlineRunner{}
	email := &domain.EmailOptions{To: "buyer@example.com"}

	started, err := New(d, g, r, zerolog.Nop(), Options{}).StartQuote(context.Background(), domain.CheckoutPayload{Email: email})
	require.NoError(t, err)
	assert.Equal(t, "task-1", started.TaskID)
	assert.Equal(t, PDFPending, started.PDF)
	assert.Equal(t, "#D9", started.DraftOrder.Name)

	require.Len(t, r.outcomes, 1)
	o := r.outcomes[0]
	assert.Equal(t, task.StatusCompleted, o.Status)
	assert.Equal(t, "https://cdn/x.pdf", o.PDFURL)
	assert.Equal(t, "gid://shopify/DraftOrder/9", o.DraftOrderID)
	assert.Empty(t, o.Error)
	assert.Same(t, email, d.lastEmail)
	require.NotNil(t, g.lastPayload)
	assert.Same(t, email, g.lastPayload.Email)
}

func TestStartQuoteCreationErrorSkipsJob(t *testing.T) {
	d := &stubDrafts{createErr: domain.ErrValidation}
	r := &inlineRunner{}

	_, err := New(d, &stubGenerator{}, r, zerolog.Nop(), Options{}).StartQuote(context.Background(), domain.CheckoutPayload{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, r.outcomes)
}

func TestStartQuoteWhenRunnerStopped(t *testing.T) {
	d := &stubDrafts{created: draft()}
	started, err := New(d, &stubGenerator{}, &inlineRunner{err: task.ErrShuttingDown}, zerolog.Nop(), Options{}).
		StartQuote(context.Background(), domain.CheckoutPayload{})
	require.NoError(t, err)
	assert.Equal(t, PDFUnavailable, started.PDF)
	assert.Empty(t, started.TaskID)
}

func TestQuoteJobOutcomes(t *testing.T) {
	cases := []struct {
		name      string
		fetchErr  error
		pdf       string
		sendErr   error
		want      string
		wantNotes int
	}{
		{"pdf failed still sends", nil, task.StatusPDFFailed, nil, task.StatusPDFFailed, 1},
		{"send failed", nil, task.StatusCompleted, domain.ErrInvoiceSend, task.StatusSendFailed, 0},
		{"both failed", nil, task.StatusPDFFailed, errors.New("down"), task.StatusFailed, 1},
		{"fetch failed", domain.ErrNotFound, task.StatusCompleted, nil, task.StatusPDFFailed, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &stubDrafts{created: draft(), order: draft(), fetchErr: tc.fetchErr, sendErr: tc.sendErr}
			g := &stubGenerator{result: Result{Status: tc.pdf}}
			r := &inlineRunner{}

			_, err := New(d, g, r, zerolog.Nop(), Options{AnnotateFailures: true}).StartQuote(context.Background(), domain.CheckoutPayload{})
			require.NoError(t, err)
			require.Len(t, r.outcomes, 1)
			assert.Equal(t, tc.want, r.outcomes[0].Status)
			assert.Equal(t, 1, d.sendCalls, "invoice is sent regardless of the pdf outcome")
			assert.Len(t, d.notes, tc.wantNotes)
			assert.NotEmpty(t, r.outcomes[0].Error)
			if tc.fetchErr != nil {
				assert.Equal(t, 0, g.calls)
			}
		})
	}
}

func TestQuoteJobDoesNotAnnotateByDefault(t *testing.T) {
	d := &stubDrafts{created: draft(), order: draft()}
	r := &inlineRunner{}
	_, err := New(d, &stubGenerator{result: Result{Status: task.StatusPDFFailed}}, r, zerolog.Nop(), Options{}).
		StartQuote(context.Background(), domain.CheckoutPayload{})
	require.NoError(t, err)
	assert.Empty(t, d.notes)
}

func TestFromDraft(t *testing.T) {
	d := &stubDrafts{order: draft()}
	g := &stubGenerator{result: Result{Status: task.StatusCompleted, URL: "https://cdn/y.pdf"}}
	svc := New(d, g, &inlineRunner{}, zerolog.Nop(), Options{})

	order, res, err := svc.FromDraft(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "#D9", order.Name)
	assert.Equal(t, "https://cdn/y.pdf", res.URL)
	assert.Nil(t, g.lastPayload)

	d.fetchErr = domain.ErrNotFound
	_, _, err = svc.FromDraft(context.Background(), "9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
