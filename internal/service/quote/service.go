package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/task"

	"github.com/rs/zerolog"
)

const (
	statusCompleted = task.StatusCompleted
	statusPDFFailed = task.StatusPDFFailed

	KindQuote = "quote"

	PDFPending     = "pending"
	PDFUnavailable = "unavailable"
)

type drafts interface {
	ProcessCheckoutData(ctx context.Context, payload domain.CheckoutPayload) (*domain.DraftOrder, domain.CheckoutPayload, error)
	FetchDraftOrderByID(ctx context.Context, id string) (*domain.DraftOrder, error)
	SendInvoice(ctx context.Context, id string, opts *domain.EmailOptions) (*domain.DraftOrder, error)
	AppendNote(ctx context.Context, id, line string)
}

type generator interface {
	GenerateAndAttachPDF(ctx context.Context, order *domain.DraftOrder, payload *domain.CheckoutPayload) Result
}

type runner interface {
	Submit(ctx context.Context, seed task.Outcome, fn task.Func) (string, error)
}

// Service runs the quote workflow: draft order creation followed by a
// background job that attaches the invoice PDF and emails the invoice.
type Service struct {
	drafts           drafts
	pdf              generator
	tasks            runner
	annotateFailures bool
	logger           zerolog.Logger
}

type Options struct {
	// AnnotateFailures appends a note to draft orders whose PDF step failed.
	AnnotateFailures bool
}

func New(d drafts, pdf generator, tasks runner, logger zerolog.Logger, opts Options) *Service {
	return &Service{drafts: d, pdf: pdf, tasks: tasks, annotateFailures: opts.AnnotateFailures, logger: logger}
}

// Started is the synchronous part of a quote request.
type Started struct {
	DraftOrder *domain.DraftOrder
	TaskID     string
	PDF        string
}

// StartQuote creates the draft order and schedules PDF generation and the
// invoice email. Only creation errors are returned; the job reports through
// task outcomes.
func (s *Service) StartQuote(ctx context.Context, payload domain.CheckoutPayload) (Started, error) {
	order, used, err := s.drafts.ProcessCheckoutData(ctx, payload)
	if err != nil {
		return Started{}, err
	}
	started := Started{DraftOrder: order, PDF: PDFPending}
	seed := task.Outcome{Kind: KindQuote, DraftOrderID: order.ID, DraftOrderName: order.Name}
	id, err := s.tasks.Submit(ctx, seed, s.job(order, used))
	if err != nil {
		s.logger.Warn().Err(err).Str("draft_order_id", order.ID).Msg("quote job not scheduled")
		started.PDF = PDFUnavailable
		return started, nil
	}
	started.TaskID = id
	return started, nil
}

func (s *Service) job(created *domain.DraftOrder, payload domain.CheckoutPayload) task.Func {
	return func(ctx context.Context) task.Outcome {
		out := task.Outcome{DraftOrderID: created.ID, DraftOrderName: created.Name}
		var errs []error

		pdf := Result{Status: statusPDFFailed}
		order, err := s.drafts.FetchDraftOrderByID(ctx, created.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch draft order: %w", err))
		} else {
			pdf = s.pdf.GenerateAndAttachPDF(ctx, order, &payload)
			if pdf.Status != statusCompleted {
				errs = append(errs, errors.New("pdf generation failed"))
			}
		}
		out.PDFURL = pdf.URL
		if pdf.Status != statusCompleted && s.annotateFailures {
			s.drafts.AppendNote(ctx, created.ID, fmt.Sprintf("Invoice PDF could not be generated (%s).", time.Now().UTC().Format(time.RFC3339)))
		}

		_, sendErr := s.drafts.SendInvoice(ctx, created.ID, payload.Email)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send invoice: %w", sendErr))
		}

		switch {
		case pdf.Status == statusCompleted && sendErr == nil:
			out.Status = task.StatusCompleted
		case sendErr == nil:
			out.Status = task.StatusPDFFailed
		case pdf.Status == statusCompleted:
			out.Status = task.StatusSendFailed
		default:
			out.Status = task.StatusFailed
		}
		if err := errors.Join(errs...); err != nil {
			out.Error = err.Error()
		}
		return out
	}
}

// FromDraft generates and attaches the PDF of an existing draft order synchronously.
func (s *Service) FromDraft(ctx context.Context, id string) (*domain.DraftOrder, Result, error) {
	order, err := s.drafts.FetchDraftOrderByID(ctx, id)
	if err != nil {
		return nil, Result{}, err
	}
	return order, s.pdf.GenerateAndAttachPDF(ctx, order, nil), nil
}

// SendQuote emails the invoice of an existing draft order.
func (s *Service) SendQuote(ctx context.Context, id string, opts *domain.EmailOptions) (*domain.DraftOrder, error) {
	return s.drafts.SendInvoice(ctx, id, opts)
}
