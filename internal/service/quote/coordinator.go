package quote

import (
	"context"
	"fmt"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/invoice"

	"github.com/rs/zerolog"
)

const (
	MetafieldNamespace   = "custom"
	MetafieldPDF         = "quote_pdf"
	MetafieldGeneratedAt = "quote_pdf_generated_at"
)

// Result is the outcome of one PDF generation. URL is empty unless Status is
// task.StatusCompleted.
type Result struct {
	Status string
	URL    string
}

type renderer interface {
	Render(doc invoice.Document, id string) (string, error)
}

type rasterizer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type uploader interface {
	UploadPDF(ctx context.Context, data []byte, filename, alt string) (domain.RemoteFile, error)
}

type attacher interface {
	AttachMetafields(ctx context.Context, id string, fields []domain.Metafield) error
}

// Coordinator turns a draft order snapshot into an attached invoice PDF.
type Coordinator struct {
	renderer   renderer
	rasterizer rasterizer
	uploader   uploader
	attacher   attacher
	settings   invoice.Settings
	templateID string
	logger     zerolog.Logger
	now        func() time.Time
}

func NewCoordinator(r renderer, ras rasterizer, up uploader, at attacher, settings invoice.Settings, templateID string, logger zerolog.Logger) *Coordinator {
	if templateID == "" {
		templateID = invoice.TemplateVATInvoice
	}
	now := settings.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		renderer:   r,
		rasterizer: ras,
		uploader:   up,
		attacher:   at,
		settings:   settings,
		templateID: templateID,
		logger:     logger,
		now:        now,
	}
}

// GenerateAndAttachPDF renders, uploads and attaches the invoice of order. It
// never fails: any error is logged and reported as StatusPDFFailed.
func (c *Coordinator) GenerateAndAttachPDF(ctx context.Context, order *domain.DraftOrder, payload *domain.CheckoutPayload) (res Result) {
	log := c.logger.With().Str("template", c.templateID).Logger()
	if order != nil {
		log = log.With().Str("draft_order_id", order.ID).Str("name", order.Name).Logger()
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Msgf("pdf generation panicked: %v", p)
			res = Result{Status: statusPDFFailed}
		}
	}()

	url, stage, err := c.generate(ctx, order, payload)
	if err != nil {
		log.Error().Err(err).Str("stage", stage).Msg("pdf generation failed")
		return Result{Status: statusPDFFailed}
	}
	log.Info().Str("url", url).Msg("pdf attached")
	return Result{Status: statusCompleted, URL: url}
}

func (c *Coordinator) generate(ctx context.Context, order *domain.DraftOrder, payload *domain.CheckoutPayload) (string, string, error) {
	if order == nil {
		return "", "build", fmt.Errorf("%w: draft order required", domain.ErrValidation)
	}
	doc := invoice.Build(order, payload, c.settings)

	html, err := c.renderer.Render(doc, c.templateID)
	if err != nil {
		return "", "render", err
	}
	pdf, err := c.rasterizer.RenderPDF(ctx, html)
	if err != nil {
		return "", "rasterize", err
	}

	filename := fmt.Sprintf("vat_invoice_%s.pdf", doc.Number)
	file, err := c.uploader.UploadPDF(ctx, pdf, filename, "Invoice "+doc.Number)
	if err != nil {
		return "", "upload", err
	}

	fields := []domain.Metafield{
		{Namespace: MetafieldNamespace, Key: MetafieldPDF, Type: "url", Value: file.URL},
		{Namespace: MetafieldNamespace, Key: MetafieldGeneratedAt, Type: "date_time", Value: c.now().UTC().Format(time.RFC3339)},
	}
	if err := c.attacher.AttachMetafields(ctx, order.ID, fields); err != nil {
		return "", "attach", err
	}
	return file.URL, "", nil
}
