package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"quote-service/internal/config"
	"quote-service/internal/domain"
	"quote-service/internal/invoice"
	"quote-service/internal/logging"
	"quote-service/internal/pdf"
	"quote-service/internal/service/draftorder"
	"quote-service/internal/shopify"

	"github.com/rs/zerolog"
)

func main() {
	var (
		draftID    string
		fixture    string
		outPath    string
		templateID string
		htmlOnly   bool
	)
	flag.StringVar(&draftID, "draft", "", "Draft order id (numeric or gid) to fetch from the Admin API")
	flag.StringVar(&fixture, "fixture", "", "Path to a draft order JSON file, used instead of -draft")
	flag.StringVar(&outPath, "out", "", "Output file (default invoice.pdf or invoice.html)")
	flag.StringVar(&templateID, "template", "", "Template id (default INVOICE_TEMPLATE)")
	flag.BoolVar(&htmlOnly, "html", false, "Write the rendered HTML instead of a PDF")
	flag.Parse()

	if (draftID == "") == (fixture == "") {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := logging.New(os.Stderr, cfg.LogLevel, "console", "render")
	if templateID == "" {
		templateID = cfg.Invoice.Template
	}
	if outPath == "" {
		outPath = "invoice.pdf"
		if htmlOnly {
			outPath = "invoice.html"
		}
	}

	ctx := context.Background()
	start := time.Now()

	var admin *shopify.Client
	if cfg.Shopify.AdminConfigured() {
		admin = shopify.NewAdmin(cfg.Shopify.ShopDomain, cfg.Shopify.APIVersion, cfg.Shopify.AdminToken, shopify.Options{
			HTTPClient: &http.Client{Timeout: cfg.Shopify.RequestTimeout},
			Logger:     logger,
		})
	}

	order, err := loadDraftOrder(ctx, admin, draftID, fixture, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load draft order")
	}

	sources := []config.MerchantSource{
		config.DefaultMerchantSource(),
		config.FileMerchantSource(cfg.MerchantProfile),
		config.EnvMerchantSource(),
	}
	if admin != nil {
		sources = append(sources, shopify.MerchantSources(admin)...)
	}
	doc := invoice.Build(order, nil, invoice.Settings{
		NumberPrefix:    cfg.Invoice.NumberPrefix,
		DefaultVATRate:  cfg.Invoice.DefaultVATRate,
		ShippingVATRate: cfg.Invoice.ShippingVATRate,
		Merchant:        config.ResolveMerchant(ctx, logger, nil, sources...),
	})

	html, err := invoice.NewRenderer(cfg.Invoice.TemplateDir).Render(doc, templateID)
	if err != nil {
		logger.Fatal().Err(err).Msg("render template")
	}

	out := []byte(html)
	if !htmlOnly {
		browser := pdf.NewBrowser(pdf.ChromeLauncher(cfg.PDF.ChromePath), logger, pdf.Options{
			RenderTimeout:      cfg.PDF.RenderTimeout,
			NetworkIdleTimeout: cfg.PDF.NetworkIdleTimeout,
		})
		out, err = browser.RenderPDF(ctx, html)
		_ = browser.Close(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("rasterize")
		}
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write output")
	}
	fmt.Printf("Rendered invoice %s for %s to %s in %s\n", doc.Number, order.Name, outPath, time.Since(start).Truncate(time.Millisecond))
}

func loadDraftOrder(ctx context.Context, admin *shopify.Client, draftID, fixture string, logger zerolog.Logger) (*domain.DraftOrder, error) {
	if fixture != "" {
		data, err := os.ReadFile(fixture)
		if err != nil {
			return nil, err
		}
		var order domain.DraftOrder
		if err := json.Unmarshal(data, &order); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fixture, err)
		}
		if strings.TrimSpace(order.Name) == "" {
			return nil, fmt.Errorf("%w: fixture has no draft order name", domain.ErrValidation)
		}
		return &order, nil
	}
	if admin == nil {
		return nil, fmt.Errorf("%w: -draft needs SHOPIFY_SHOP_DOMAIN and SHOPIFY_ADMIN_ACCESS_TOKEN", domain.ErrConfiguration)
	}
	return draftorder.New(admin, nil, logger).FetchDraftOrderByID(ctx, draftID)
}
