package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quote-service/internal/config"
	"quote-service/internal/db"
	"quote-service/internal/events"
	"quote-service/internal/httpserver"
	"quote-service/internal/invoice"
	"quote-service/internal/logging"
	"quote-service/internal/metrics"
	"quote-service/internal/migrate"
	"quote-service/internal/pdf"
	taskrepo "quote-service/internal/repository/task"
	cartsvc "quote-service/internal/service/cart"
	"quote-service/internal/service/draftorder"
	"quote-service/internal/service/quote"
	"quote-service/internal/shopify"
	"quote-service/internal/task"
	"quote-service/internal/upload"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat, "api")

	ctx := context.Background()

	var m *metrics.Metrics
	if cfg.PrometheusEnabled {
		m = metrics.New()
	}

	admin, storefront := shopifyClients(cfg.Shopify, logger, m)
	if admin == nil {
		logger.Warn().Msg("SHOPIFY_SHOP_DOMAIN or SHOPIFY_ADMIN_ACCESS_TOKEN missing, draft order endpoints will fail")
	}
	if storefront == nil {
		logger.Info().Msg("storefront api not configured, cart tokens are ignored")
	}

	merchant := resolveMerchant(ctx, cfg, admin, logger)

	var recorders []task.Recorder
	if m != nil {
		recorders = append(recorders, m)
	}

	var pool *pgxpool.Pool
	var journal taskrepo.Repository
	if cfg.DBConnString != "" {
		var err error
		pool, err = db.Connect(ctx, cfg.DBConnString, int32(cfg.DBMaxConns))
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to journal db")
		}
		if cfg.AutoMigrate {
			if err := migrate.Apply(ctx, pool); err != nil {
				logger.Fatal().Err(err).Msg("apply journal migrations")
			}
		}
		journal = taskrepo.NewPostgres(pool)
		recorders = append(recorders, journal)
	}

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		recorders = append(recorders, publisher)
	}

	runner := task.NewRunner(logger.With().Str("module", "task").Logger(), cfg.TaskMaxConcurrent, recorders...)

	carts := newCartService(storefront, logger.With().Str("module", "cart").Logger())
	drafts := newDraftService(admin, carts, logger.With().Str("module", "draftorder").Logger())

	browser := pdf.NewBrowser(pdf.ChromeLauncher(cfg.PDF.ChromePath), logger.With().Str("module", "pdf").Logger(), pdf.Options{
		RenderTimeout:      cfg.PDF.RenderTimeout,
		NetworkIdleTimeout: cfg.PDF.NetworkIdleTimeout,
	})
	uploader := newUploader(admin, cfg.Invoice, m, logger.With().Str("module", "upload").Logger())

	coordinator := quote.NewCoordinator(
		invoice.NewRenderer(cfg.Invoice.TemplateDir),
		browser,
		uploader,
		drafts,
		invoice.Settings{
			NumberPrefix:    cfg.Invoice.NumberPrefix,
			DefaultVATRate:  cfg.Invoice.DefaultVATRate,
			ShippingVATRate: cfg.Invoice.ShippingVATRate,
			Merchant:        merchant,
		},
		cfg.Invoice.Template,
		logger.With().Str("module", "invoice").Logger(),
	)
	quotes := quote.New(drafts, coordinator, runner, logger.With().Str("module", "quote").Logger(), quote.Options{
		AnnotateFailures: cfg.Invoice.AnnotateFailures,
	})

	deps := httpserver.Deps{
		Drafts:      drafts,
		Quotes:      quotes,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Features: httpserver.Features{
			AdminAPI:      admin != nil,
			StorefrontAPI: storefront != nil,
			PDF:           admin != nil,
			Journal:       journal != nil,
			Events:        publisher != nil,
		},
	}
	if journal != nil {
		deps.Journal = journal
		deps.DB = pool
	}
	if m != nil {
		deps.Metrics = m.Handler()
	}
	srv := httpserver.New(cfg.HTTPAddr, logger.With().Str("module", "http").Logger(), deps)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
	if err := runner.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("background tasks still running")
	}
	if err := browser.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("close browser")
	}
	if pool != nil {
		pool.Close()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("close kafka writer")
		}
	}
}

func shopifyClients(cfg config.Shopify, logger zerolog.Logger, m *metrics.Metrics) (admin, storefront *shopify.Client) {
	opts := func() shopify.Options {
		o := shopify.Options{
			HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
			Logger:     logger.With().Str("module", "shopify").Logger(),
		}
		if cfg.RateLimit > 0 {
			o.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
		}
		if m != nil {
			o.Observer = m.ObserveGraphQL
		}
		return o
	}
	if cfg.AdminConfigured() {
		admin = shopify.NewAdmin(cfg.ShopDomain, cfg.APIVersion, cfg.AdminToken, opts())
	}
	if cfg.StorefrontConfigured() {
		storefront = shopify.NewStorefront(cfg.ShopDomain, cfg.APIVersion, cfg.StorefrontToken, opts())
	}
	return admin, storefront
}

func resolveMerchant(ctx context.Context, cfg config.Config, admin *shopify.Client, logger zerolog.Logger) config.Merchant {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pinned := config.Precedence{}
	for _, field := range cfg.MerchantEnvPinned {
		pinned[field] = "env"
	}
	sources := []config.MerchantSource{
		config.DefaultMerchantSource(),
		config.FileMerchantSource(cfg.MerchantProfile),
		config.EnvMerchantSource(),
	}
	if admin != nil {
		sources = append(sources, shopify.MerchantSources(admin)...)
	}
	merchant := config.ResolveMerchant(ctx, logger, pinned, sources...)
	logger.Info().Str("merchant", merchant.Name).Str("vat_number", merchant.VATNumber).Msg("merchant profile resolved")
	return merchant
}

// The constructors below take interfaces; a nil *shopify.Client must reach
// them as an untyped nil.

func newCartService(storefront *shopify.Client, logger zerolog.Logger) *cartsvc.Service {
	if storefront == nil {
		return cartsvc.New(nil, logger)
	}
	return cartsvc.New(storefront, logger)
}

func newDraftService(admin *shopify.Client, carts *cartsvc.Service, logger zerolog.Logger) *draftorder.Service {
	if admin == nil {
		return draftorder.New(nil, carts, logger)
	}
	return draftorder.New(admin, carts, logger)
}

func newUploader(admin *shopify.Client, cfg config.Invoice, m *metrics.Metrics, logger zerolog.Logger) *upload.Uploader {
	opts := upload.Options{MaxRetries: cfg.PollMaxRetries, PollDelay: cfg.PollDelay}
	if m != nil {
		opts.Observer = m.ObserveUpload
	}
	if admin == nil {
		return upload.New(nil, logger, opts)
	}
	return upload.New(admin, logger, opts)
}
