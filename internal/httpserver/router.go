package httpserver

import (
	"context"
	"net/http"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/service/quote"
	"quote-service/internal/task"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type draftOrders interface {
	ProcessCheckoutData(ctx context.Context, payload domain.CheckoutPayload) (*domain.DraftOrder, domain.CheckoutPayload, error)
}

type quotes interface {
	StartQuote(ctx context.Context, payload domain.CheckoutPayload) (quote.Started, error)
	FromDraft(ctx context.Context, id string) (*domain.DraftOrder, quote.Result, error)
	SendQuote(ctx context.Context, id string, opts *domain.EmailOptions) (*domain.DraftOrder, error)
}

type taskJournal interface {
	GetByID(ctx context.Context, id string) (*task.Outcome, error)
	ListByDraftOrder(ctx context.Context, draftOrderID string, limit int) ([]task.Outcome, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Features is reported by the per-service health endpoints.
type Features struct {
	AdminAPI      bool `json:"adminApi"`
	StorefrontAPI bool `json:"storefrontApi"`
	PDF           bool `json:"pdf"`
	Journal       bool `json:"journal"`
	Events        bool `json:"events"`
}

// Deps are the collaborators of the router. Journal, DB and Metrics may be nil.
type Deps struct {
	Drafts      draftOrders
	Quotes      quotes
	Journal     taskJournal
	DB          pinger
	Metrics     http.Handler
	Features    Features
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger), gin.Recovery(), cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	h := &handlers{drafts: deps.Drafts, quotes: deps.Quotes, journal: deps.Journal, logger: logger}

	router.GET("/draft-orders/health", featureHealth("draft-orders", deps.Features))
	router.POST("/draft-orders", h.createDraftOrder)

	router.GET("/print-quote/health", featureHealth("print-quote", deps.Features))
	router.POST("/print-quote", h.printQuote)
	router.POST("/print-quote/from-draft", h.printQuoteFromDraft)
	router.GET("/print-quote/tasks", h.listTasks)
	router.GET("/print-quote/tasks/:id", h.getTask)

	router.GET("/send-quote/health", featureHealth("send-quote", deps.Features))
	router.POST("/send-quote", h.sendQuote)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
