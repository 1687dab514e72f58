package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr           string
	ShutdownTimeout    time.Duration
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string
	PrometheusEnabled  bool

	Shopify Shopify
	Invoice Invoice
	PDF     PDF

	// DBConnString enables the task outcome journal when set.
	DBConnString string
	DBMaxConns   int
	AutoMigrate  bool

	KafkaBrokers []string
	KafkaTopic   string

	TaskMaxConcurrent int
	MerchantProfile   string
	// MerchantEnvPinned lists merchant fields (yaml keys) that only MERCHANT_* env may set.
	MerchantEnvPinned []string
}

// Shopify holds the commerce platform connection settings.
type Shopify struct {
	ShopDomain      string
	APIVersion      string
	AdminToken      string
	StorefrontToken string
	RequestTimeout  time.Duration
	RateLimit       float64
	RateBurst       int
}

// AdminConfigured reports whether the Admin API client can be built.
func (s Shopify) AdminConfigured() bool {
	return s.ShopDomain != "" && s.AdminToken != ""
}

// StorefrontConfigured reports whether the Storefront API client can be built.
func (s Shopify) StorefrontConfigured() bool {
	return s.ShopDomain != "" && s.StorefrontToken != ""
}

// Invoice holds invoice document and upload settings.
type Invoice struct {
	Template        string
	TemplateDir     string
	NumberPrefix    string
	DefaultVATRate  float64
	ShippingVATRate float64
	PollMaxRetries  int
	PollDelay       time.Duration
	// AnnotateFailures appends a note to the draft order when background PDF generation fails.
	AnnotateFailures bool
}

// PDF holds headless browser settings.
type PDF struct {
	ChromePath         string
	RenderTimeout      time.Duration
	NetworkIdleTimeout time.Duration
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT_SECONDS", 30*time.Second),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		PrometheusEnabled:  envBool("PROMETHEUS_ENABLED", false),
		Shopify: Shopify{
			ShopDomain:      envOrDefault("SHOPIFY_SHOP_DOMAIN", ""),
			APIVersion:      envOrDefault("SHOPIFY_API_VERSION", "2025-07"),
			AdminToken:      envOrDefault("SHOPIFY_ADMIN_ACCESS_TOKEN", ""),
			StorefrontToken: envOrDefault("SHOPIFY_STOREFRONT_ACCESS_TOKEN", ""),
			RequestTimeout:  envDuration("SHOPIFY_TIMEOUT_SECONDS", 30*time.Second),
			RateLimit:       envFloat("SHOPIFY_RATE_LIMIT", 4),
			RateBurst:       envInt("SHOPIFY_RATE_BURST", 8),
		},
		Invoice: Invoice{
			Template:         envOrDefault("INVOICE_TEMPLATE", "vat_invoice"),
			TemplateDir:      envOrDefault("TEMPLATE_DIR", ""),
			NumberPrefix:     envOrDefault("INVOICE_NUMBER_PREFIX", "INV-EE-"),
			DefaultVATRate:   envFloat("DEFAULT_VAT_RATE", 0.24),
			ShippingVATRate:  envFloat("SHIPPING_VAT_RATE", 0.24),
			PollMaxRetries:   envInt("FILE_POLL_MAX_RETRIES", 10),
			PollDelay:        envMillis("FILE_POLL_DELAY_MS", time.Second),
			AnnotateFailures: envBool("ANNOTATE_FAILED_QUOTES", false),
		},
		PDF: PDF{
			ChromePath:         envOrDefault("CHROME_PATH", ""),
			RenderTimeout:      envDuration("PDF_RENDER_TIMEOUT_SECONDS", 60*time.Second),
			NetworkIdleTimeout: envDuration("PDF_NETWORK_IDLE_SECONDS", 10*time.Second),
		},
		DBConnString:      envOrDefault("DB_DSN", ""),
		DBMaxConns:        envInt("DB_MAX_CONNS", 4),
		AutoMigrate:       envBool("DB_AUTO_MIGRATE", false),
		KafkaBrokers:      envList("KAFKA_BROKERS", nil),
		KafkaTopic:        envOrDefault("KAFKA_TOPIC", "quote-tasks"),
		TaskMaxConcurrent: envInt("TASK_MAX_CONCURRENT", 4),
		MerchantProfile:   envOrDefault("MERCHANT_PROFILE", ""),
		MerchantEnvPinned: envList("MERCHANT_ENV_PINNED", nil),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		ms, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
