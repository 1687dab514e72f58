// Package shopify is a thin typed client for the Shopify Admin and Storefront
// GraphQL APIs. Queries are opaque documents; results are converted into domain
// types and user errors are returned to the caller for classification.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quote-service/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 10 << 20

// Observer receives the outcome of every GraphQL call.
type Observer func(api, operation string, elapsed time.Duration, err error)

// Options tunes a Client.
type Options struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     zerolog.Logger
	Observer   Observer
}

// Client issues GraphQL operations against one endpoint.
type Client struct {
	api        string
	endpoint   string
	authHeader string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	observe    Observer
}

// NewAdmin builds a client for the Admin API of shopDomain.
func NewAdmin(shopDomain, apiVersion, token string, opts Options) *Client {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, apiVersion)
	return New("admin", endpoint, "X-Shopify-Access-Token", token, opts)
}

// NewStorefront builds a client for the Storefront API of shopDomain.
func NewStorefront(shopDomain, apiVersion, token string, opts Options) *Client {
	endpoint := fmt.Sprintf("https://%s/api/%s/graphql.json", shopDomain, apiVersion)
	return New("storefront", endpoint, "X-Shopify-Storefront-Access-Token", token, opts)
}

// New builds a client for an arbitrary GraphQL endpoint.
func New(api, endpoint, authHeader, token string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		api:        api,
		endpoint:   endpoint,
		authHeader: authHeader,
		token:      token,
		httpClient: httpClient,
		limiter:    opts.Limiter,
		logger:     opts.Logger.With().Str("api", api).Logger(),
		observe:    opts.Observer,
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// Do executes one operation and decodes its data object into out.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(c.api, operation, time.Since(start), err)
		}
		if err != nil {
			c.logger.Debug().Err(err).Str("operation", operation).Dur("elapsed", time.Since(start)).Msg("graphql call failed")
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: rate limiter: %v", domain.ErrTransport, operation, err)
		}
	}

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.authHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrTransport, operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: read response: %v", domain.ErrTransport, operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrTransport, operation, resp.StatusCode, snippet(raw))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrRemoteAPI, operation, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrRemoteAPI, operation, strings.Join(msgs, "; "))
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %s: decode data: %v", domain.ErrRemoteAPI, operation, err)
	}
	return nil
}

func snippet(raw []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
