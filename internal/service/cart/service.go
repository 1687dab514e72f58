package cart

import (
	"context"

	"quote-service/internal/domain"
	"quote-service/internal/shopify"

	"github.com/rs/zerolog"
)

// Service resolves storefront cart tokens into live cart contents.
type Service struct {
	storefront storefront
	logger     zerolog.Logger
}

type storefront interface {
	Cart(ctx context.Context, token string) (*shopify.Cart, error)
}

// New returns a Service. A nil storefront disables live resolution.
func New(sf storefront, logger zerolog.Logger) *Service {
	return &Service{storefront: sf, logger: logger}
}

// Resolve merges the live cart behind payload.CartToken into a copy of payload.
// Live lines, customer and pricing supersede the submitted ones; the shipping
// address is merged field by field with live values first. Any failure to read
// the live cart is logged and the payload is returned unchanged.
func (s *Service) Resolve(ctx context.Context, payload domain.CheckoutPayload) domain.CheckoutPayload {
	if payload.CartToken == "" {
		return payload
	}
	log := s.logger.With().Str("cart_token", payload.CartToken).Logger()
	if s.storefront == nil {
		log.Warn().Msg("storefront api not configured; using submitted cart")
		return payload
	}
	live, err := s.storefront.Cart(ctx, payload.CartToken)
	if err != nil {
		log.Warn().Err(err).Msg("live cart fetch failed; using submitted cart")
		return payload
	}
	if live == nil || len(live.Lines) == 0 {
		log.Info().Msg("live cart empty or missing; using submitted cart")
		return payload
	}
	return Merge(payload, live)
}

// Merge applies live cart data over payload.
func Merge(payload domain.CheckoutPayload, live *shopify.Cart) domain.CheckoutPayload {
	out := payload
	out.CartLines = live.Lines
	if live.Customer != nil {
		c := mergeCustomer(live.Customer, payload.Customer)
		out.Customer = &c
	}
	if live.Pricing != nil {
		p := *live.Pricing
		out.Pricing = &p
	}
	if live.ShippingAddress != nil || payload.ShippingAddress != nil {
		addr := domain.MergeAddress(live.ShippingAddress, payload.ShippingAddress)
		out.ShippingAddress = &addr
	}
	if out.Note == "" {
		out.Note = live.Note
	}
	out.FromLiveCart = true
	return out
}

func mergeCustomer(live, submitted *domain.Customer) domain.Customer {
	out := *live
	if submitted == nil {
		return out
	}
	if out.ID == "" {
		out.ID = submitted.ID
	}
	if out.Email == "" {
		out.Email = submitted.Email
	}
	if out.FirstName == "" {
		out.FirstName = submitted.FirstName
	}
	if out.LastName == "" {
		out.LastName = submitted.LastName
	}
	if out.Phone == "" {
		out.Phone = submitted.Phone
	}
	return out
}
