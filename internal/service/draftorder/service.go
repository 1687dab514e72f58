package draftorder

import (
	"context"
	"fmt"
	"strings"

	"quote-service/internal/domain"
	"quote-service/internal/shopify"

	"github.com/rs/zerolog"
)

const (
	TagQuoteRequest = "quote-request"
	TagCartAPI      = "cart-api"

	draftOrderGIDPrefix = "gid://shopify/DraftOrder/"
)

// Service creates draft orders from checkout data and drives their invoice actions.
type Service struct {
	admin  admin
	carts  cartResolver
	logger zerolog.Logger
}

type admin interface {
	CreateDraftOrder(ctx context.Context, in shopify.DraftOrderInput) (shopify.DraftOrderResult, error)
	DraftOrder(ctx context.Context, id string) (*domain.DraftOrder, error)
	SendInvoice(ctx context.Context, id string, email *shopify.EmailInput) (shopify.DraftOrderResult, error)
	UpdateNote(ctx context.Context, id, note string) ([]domain.UserError, error)
	SetMetafields(ctx context.Context, ownerID string, fields []domain.Metafield) ([]string, []domain.UserError, error)
	CompanyContactProfiles(ctx context.Context, customerID string) ([]shopify.CompanyContact, error)
}

type cartResolver interface {
	Resolve(ctx context.Context, payload domain.CheckoutPayload) domain.CheckoutPayload
}

// New returns a Service. A nil admin makes every operation fail with
// domain.ErrConfiguration; a nil carts skips live cart resolution.
func New(a admin, carts cartResolver, logger zerolog.Logger) *Service {
	return &Service{admin: a, carts: carts, logger: logger}
}

func (s *Service) configured() error {
	if s.admin == nil {
		return fmt.Errorf("%w: admin api client not initialized", domain.ErrConfiguration)
	}
	return nil
}

// ProcessCheckoutData resolves live cart data for payloads carrying a cart
// token and creates the draft order. It returns the payload that was used.
func (s *Service) ProcessCheckoutData(ctx context.Context, payload domain.CheckoutPayload) (*domain.DraftOrder, domain.CheckoutPayload, error) {
	if err := s.configured(); err != nil {
		return nil, payload, err
	}
	if payload.CartToken != "" && s.carts != nil {
		payload = s.carts.Resolve(ctx, payload)
	}
	order, err := s.CreateDraftOrder(ctx, payload)
	return order, payload, err
}

// CreateDraftOrder validates payload and submits draftOrderCreate.
func (s *Service) CreateDraftOrder(ctx context.Context, payload domain.CheckoutPayload) (*domain.DraftOrder, error) {
	if len(payload.CartLines) == 0 {
		return nil, fmt.Errorf("%w: No line items provided", domain.ErrValidation)
	}
	for i, line := range payload.CartLines {
		if strings.TrimSpace(line.VariantID) == "" {
			return nil, fmt.Errorf("%w: cart line %d: variantId required", domain.ErrValidation, i)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: cart line %d: quantity must be at least 1", domain.ErrValidation, i)
		}
	}
	if err := s.configured(); err != nil {
		return nil, err
	}

	in := s.buildInput(ctx, payload)
	res, err := s.admin.CreateDraftOrder(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create draft order: %w", err)
	}
	if len(res.UserErrors) > 0 {
		return nil, domain.UserErrorsError(domain.ErrDraftOrderCreation, res.UserErrors)
	}
	if res.DraftOrder == nil {
		return nil, fmt.Errorf("%w: no draft order returned", domain.ErrDraftOrderCreation)
	}
	s.logger.Info().
		Str("draft_order_id", res.DraftOrder.ID).
		Str("name", res.DraftOrder.Name).
		Int("lines", len(in.LineItems)).
		Bool("live_cart", payload.FromLiveCart).
		Msg("draft order created")
	return res.DraftOrder, nil
}

func (s *Service) buildInput(ctx context.Context, payload domain.CheckoutPayload) shopify.DraftOrderInput {
	in := shopify.DraftOrderInput{
		LineItems: make([]shopify.DraftOrderLineItemInput, 0, len(payload.CartLines)),
		Note:      payload.Note,
		Tags:      []string{TagQuoteRequest},
	}
	if payload.FromLiveCart {
		in.Tags = append(in.Tags, TagCartAPI)
	}
	for _, line := range payload.CartLines {
		item := shopify.DraftOrderLineItemInput{VariantID: line.VariantID, Quantity: line.Quantity}
		for _, p := range line.Properties {
			item.CustomAttributes = append(item.CustomAttributes, shopify.AttributeInput{Key: p.Key, Value: p.Value})
		}
		in.LineItems = append(in.LineItems, item)
	}
	if c := payload.Customer; c != nil {
		in.Email = c.Email
	}
	if p := payload.Pricing; p != nil && len(p.DiscountCodes) > 0 {
		in.DiscountCodes = p.DiscountCodes
	}
	if payload.ShippingAddress.HasLocation() {
		in.ShippingAddress = addressInput(payload.ShippingAddress)
	}
	if payload.BillingAddress.HasLocation() {
		in.BillingAddress = addressInput(payload.BillingAddress)
	}

	customerID := ""
	if payload.Customer != nil {
		customerID = payload.Customer.ID
	}
	switch co := payload.Company; {
	case co != nil && co.ID != "" && co.LocationID != "":
		pc := &shopify.PurchasingCompanyInput{CompanyID: co.ID, CompanyLocationID: co.LocationID}
		if customerID != "" {
			pc.CompanyContactID = s.FetchCompanyContactID(ctx, customerID, co.ID)
			if pc.CompanyContactID == "" {
				pc.CompanyContactID = customerID
			}
		}
		in.PurchasingEntity = &shopify.PurchasingEntityInput{PurchasingCompany: pc}
	case customerID != "":
		in.PurchasingEntity = &shopify.PurchasingEntityInput{CustomerID: customerID}
	}
	return in
}

func addressInput(a *domain.Address) *shopify.MailingAddressInput {
	in := &shopify.MailingAddressInput{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Company:      a.Company,
		Address1:     a.Address1,
		Address2:     a.Address2,
		City:         a.City,
		ProvinceCode: a.ProvinceCode,
		CountryCode:  a.CountryCode,
		Zip:          a.Zip,
		Phone:        a.Phone,
	}
	if in.ProvinceCode == "" {
		in.Province = a.Province
	}
	if in.CountryCode == "" {
		in.Country = a.Country
	}
	return in
}

// FetchDraftOrderByID returns the full projection of a draft order. Numeric
// ids are expanded to global ids.
func (s *Service) FetchDraftOrderByID(ctx context.Context, id string) (*domain.DraftOrder, error) {
	gid, err := draftOrderGID(id)
	if err != nil {
		return nil, err
	}
	if err := s.configured(); err != nil {
		return nil, err
	}
	order, err := s.admin.DraftOrder(ctx, gid)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: draft order %s", domain.ErrNotFound, gid)
	}
	return order, nil
}

// SendInvoice triggers the invoice email. Only non-empty overrides are forwarded.
func (s *Service) SendInvoice(ctx context.Context, id string, opts *domain.EmailOptions) (*domain.DraftOrder, error) {
	gid, err := draftOrderGID(id)
	if err != nil {
		return nil, err
	}
	if err := s.configured(); err != nil {
		return nil, err
	}
	var email *shopify.EmailInput
	if opts != nil && !opts.IsEmpty() {
		email = &shopify.EmailInput{
			To:            opts.To,
			From:          opts.From,
			Bcc:           opts.Bcc,
			Subject:       opts.Subject,
			CustomMessage: opts.CustomMessage,
		}
	}
	res, err := s.admin.SendInvoice(ctx, gid, email)
	if err != nil {
		return nil, fmt.Errorf("send invoice: %w", err)
	}
	if len(res.UserErrors) > 0 {
		return nil, domain.UserErrorsError(domain.ErrInvoiceSend, res.UserErrors)
	}
	if res.DraftOrder == nil {
		return nil, fmt.Errorf("%w: no draft order returned", domain.ErrInvoiceSend)
	}
	s.logger.Info().Str("draft_order_id", gid).Bool("overrides", email != nil).Msg("invoice sent")
	return res.DraftOrder, nil
}

// FetchCompanyContactID finds the contact profile of customerID within companyID.
// It returns "" when the lookup fails or nothing matches.
func (s *Service) FetchCompanyContactID(ctx context.Context, customerID, companyID string) string {
	if s.admin == nil {
		return ""
	}
	profiles, err := s.admin.CompanyContactProfiles(ctx, customerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID).Str("company_id", companyID).Msg("company contact lookup failed")
		return ""
	}
	for _, p := range profiles {
		if p.CompanyID == companyID {
			return p.ID
		}
	}
	s.logger.Debug().Str("customer_id", customerID).Str("company_id", companyID).Msg("no company contact for customer")
	return ""
}

// AppendNote adds line to the draft order note. Failures are logged only.
func (s *Service) AppendNote(ctx context.Context, id, line string) {
	log := s.logger.With().Str("draft_order_id", id).Logger()
	order, err := s.FetchDraftOrderByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Msg("note append skipped")
		return
	}
	note := line
	if existing := strings.TrimSpace(order.Note); existing != "" {
		note = existing + "\n" + line
	}
	userErrs, err := s.admin.UpdateNote(ctx, order.ID, note)
	if err == nil && len(userErrs) > 0 {
		err = domain.UserErrorsError(domain.ErrRemoteAPI, userErrs)
	}
	if err != nil {
		log.Warn().Err(err).Msg("note append failed")
	}
}

// AttachMetafields writes fields onto the draft order.
func (s *Service) AttachMetafields(ctx context.Context, id string, fields []domain.Metafield) error {
	if err := s.configured(); err != nil {
		return err
	}
	_, userErrs, err := s.admin.SetMetafields(ctx, id, fields)
	if err != nil {
		return fmt.Errorf("set metafields: %w", err)
	}
	if len(userErrs) > 0 {
		return domain.UserErrorsError(domain.ErrMetafieldsSet, userErrs)
	}
	return nil
}

func draftOrderGID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: draft order id required", domain.ErrValidation)
	}
	if strings.HasPrefix(id, "gid://") {
		return id, nil
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: malformed draft order id %q", domain.ErrValidation, id)
		}
	}
	return draftOrderGIDPrefix + id, nil
}
