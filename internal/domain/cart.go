package domain

import "github.com/shopspring/decimal"

// Attribute is an ordered key/value pair carried by cart lines and line items.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CartLine is one entry of the shopper's cart as submitted by the storefront.
type CartLine struct {
	ID           string          `json:"id,omitempty"`
	Quantity     int             `json:"quantity"`
	Title        string          `json:"title"`
	VariantTitle string          `json:"variantTitle,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Image        string          `json:"image,omitempty"`
	ProductID    string          `json:"productId,omitempty"`
	VariantID    string          `json:"variantId"`
	SKU          string          `json:"sku,omitempty"`
	Properties   []Attribute     `json:"properties,omitempty"`
}

// PricingSummary holds raw cart totals; display strings are derived at render time.
type PricingSummary struct {
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Total         decimal.NullDecimal `json:"total"`
	Currency      string              `json:"currency"`
	DiscountCodes []string            `json:"discountCodes,omitempty"`
}

// EmailOptions overrides the invoice e-mail sent by the platform. Empty fields are not forwarded.
type EmailOptions struct {
	To            string   `json:"to,omitempty"`
	From          string   `json:"from,omitempty"`
	Bcc           []string `json:"bcc,omitempty"`
	Subject       string   `json:"subject,omitempty"`
	CustomMessage string   `json:"customMessage,omitempty"`
}

// IsEmpty reports whether no override would be forwarded.
func (o EmailOptions) IsEmpty() bool {
	return o.To == "" && o.From == "" && len(o.Bcc) == 0 && o.Subject == "" && o.CustomMessage == ""
}

// CheckoutPayload is the inbound request body for draft order creation.
type CheckoutPayload struct {
	CartToken       string          `json:"cartToken,omitempty"`
	CartLines       []CartLine      `json:"cartLines"`
	Customer        *Customer       `json:"customer,omitempty"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	BillingAddress  *Address        `json:"billingAddress,omitempty"`
	Pricing         *PricingSummary `json:"pricing,omitempty"`
	Company         *Company        `json:"company,omitempty"`
	Note            string          `json:"note,omitempty"`
	Email           *EmailOptions   `json:"email,omitempty"`

	// FromLiveCart is set once live cart data superseded the submitted lines.
	FromLiveCart bool `json:"-"`
}
