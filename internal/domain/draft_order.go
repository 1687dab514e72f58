package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftOrder is this service's projection of the platform's draft order.
type DraftOrder struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Status          string           `json:"status"`
	InvoiceURL      string           `json:"invoiceUrl,omitempty"`
	InvoiceSentAt   *time.Time       `json:"invoiceSentAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	Email           string           `json:"email,omitempty"`
	Note            string           `json:"note,omitempty"`
	TaxesIncluded   bool             `json:"taxesIncluded"`
	CurrencyCode    string           `json:"currencyCode"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	SubtotalPrice   decimal.Decimal  `json:"subtotalPrice"`
	TotalTax        decimal.Decimal  `json:"totalTax"`
	TotalDiscounts  decimal.Decimal  `json:"totalDiscounts"`
	TaxLines        []TaxLine        `json:"taxLines"`
	AppliedDiscount *AppliedDiscount `json:"appliedDiscount,omitempty"`
	DiscountCodes   []string         `json:"discountCodes"`
	ShippingLine    *ShippingLine    `json:"shippingLine,omitempty"`
	LineItems       []LineItem       `json:"lineItems"`
	Customer        *Customer        `json:"customer,omitempty"`
	ShippingAddress *Address         `json:"shippingAddress,omitempty"`
	BillingAddress  *Address         `json:"billingAddress,omitempty"`
	Company         *Company         `json:"company,omitempty"`
}

// TaxLine is one tax applied to an order, line item or shipping line. Rate is a fraction.
type TaxLine struct {
	Title string          `json:"title"`
	Rate  float64         `json:"rate"`
	Price decimal.Decimal `json:"price"`
}

// AppliedDiscount is an order-level discount.
type AppliedDiscount struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Value       float64         `json:"value"`
	ValueType   string          `json:"valueType"`
	Amount      decimal.Decimal `json:"amount"`
}

// ShippingLine is the shipping charge of a draft order.
type ShippingLine struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	TaxLines []TaxLine       `json:"taxLines"`
}

// LineItem is a draft order line.
type LineItem struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	VariantTitle     string          `json:"variantTitle,omitempty"`
	SKU              string          `json:"sku,omitempty"`
	Vendor           string          `json:"vendor,omitempty"`
	Quantity         int             `json:"quantity"`
	VariantID        string          `json:"variantId,omitempty"`
	ProductID        string          `json:"productId,omitempty"`
	Image            string          `json:"image,omitempty"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	OriginalTotal    decimal.Decimal `json:"originalTotal"`
	DiscountedTotal  decimal.Decimal `json:"discountedTotal"`
	TaxLines         []TaxLine       `json:"taxLines"`
	CustomAttributes []Attribute     `json:"customAttributes,omitempty"`
}

// Metafield is a namespaced key/value/type triple attached to a platform entity.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}
