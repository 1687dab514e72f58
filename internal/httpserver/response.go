package httpserver

import (
	"errors"
	"net/http"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/format"

	"github.com/gin-gonic/gin"
)

type draftOrderView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	InvoiceURL     string         `json:"invoiceUrl,omitempty"`
	InvoiceSentAt  *time.Time     `json:"invoiceSentAt,omitempty"`
	CreatedAt      *time.Time     `json:"createdAt,omitempty"`
	Email          string         `json:"email,omitempty"`
	CurrencyCode   string         `json:"currencyCode"`
	TotalPrice     string         `json:"totalPrice"`
	SubtotalPrice  string         `json:"subtotalPrice"`
	TotalTax       string         `json:"totalTax"`
	TotalFormatted string         `json:"totalFormatted"`
	DiscountCodes  []string       `json:"discountCodes"`
	LineItems      []lineItemView `json:"lineItems"`
}

type lineItemView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	VariantTitle string `json:"variantTitle,omitempty"`
	SKU          string `json:"sku,omitempty"`
	VariantID    string `json:"variantId,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	Total        string `json:"total"`
}

func toDraftOrderView(o *domain.DraftOrder) *draftOrderView {
	if o == nil {
		return nil
	}
	v := &draftOrderView{
		ID:             o.ID,
		Name:           o.Name,
		Status:         o.Status,
		InvoiceURL:     o.InvoiceURL,
		InvoiceSentAt:  o.InvoiceSentAt,
		Email:          o.Email,
		CurrencyCode:   o.CurrencyCode,
		TotalPrice:     o.TotalPrice.StringFixed(2),
		SubtotalPrice:  o.SubtotalPrice.StringFixed(2),
		TotalTax:       o.TotalTax.StringFixed(2),
		TotalFormatted: format.Price(o.TotalPrice, format.CurrencySymbol(o.CurrencyCode, nil)),
		DiscountCodes:  o.DiscountCodes,
		LineItems:      make([]lineItemView, 0, len(o.LineItems)),
	}
	if !o.CreatedAt.IsZero() {
		created := o.CreatedAt
		v.CreatedAt = &created
	}
	if v.DiscountCodes == nil {
		v.DiscountCodes = []string{}
	}
	for _, li := range o.LineItems {
		v.LineItems = append(v.LineItems, lineItemView{
			ID:           li.ID,
			Title:        li.Title,
			VariantTitle: li.VariantTitle,
			SKU:          li.SKU,
			VariantID:    li.VariantID,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice.StringFixed(2),
			Total:        li.DiscountedTotal.StringFixed(2),
		})
	}
	return v
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDraftOrderCreation),
		errors.Is(err, domain.ErrInvoiceSend):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
}
