package invoice

import (
	"testing"
	"time"

	"quote-service/internal/config"
	"quote-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleOrder() *domain.DraftOrder {
	return &domain.DraftOrder{
		ID:             "gid://shopify/DraftOrder/123",
		Name:           "#D123",
		CurrencyCode:   "EUR",
		TaxesIncluded:  true,
		SubtotalPrice:  d("40.00"),
		TotalTax:       d("8.92"),
		TotalPrice:     d("46.20"),
		TotalDiscounts: decimal.Zero,
		TaxLines:       []domain.TaxLine{{Title: "VAT", Rate: 0.22, Price: d("8.92")}},
		LineItems: []domain.LineItem{
			{Title: "Gift card", Quantity: 1, UnitPrice: d("10.00")},
			{Title: "Desk", Quantity: 3, UnitPrice: d("10.00"), DiscountedTotal: d("30.00"),
				TaxLines: []domain.TaxLine{{Title: "VAT", Rate: 0.24, Price: d("5.81")}}},
		},
		ShippingLine: &domain.ShippingLine{Title: "Courier", Price: d("6.20")},
		ShippingAddress: &domain.Address{FirstName: "Mari", LastName: "Tamm", Address1: "Pikk 1",
			City: "Tallinn", Zip: "10123", Country: "Estonia"},
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "INV-EE-123", Number("#D123", DefaultNumberPrefix, fixedNow))
	assert.Equal(t, "INV-EE-45", Number("Q12-45b", DefaultNumberPrefix, fixedNow))
	got := Number("#Draft", DefaultNumberPrefix, fixedNow)
	assert.Regexp(t, `^INV-EE-\d{6}$`, got)
	assert.Equal(t, "X-000042", Number("", "X-", time.UnixMilli(7_000_042)))
}

func TestBuild(t *testing.T) {
	doc := Build(sampleOrder(), nil, Settings{
		DefaultVATRate:  0.2,
		ShippingVATRate: 0.24,
		Merchant:        config.Merchant{Name: "Nordic Desks", PaymentTermsDays: 14},
		Now:             func() time.Time { return fixedNow },
	})

	assert.Equal(t, "INV-EE-123", doc.Number)
	assert.Equal(t, "2026-03-14", doc.IssueDate)
	assert.Equal(t, "2026-03-28", doc.DueDate)
	assert.Equal(t, Currency{Code: "EUR", Symbol: "€"}, doc.Currency)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "0%", doc.Items[0].VATRateLabel)
	assert.Equal(t, "€10.00", doc.Items[0].Total.Formatted)
	assert.Equal(t, "24%", doc.Items[1].VATRateLabel)
	assert.Equal(t, "€5.81", doc.Items[1].VATAmount.Formatted)
	assert.Equal(t, "€30.00", doc.Items[1].Total.Formatted)

	assert.Equal(t, 0.24, doc.VATRate, "first nonzero line rate wins over order tax lines")
	assert.Nil(t, doc.Discount)

	assert.Equal(t, "Mari Tamm", doc.BillTo.Name, "bill-to falls back to the shipping address")
	assert.Equal(t, []string{"Pikk 1", "10123 Tallinn", "Estonia"}, doc.BillTo.Lines)
	require.NotNil(t, doc.ShipTo)

	assert.Equal(t, "€6.20", doc.Pricing.Shipping.Formatted)
	assert.Equal(t, "€1.20", doc.Pricing.ShippingVAT.Formatted, "6.20*0.24/1.24")
	assert.Equal(t, "€46.20", doc.Pricing.Total.Formatted)
	assert.True(t, d("46.20").Equal(doc.Pricing.Total.Value))
}

func TestBuildVATRateFallbacks(t *testing.T) {
	order := sampleOrder()
	order.LineItems = order.LineItems[:1]
	doc := Build(order, nil, Settings{Now: func() time.Time { return fixedNow }})
	assert.Equal(t, 0.22, doc.VATRate)

	order.TaxLines = nil
	doc = Build(order, nil, Settings{DefaultVATRate: 0.2, Now: func() time.Time { return fixedNow }})
	assert.Equal(t, 0.2, doc.VATRate)

	doc = Build(order, nil, Settings{DefaultVATRate: 0.24, Now: func() time.Time { return fixedNow }})
	assert.Equal(t, 0.24, doc.VATRate)
}

func TestBuildZeroRatedSettings(t *testing.T) {
	order := sampleOrder()
	order.TaxesIncluded = false
	order.TaxLines = nil
	for i := range order.LineItems {
		order.LineItems[i].TaxLines = nil
	}
	order.ShippingLine.TaxLines = nil
	order.ShippingLine.Price = d("10.00")

	doc := Build(order, nil, Settings{DefaultVATRate: 0, ShippingVATRate: 0, Now: func() time.Time { return fixedNow }})

	assert.Equal(t, 0.0, doc.VATRate)
	assert.Equal(t, "0%", doc.VATRateLabel)
	assert.Equal(t, "€0.00", doc.Pricing.ShippingVAT.Formatted)
	assert.True(t, doc.Pricing.ShippingVAT.Value.IsZero())
}

func TestBuildShippingVAT(t *testing.T) {
	order := sampleOrder()
	order.TaxesIncluded = false
	order.ShippingLine.Price = d("10.00")
	doc := Build(order, nil, Settings{ShippingVATRate: 0.24})
	assert.Equal(t, "€2.40", doc.Pricing.ShippingVAT.Formatted)

	order.ShippingLine.TaxLines = []domain.TaxLine{{Rate: 0.2, Price: d("1.50")}, {Rate: 0.01, Price: d("0.10")}}
	doc = Build(order, nil, Settings{ShippingVATRate: 0.24})
	assert.Equal(t, "€1.60", doc.Pricing.ShippingVAT.Formatted)
}

func TestBuildDiscountOnlyWhenPositive(t *testing.T) {
	order := sampleOrder()
	order.TotalDiscounts = d("5.00")
	order.DiscountCodes = []string{"SPRING"}
	order.AppliedDiscount = &domain.AppliedDiscount{Title: "Spring sale"}

	doc := Build(order, nil, Settings{})
	require.NotNil(t, doc.Discount)
	assert.Equal(t, "€5.00", doc.Discount.Amount.Formatted)
	assert.Equal(t, "Spring sale", doc.Discount.Title)
	assert.Equal(t, []string{"SPRING"}, doc.Discount.Codes)
}

func TestBuildUsesPayloadParties(t *testing.T) {
	order := sampleOrder()
	order.ShippingAddress = nil
	order.CurrencyCode = ""
	payload := &domain.CheckoutPayload{
		Customer:       &domain.Customer{FirstName: "Jaan", LastName: "Kask", Email: "jaan@example.com"},
		BillingAddress: &domain.Address{Company: "Kask OÜ", City: "Tartu"},
		Company:        &domain.Company{Name: "Kask Holding"},
		Pricing:        &domain.PricingSummary{Currency: "USD"},
	}

	doc := Build(order, payload, Settings{})
	assert.Equal(t, "Jaan Kask", doc.BillTo.Name)
	assert.Equal(t, "Kask Holding", doc.BillTo.Company)
	assert.Equal(t, "jaan@example.com", doc.BillTo.Email)
	assert.Nil(t, doc.ShipTo)
	assert.Equal(t, "USD", doc.Currency.Code)
	assert.Equal(t, "$", doc.Currency.Symbol)
}
