// Package invoice derives printable invoice documents from draft order
// snapshots and renders them to HTML.
package invoice

import (
	"fmt"
	"regexp"
	"time"

	"quote-service/internal/config"
	"quote-service/internal/domain"
	"quote-service/internal/format"

	"github.com/shopspring/decimal"
)

const (
	DefaultNumberPrefix = "INV-EE-"
	DefaultCurrency     = "EUR"
	dateLayout          = "2006-01-02"
)

var trailingDigits = regexp.MustCompile(`(\d+)\D*$`)

// Money is an amount in both display and raw form.
type Money struct {
	Formatted string
	Value     decimal.Decimal
}

type Party struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Lines   []string
}

type Item struct {
	Title        string
	VariantTitle string
	SKU          string
	Image        string
	Quantity     int
	UnitPrice    Money
	Total        Money
	VATRate      float64
	VATRateLabel string
	VATAmount    Money
	Attributes   []domain.Attribute
}

type Discount struct {
	Title       string
	Description string
	Codes       []string
	Amount      Money
}

type Pricing struct {
	Subtotal    Money
	VAT         Money
	Shipping    Money
	ShippingVAT Money
	Total       Money
}

type Currency struct {
	Code   string
	Symbol string
}

// Document is everything a template needs to print one invoice. It is derived
// from a draft order snapshot and never stored.
type Document struct {
	Number         string
	IssueDate      string
	DueDate        string
	DraftOrderID   string
	DraftOrderName string
	InvoiceURL     string
	Merchant       config.Merchant
	BillTo         Party
	ShipTo         *Party
	Items          []Item
	Discount       *Discount
	Pricing        Pricing
	Currency       Currency
	VATRate        float64
	VATRateLabel   string
	ShippingTitle  string
	TaxesIncluded  bool
	Note           string
}

// Settings are the process-wide inputs of document derivation.
type Settings struct {
	NumberPrefix    string
	DefaultVATRate  float64
	ShippingVATRate float64
	Merchant        config.Merchant
	Now             func() time.Time
}

// Number derives the invoice number from the trailing digits of a draft order
// name ("#D123" -> prefix+"123"). Names without digits get a six digit number
// taken from the clock.
func Number(name, prefix string, now time.Time) string {
	if m := trailingDigits.FindStringSubmatch(name); m != nil {
		return prefix + m[1]
	}
	return prefix + fmt.Sprintf("%06d", now.UnixMilli()%1_000_000)
}

// Build derives a Document from order. payload, when given, fills parties the
// draft order does not carry.
func Build(order *domain.DraftOrder, payload *domain.CheckoutPayload, s Settings) Document {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	issued := now()
	prefix := s.NumberPrefix
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	if payload == nil {
		payload = &domain.CheckoutPayload{}
	}

	code := order.CurrencyCode
	if code == "" && payload.Pricing != nil {
		code = payload.Pricing.Currency
	}
	if code == "" {
		code = DefaultCurrency
	}
	cur := Currency{Code: code, Symbol: format.CurrencySymbol(code, s.Merchant.CurrencySymbols)}
	money := func(d decimal.Decimal) Money {
		return Money{Formatted: format.Price(d, cur.Symbol), Value: d}
	}

	doc := Document{
		Number:         Number(order.Name, prefix, issued),
		IssueDate:      issued.Format(dateLayout),
		DraftOrderID:   order.ID,
		DraftOrderName: order.Name,
		InvoiceURL:     order.InvoiceURL,
		Merchant:       s.Merchant,
		Currency:       cur,
		TaxesIncluded:  order.TaxesIncluded,
		Note:           order.Note,
	}
	if s.Merchant.PaymentTermsDays > 0 {
		doc.DueDate = issued.AddDate(0, 0, s.Merchant.PaymentTermsDays).Format(dateLayout)
	}

	customer := order.Customer
	if customer == nil {
		customer = payload.Customer
	}
	company := order.Company
	if company == nil {
		company = payload.Company
	}
	shipping := firstAddress(order.ShippingAddress, payload.ShippingAddress)
	billing := firstAddress(order.BillingAddress, payload.BillingAddress, shipping)
	doc.BillTo = party(billing, customer, company, order.Email)
	if shipping != nil {
		p := party(shipping, customer, company, "")
		doc.ShipTo = &p
	}

	doc.Items = make([]Item, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		total := li.DiscountedTotal
		if total.IsZero() {
			total = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
		}
		item := Item{
			Title:        li.Title,
			VariantTitle: li.VariantTitle,
			SKU:          li.SKU,
			Image:        li.Image,
			Quantity:     li.Quantity,
			UnitPrice:    money(li.UnitPrice),
			Total:        money(total),
			VATAmount:    money(decimal.Zero),
			Attributes:   li.CustomAttributes,
		}
		if len(li.TaxLines) > 0 {
			item.VATRate = li.TaxLines[0].Rate
			item.VATAmount = money(li.TaxLines[0].Price)
		}
		item.VATRateLabel = format.Rate(item.VATRate)
		doc.Items = append(doc.Items, item)
	}

	doc.VATRate = primaryVATRate(order, s.DefaultVATRate)
	doc.VATRateLabel = format.Rate(doc.VATRate)

	if order.TotalDiscounts.GreaterThan(decimal.Zero) {
		d := &Discount{Codes: order.DiscountCodes, Amount: money(order.TotalDiscounts)}
		if ad := order.AppliedDiscount; ad != nil {
			d.Title = ad.Title
			d.Description = ad.Description
		}
		doc.Discount = d
	}

	shippingPrice, shippingVAT := decimal.Zero, decimal.Zero
	if sl := order.ShippingLine; sl != nil {
		doc.ShippingTitle = sl.Title
		shippingPrice = sl.Price
		shippingVAT = shippingTax(sl, order.TaxesIncluded, s.ShippingVATRate)
	}
	doc.Pricing = Pricing{
		Subtotal:    money(order.SubtotalPrice),
		VAT:         money(order.TotalTax),
		Shipping:    money(shippingPrice),
		ShippingVAT: money(shippingVAT),
		Total:       money(order.TotalPrice),
	}
	return doc
}

// primaryVATRate is the first nonzero line rate, then the first order level tax
// line, then the configured default. A configured 0 is a real rate.
func primaryVATRate(order *domain.DraftOrder, fallback float64) float64 {
	for _, li := range order.LineItems {
		if len(li.TaxLines) > 0 && li.TaxLines[0].Rate != 0 {
			return li.TaxLines[0].Rate
		}
	}
	if len(order.TaxLines) > 0 {
		return order.TaxLines[0].Rate
	}
	return fallback
}

func shippingTax(sl *domain.ShippingLine, taxesIncluded bool, rate float64) decimal.Decimal {
	if len(sl.TaxLines) > 0 {
		sum := decimal.Zero
		for _, t := range sl.TaxLines {
			sum = sum.Add(t.Price)
		}
		return sum
	}
	r := decimal.NewFromFloat(rate)
	if taxesIncluded {
		return sl.Price.Mul(r).Div(decimal.NewFromInt(1).Add(r)).Round(2)
	}
	return sl.Price.Mul(r).Round(2)
}

func firstAddress(candidates ...*domain.Address) *domain.Address {
	for _, a := range candidates {
		if a.HasLocation() {
			return a
		}
	}
	for _, a := range candidates {
		if a != nil {
			return a
		}
	}
	return nil
}

func party(addr *domain.Address, customer *domain.Customer, company *domain.Company, email string) Party {
	p := Party{
		Name:    format.DisplayName(addr, customer),
		Company: format.CompanyName(addr, company),
		Email:   email,
		Lines:   format.AddressLines(addr),
	}
	if p.Email == "" && customer != nil {
		p.Email = customer.Email
	}
	if addr != nil {
		p.Phone = addr.Phone
	}
	if p.Phone == "" && customer != nil {
		p.Phone = customer.Phone
	}
	return p
}
