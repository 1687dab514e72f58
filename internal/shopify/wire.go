package shopify

import (
	"time"

	"quote-service/internal/domain"

	"github.com/shopspring/decimal"
)

type moneyV2 struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

type moneyBag struct {
	ShopMoney moneyV2 `json:"shopMoney"`
}

func amountOf(m *moneyBag) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return m.ShopMoney.Amount
}

type taxLineNode struct {
	Title    string    `json:"title"`
	Rate     float64   `json:"rate"`
	PriceSet *moneyBag `json:"priceSet"`
}

func toTaxLines(in []taxLineNode) []domain.TaxLine {
	out := make([]domain.TaxLine, 0, len(in))
	for _, t := range in {
		out = append(out, domain.TaxLine{Title: t.Title, Rate: t.Rate, Price: amountOf(t.PriceSet)})
	}
	return out
}

type mailingAddress struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Company       string `json:"company"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	Province      string `json:"province"`
	ProvinceCode  string `json:"provinceCode"`
	Country       string `json:"country"`
	CountryCodeV2 string `json:"countryCodeV2"`
	Zip           string `json:"zip"`
	Phone         string `json:"phone"`
}

func (a *mailingAddress) toDomain() *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Company:      a.Company,
		Address1:     a.Address1,
		Address2:     a.Address2,
		City:         a.City,
		Province:     a.Province,
		ProvinceCode: a.ProvinceCode,
		Country:      a.Country,
		CountryCode:  a.CountryCodeV2,
		Zip:          a.Zip,
		Phone:        a.Phone,
	}
}

type customerNode struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (c *customerNode) toDomain() *domain.Customer {
	if c == nil {
		return nil
	}
	return &domain.Customer{ID: c.ID, Email: c.Email, FirstName: c.FirstName, LastName: c.LastName, Phone: c.Phone}
}

type idNode struct {
	ID string `json:"id"`
}

type draftOrderNode struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Status            string        `json:"status"`
	InvoiceURL        string        `json:"invoiceUrl"`
	InvoiceSentAt     *time.Time    `json:"invoiceSentAt"`
	CreatedAt         time.Time     `json:"createdAt"`
	Email             string        `json:"email"`
	Note              string        `json:"note2"`
	TaxesIncluded     bool          `json:"taxesIncluded"`
	CurrencyCode      string        `json:"currencyCode"`
	TotalPriceSet     *moneyBag     `json:"totalPriceSet"`
	SubtotalPriceSet  *moneyBag     `json:"subtotalPriceSet"`
	TotalTaxSet       *moneyBag     `json:"totalTaxSet"`
	TotalDiscountsSet *moneyBag     `json:"totalDiscountsSet"`
	TaxLines          []taxLineNode `json:"taxLines"`
	AppliedDiscount   *struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Value       float64   `json:"value"`
		ValueType   string    `json:"valueType"`
		AmountSet   *moneyBag `json:"amountSet"`
	} `json:"appliedDiscount"`
	DiscountCodes []string `json:"discountCodes"`
	ShippingLine  *struct {
		Title            string        `json:"title"`
		OriginalPriceSet *moneyBag     `json:"originalPriceSet"`
		TaxLines         []taxLineNode `json:"taxLines"`
	} `json:"shippingLine"`
	LineItems struct {
		Nodes []lineItemNode `json:"nodes"`
	} `json:"lineItems"`
	Customer         *customerNode   `json:"customer"`
	ShippingAddress  *mailingAddress `json:"shippingAddress"`
	BillingAddress   *mailingAddress `json:"billingAddress"`
	PurchasingEntity *struct {
		Company *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"company"`
		Location *idNode `json:"location"`
	} `json:"purchasingEntity"`
}

type lineItemNode struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title"`
	VariantTitle         string        `json:"variantTitle"`
	SKU                  string        `json:"sku"`
	Vendor               string        `json:"vendor"`
	Quantity             int           `json:"quantity"`
	OriginalUnitPriceSet *moneyBag     `json:"originalUnitPriceSet"`
	OriginalTotalSet     *moneyBag     `json:"originalTotalSet"`
	DiscountedTotalSet   *moneyBag     `json:"discountedTotalSet"`
	TaxLines             []taxLineNode `json:"taxLines"`
	Image                *struct {
		URL string `json:"url"`
	} `json:"image"`
	Variant          *idNode            `json:"variant"`
	Product          *idNode            `json:"product"`
	CustomAttributes []domain.Attribute `json:"customAttributes"`
}

func (n *draftOrderNode) toDomain() *domain.DraftOrder {
	if n == nil || n.ID == "" {
		return nil
	}
	d := &domain.DraftOrder{
		ID:              n.ID,
		Name:            n.Name,
		Status:          n.Status,
		InvoiceURL:      n.InvoiceURL,
		InvoiceSentAt:   n.InvoiceSentAt,
		CreatedAt:       n.CreatedAt,
		Email:           n.Email,
		Note:            n.Note,
		TaxesIncluded:   n.TaxesIncluded,
		CurrencyCode:    n.CurrencyCode,
		TotalPrice:      amountOf(n.TotalPriceSet),
		SubtotalPrice:   amountOf(n.SubtotalPriceSet),
		TotalTax:        amountOf(n.TotalTaxSet),
		TotalDiscounts:  amountOf(n.TotalDiscountsSet),
		TaxLines:        toTaxLines(n.TaxLines),
		DiscountCodes:   n.DiscountCodes,
		Customer:        n.Customer.toDomain(),
		ShippingAddress: n.ShippingAddress.toDomain(),
		BillingAddress:  n.BillingAddress.toDomain(),
	}
	if d.CurrencyCode == "" && n.TotalPriceSet != nil {
		d.CurrencyCode = n.TotalPriceSet.ShopMoney.CurrencyCode
	}
	if ad := n.AppliedDiscount; ad != nil {
		d.AppliedDiscount = &domain.AppliedDiscount{
			Title:       ad.Title,
			Description: ad.Description,
			Value:       ad.Value,
			ValueType:   ad.ValueType,
			Amount:      amountOf(ad.AmountSet),
		}
	}
	if sl := n.ShippingLine; sl != nil {
		d.ShippingLine = &domain.ShippingLine{
			Title:    sl.Title,
			Price:    amountOf(sl.OriginalPriceSet),
			TaxLines: toTaxLines(sl.TaxLines),
		}
	}
	if pe := n.PurchasingEntity; pe != nil && pe.Company != nil {
		d.Company = &domain.Company{ID: pe.Company.ID, Name: pe.Company.Name}
		if pe.Location != nil {
			d.Company.LocationID = pe.Location.ID
		}
	}
	d.LineItems = make([]domain.LineItem, 0, len(n.LineItems.Nodes))
	for _, li := range n.LineItems.Nodes {
		item := domain.LineItem{
			ID:               li.ID,
			Title:            li.Title,
			VariantTitle:     li.VariantTitle,
			SKU:              li.SKU,
			Vendor:           li.Vendor,
			Quantity:         li.Quantity,
			UnitPrice:        amountOf(li.OriginalUnitPriceSet),
			OriginalTotal:    amountOf(li.OriginalTotalSet),
			DiscountedTotal:  amountOf(li.DiscountedTotalSet),
			TaxLines:         toTaxLines(li.TaxLines),
			CustomAttributes: li.CustomAttributes,
		}
		if li.Image != nil {
			item.Image = li.Image.URL
		}
		if li.Variant != nil {
			item.VariantID = li.Variant.ID
		}
		if li.Product != nil {
			item.ProductID = li.Product.ID
		}
		d.LineItems = append(d.LineItems, item)
	}
	return d
}

type userErrorNode struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

func toUserErrors(in []userErrorNode) []domain.UserError {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.UserError, 0, len(in))
	for _, e := range in {
		out = append(out, domain.UserError{Field: e.Field, Message: e.Message, Code: e.Code})
	}
	return out
}
