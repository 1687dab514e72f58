package shopify

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"quote-service/internal/config"
)

// Shop is the store profile plus its invoice metafields.
type Shop struct {
	Name         string
	Email        string
	ContactEmail string
	CurrencyCode string
	Website      string
	Company      string
	Address1     string
	Address2     string
	City         string
	Zip          string
	Country      string
	Phone        string
	// Metafields holds shop.metafields(namespace: "invoice") by key.
	Metafields map[string]string
}

// Shop fetches the store profile.
func (c *Client) Shop(ctx context.Context) (Shop, error) {
	var data struct {
		Shop struct {
			Name          string `json:"name"`
			Email         string `json:"email"`
			ContactEmail  string `json:"contactEmail"`
			CurrencyCode  string `json:"currencyCode"`
			PrimaryDomain *struct {
				URL string `json:"url"`
			} `json:"primaryDomain"`
			BillingAddress *struct {
				Company  string `json:"company"`
				Address1 string `json:"address1"`
				Address2 string `json:"address2"`
				City     string `json:"city"`
				Zip      string `json:"zip"`
				Country  string `json:"country"`
				Phone    string `json:"phone"`
			} `json:"billingAddress"`
			Metafields struct {
				Nodes []struct {
					Key   string `json:"key"`
					Value string `json:"value"`
				} `json:"nodes"`
			} `json:"metafields"`
		} `json:"shop"`
	}
	if err := c.Do(ctx, "shopProfile", shopQuery, nil, &data); err != nil {
		return Shop{}, err
	}
	s := data.Shop
	out := Shop{
		Name:         s.Name,
		Email:        s.Email,
		ContactEmail: s.ContactEmail,
		CurrencyCode: s.CurrencyCode,
		Metafields:   make(map[string]string, len(s.Metafields.Nodes)),
	}
	if s.PrimaryDomain != nil {
		out.Website = s.PrimaryDomain.URL
	}
	if a := s.BillingAddress; a != nil {
		out.Company = a.Company
		out.Address1 = a.Address1
		out.Address2 = a.Address2
		out.City = a.City
		out.Zip = a.Zip
		out.Country = a.Country
		out.Phone = a.Phone
	}
	for _, m := range s.Metafields.Nodes {
		out.Metafields[m.Key] = m.Value
	}
	return out, nil
}

// MerchantSources exposes the store profile as two merchant layers, "shop" then
// "metafields". The profile is fetched once and shared by both.
func MerchantSources(c *Client) []config.MerchantSource {
	var (
		once sync.Once
		shop Shop
		err  error
	)
	load := func(ctx context.Context) (Shop, error) {
		once.Do(func() { shop, err = c.Shop(ctx) })
		return shop, err
	}
	return []config.MerchantSource{
		{
			Name: "shop",
			Load: func(ctx context.Context) (config.Merchant, error) {
				s, err := load(ctx)
				if err != nil {
					return config.Merchant{}, err
				}
				email := s.ContactEmail
				if email == "" {
					email = s.Email
				}
				return config.Merchant{
					Name:      s.Name,
					LegalName: s.Company,
					Address1:  s.Address1,
					Address2:  s.Address2,
					City:      s.City,
					Zip:       s.Zip,
					Country:   s.Country,
					Email:     email,
					Phone:     s.Phone,
					Website:   s.Website,
				}, nil
			},
		},
		{
			Name: "metafields",
			Load: func(ctx context.Context) (config.Merchant, error) {
				s, err := load(ctx)
				if err != nil {
					return config.Merchant{}, err
				}
				return merchantFromMetafields(s.Metafields), nil
			},
		},
	}
}

func merchantFromMetafields(fields map[string]string) config.Merchant {
	m := config.Merchant{
		Name:         fields["name"],
		LegalName:    fields["legal_name"],
		RegistryCode: fields["registry_code"],
		VATNumber:    fields["vat_number"],
		Address1:     fields["address1"],
		Address2:     fields["address2"],
		City:         fields["city"],
		Zip:          fields["zip"],
		Country:      fields["country"],
		Email:        fields["email"],
		Phone:        fields["phone"],
		Website:      fields["website"],
		LogoURL:      fields["logo_url"],
		BankName:     fields["bank_name"],
		IBAN:         fields["iban"],
		BIC:          fields["bic"],
		FooterNote:   fields["footer_note"],
	}
	if days, err := strconv.Atoi(strings.TrimSpace(fields["payment_terms_days"])); err == nil && days > 0 {
		m.PaymentTermsDays = days
	}
	return m
}
