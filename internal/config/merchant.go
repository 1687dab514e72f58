package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Merchant is the seller block printed on every invoice. A resolved Merchant is
// treated as immutable; it is computed once at startup by ResolveMerchant.
type Merchant struct {
	Name             string            `yaml:"name"`
	LegalName        string            `yaml:"legal_name"`
	RegistryCode     string            `yaml:"registry_code"`
	VATNumber        string            `yaml:"vat_number"`
	Address1         string            `yaml:"address1"`
	Address2         string            `yaml:"address2"`
	City             string            `yaml:"city"`
	Zip              string            `yaml:"zip"`
	Country          string            `yaml:"country"`
	Email            string            `yaml:"email"`
	Phone            string            `yaml:"phone"`
	Website          string            `yaml:"website"`
	LogoURL          string            `yaml:"logo_url"`
	BankName         string            `yaml:"bank_name"`
	IBAN             string            `yaml:"iban"`
	BIC              string            `yaml:"bic"`
	FooterNote       string            `yaml:"footer_note"`
	PaymentTermsDays int               `yaml:"payment_terms_days"`
	CurrencySymbols  map[string]string `yaml:"currency_symbols"`
}

// MerchantSource is one configuration layer. Sources are applied in order.
type MerchantSource struct {
	Name string
	Load func(ctx context.Context) (Merchant, error)
}

// Precedence pins a merchant field (by its yaml key) to a single source name. Values
// for a pinned field coming from any other source are ignored.
type Precedence map[string]string

var merchantFields = []struct {
	key string
	ptr func(*Merchant) *string
}{
	{"name", func(m *Merchant) *string { return &m.Name }},
	{"legal_name", func(m *Merchant) *string { return &m.LegalName }},
	{"registry_code", func(m *Merchant) *string { return &m.RegistryCode }},
	{"vat_number", func(m *Merchant) *string { return &m.VATNumber }},
	{"address1", func(m *Merchant) *string { return &m.Address1 }},
	{"address2", func(m *Merchant) *string { return &m.Address2 }},
	{"city", func(m *Merchant) *string { return &m.City }},
	{"zip", func(m *Merchant) *string { return &m.Zip }},
	{"country", func(m *Merchant) *string { return &m.Country }},
	{"email", func(m *Merchant) *string { return &m.Email }},
	{"phone", func(m *Merchant) *string { return &m.Phone }},
	{"website", func(m *Merchant) *string { return &m.Website }},
	{"logo_url", func(m *Merchant) *string { return &m.LogoURL }},
	{"bank_name", func(m *Merchant) *string { return &m.BankName }},
	{"iban", func(m *Merchant) *string { return &m.IBAN }},
	{"bic", func(m *Merchant) *string { return &m.BIC }},
	{"footer_note", func(m *Merchant) *string { return &m.FooterNote }},
}

// FieldError marks a single unusable field. The layer returned alongside it is
// still applied without that field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// ResolveMerchant applies sources in order: a later non-empty field overrides an
// earlier one unless the field is pinned to another source. A failing source is
// logged and skipped.
func ResolveMerchant(ctx context.Context, logger zerolog.Logger, precedence Precedence, sources ...MerchantSource) Merchant {
	var out Merchant
	for _, src := range sources {
		layer, err := src.Load(ctx)
		var fieldErr *FieldError
		switch {
		case errors.As(err, &fieldErr):
			logger.Warn().Err(err).Str("source", src.Name).Str("field", fieldErr.Field).Msg("merchant config field skipped")
		case err != nil:
			logger.Warn().Err(err).Str("source", src.Name).Msg("merchant config source skipped")
			continue
		}
		out = overlay(out, layer, src.Name, precedence)
	}
	return out
}

func overlay(base, layer Merchant, source string, precedence Precedence) Merchant {
	allowed := func(key string) bool {
		pinned, ok := precedence[key]
		return !ok || pinned == source
	}
	for _, f := range merchantFields {
		if v := *f.ptr(&layer); v != "" && allowed(f.key) {
			*f.ptr(&base) = v
		}
	}
	if layer.PaymentTermsDays > 0 && allowed("payment_terms_days") {
		base.PaymentTermsDays = layer.PaymentTermsDays
	}
	if len(layer.CurrencySymbols) > 0 && allowed("currency_symbols") {
		merged := make(map[string]string, len(base.CurrencySymbols)+len(layer.CurrencySymbols))
		for k, v := range base.CurrencySymbols {
			merged[k] = v
		}
		for k, v := range layer.CurrencySymbols {
			merged[k] = v
		}
		base.CurrencySymbols = merged
	}
	return base
}

// DefaultMerchantSource supplies the built-in baseline.
func DefaultMerchantSource() MerchantSource {
	return MerchantSource{
		Name: "defaults",
		Load: func(context.Context) (Merchant, error) {
			return Merchant{
				Name:             "Store",
				PaymentTermsDays: 14,
				CurrencySymbols:  map[string]string{"EUR": "€"},
			}, nil
		},
	}
}

// FileMerchantSource reads a YAML merchant profile. An empty path yields an empty layer.
func FileMerchantSource(path string) MerchantSource {
	return MerchantSource{
		Name: "file",
		Load: func(context.Context) (Merchant, error) {
			if path == "" {
				return Merchant{}, nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return Merchant{}, fmt.Errorf("load merchant profile: %w", err)
			}
			var m Merchant
			if err := yaml.Unmarshal(data, &m); err != nil {
				return Merchant{}, fmt.Errorf("parse merchant profile %q: %w", path, err)
			}
			return m, nil
		},
	}
}

// EnvMerchantSource reads MERCHANT_* environment variables.
func EnvMerchantSource() MerchantSource {
	return MerchantSource{
		Name: "env",
		Load: func(context.Context) (Merchant, error) {
			var m Merchant
			for _, f := range merchantFields {
				*f.ptr(&m) = os.Getenv("MERCHANT_" + strings.ToUpper(f.key))
			}
			if v := os.Getenv("MERCHANT_PAYMENT_TERMS_DAYS"); v != "" {
				days, err := strconv.Atoi(v)
				if err == nil && days < 0 {
					err = fmt.Errorf("negative value %d", days)
				}
				if err != nil {
					return m, &FieldError{Field: "MERCHANT_PAYMENT_TERMS_DAYS", Err: err}
				}
				m.PaymentTermsDays = days
			}
			return m, nil
		},
	}
}
