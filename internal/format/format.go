// Package format turns raw money, tax and address values into display strings.
// Every function is pure.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"quote-service/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// FallbackName is shown when neither the address nor the customer carries a name.
const FallbackName = "Customer"

// Price renders amount with exactly two decimals, prefixed by symbol.
func Price(amount decimal.Decimal, symbol string) string {
	return symbol + amount.StringFixed(2)
}

// OptionalPrice renders a possibly absent amount; absent amounts render as zero.
func OptionalPrice(amount decimal.NullDecimal, symbol string) string {
	if !amount.Valid {
		return symbol + "0.00"
	}
	return Price(amount.Decimal, symbol)
}

// Rate renders a fractional tax rate as a rounded whole percentage, e.g. 0.24 -> "24%".
func Rate(rate float64) string {
	return strconv.Itoa(int(math.Round(rate*100))) + "%"
}

// DisplayName prefers the address name, then the customer name, then FallbackName.
func DisplayName(addr *domain.Address, customer *domain.Customer) string {
	if addr != nil {
		if name := joinName(addr.FirstName, addr.LastName); name != "" {
			return name
		}
	}
	if customer != nil {
		if name := joinName(customer.FirstName, customer.LastName); name != "" {
			return name
		}
	}
	return FallbackName
}

// CompanyName prefers an explicit company over the company line of the address.
func CompanyName(addr *domain.Address, company *domain.Company) string {
	if company != nil && strings.TrimSpace(company.Name) != "" {
		return strings.TrimSpace(company.Name)
	}
	if addr != nil {
		return strings.TrimSpace(addr.Company)
	}
	return ""
}

// AddressLines returns the printable postal lines of addr, skipping empty ones.
func AddressLines(addr *domain.Address) []string {
	if addr == nil {
		return nil
	}
	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}
	add(addr.Address1)
	add(addr.Address2)
	add(strings.TrimSpace(addr.Zip + " " + addr.City))
	if addr.Province != "" {
		add(addr.Province)
	} else {
		add(addr.ProvinceCode)
	}
	if addr.Country != "" {
		add(addr.Country)
	} else {
		add(addr.CountryCode)
	}
	return lines
}

// CurrencySymbol resolves the display symbol of an ISO 4217 code. Overrides win over
// the CLDR narrow symbol; unknown codes render as the code followed by a space.
func CurrencySymbol(code string, overrides map[string]string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if sym, ok := overrides[code]; ok {
		return sym
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return ""
		}
		return code + " "
	}
	return fmt.Sprint(currency.NarrowSymbol(unit))
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
