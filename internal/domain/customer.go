package domain

// Customer identifies the buyer. All fields may be absent.
type Customer struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Company carries the B2B purchasing context.
type Company struct {
	ID         string `json:"id,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Address is used for both shipping and billing and may be partially empty.
type Address struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Company      string `json:"company,omitempty"`
	Address1     string `json:"address1,omitempty"`
	Address2     string `json:"address2,omitempty"`
	City         string `json:"city,omitempty"`
	Province     string `json:"province,omitempty"`
	ProvinceCode string `json:"provinceCode,omitempty"`
	Country      string `json:"country,omitempty"`
	CountryCode  string `json:"countryCode,omitempty"`
	Zip          string `json:"zip,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// HasLocation reports whether the address carries enough to be sent to the platform.
func (a *Address) HasLocation() bool {
	if a == nil {
		return false
	}
	return a.Address1 != "" || a.City != "" || a.Country != "" || a.CountryCode != ""
}

// MergeAddress combines two addresses field by field: a non-empty primary field wins,
// otherwise the fallback field is used, otherwise the field stays empty.
func MergeAddress(primary, fallback *Address) Address {
	var p, f Address
	if primary != nil {
		p = *primary
	}
	if fallback != nil {
		f = *fallback
	}
	return Address{
		FirstName:    firstNonEmpty(p.FirstName, f.FirstName),
		LastName:     firstNonEmpty(p.LastName, f.LastName),
		Company:      firstNonEmpty(p.Company, f.Company),
		Address1:     firstNonEmpty(p.Address1, f.Address1),
		Address2:     firstNonEmpty(p.Address2, f.Address2),
		City:         firstNonEmpty(p.City, f.City),
		Province:     firstNonEmpty(p.Province, f.Province),
		ProvinceCode: firstNonEmpty(p.ProvinceCode, f.ProvinceCode),
		Country:      firstNonEmpty(p.Country, f.Country),
		CountryCode:  firstNonEmpty(p.CountryCode, f.CountryCode),
		Zip:          firstNonEmpty(p.Zip, f.Zip),
		Phone:        firstNonEmpty(p.Phone, f.Phone),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
