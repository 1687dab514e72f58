package shopify

import (
	"context"

	"quote-service/internal/domain"
)

// AttributeInput is a key/value custom attribute on a line item.
type AttributeInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DraftOrderLineItemInput references a variant by id.
type DraftOrderLineItemInput struct {
	VariantID        string           `json:"variantId"`
	Quantity         int              `json:"quantity"`
	CustomAttributes []AttributeInput `json:"customAttributes,omitempty"`
}

// MailingAddressInput is the address shape accepted by draftOrderCreate.
type MailingAddressInput struct {
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

type PurchasingCompanyInput struct {
	CompanyID         string `json:"companyId"`
	CompanyLocationID string `json:"companyLocationId"`
	CompanyContactID  string `json:"companyContactId,omitempty"`
}

type PurchasingEntityInput struct {
	CustomerID        string                  `json:"customerId,omitempty"`
	PurchasingCompany *PurchasingCompanyInput `json:"purchasingCompany,omitempty"`
}

// DraftOrderInput is the subset of the platform's DraftOrderInput this service sends.
type DraftOrderInput struct {
	LineItems        []DraftOrderLineItemInput `json:"lineItems,omitempty"`
	Email            string                    `json:"email,omitempty"`
	Phone            string                    `json:"phone,omitempty"`
	Note             string                    `json:"note,omitempty"`
	Tags             []string                  `json:"tags,omitempty"`
	DiscountCodes    []string                  `json:"discountCodes,omitempty"`
	ShippingAddress  *MailingAddressInput      `json:"shippingAddress,omitempty"`
	BillingAddress   *MailingAddressInput      `json:"billingAddress,omitempty"`
	PurchasingEntity *PurchasingEntityInput    `json:"purchasingEntity,omitempty"`
	CustomAttributes []AttributeInput          `json:"customAttributes,omitempty"`
}

// EmailInput overrides the defaults of an invoice email. Empty fields are omitted.
type EmailInput struct {
	To            string   `json:"to,omitempty"`
	From          string   `json:"from,omitempty"`
	Bcc           []string `json:"bcc,omitempty"`
	Subject       string   `json:"subject,omitempty"`
	CustomMessage string   `json:"customMessage,omitempty"`
}

// DraftOrderResult pairs a mutation result with the user errors it reported.
type DraftOrderResult struct {
	DraftOrder *domain.DraftOrder
	UserErrors []domain.UserError
}

type draftOrderPayload struct {
	DraftOrder *draftOrderNode `json:"draftOrder"`
	UserErrors []userErrorNode `json:"userErrors"`
}

func (p draftOrderPayload) result() DraftOrderResult {
	return DraftOrderResult{DraftOrder: p.DraftOrder.toDomain(), UserErrors: toUserErrors(p.UserErrors)}
}

// CreateDraftOrder runs draftOrderCreate.
func (c *Client) CreateDraftOrder(ctx context.Context, in DraftOrderInput) (DraftOrderResult, error) {
	var data struct {
		DraftOrderCreate draftOrderPayload `json:"draftOrderCreate"`
	}
	if err := c.Do(ctx, "draftOrderCreate", draftOrderCreateMutation, map[string]interface{}{"input": in}, &data); err != nil {
		return DraftOrderResult{}, err
	}
	return data.DraftOrderCreate.result(), nil
}

// DraftOrder fetches one draft order. A nil result means the id does not resolve.
func (c *Client) DraftOrder(ctx context.Context, id string) (*domain.DraftOrder, error) {
	var data struct {
		DraftOrder *draftOrderNode `json:"draftOrder"`
	}
	if err := c.Do(ctx, "draftOrder", draftOrderQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	return data.DraftOrder.toDomain(), nil
}

// SendInvoice runs draftOrderInvoiceSend. A nil email keeps the platform defaults.
func (c *Client) SendInvoice(ctx context.Context, id string, email *EmailInput) (DraftOrderResult, error) {
	vars := map[string]interface{}{"id": id}
	if email != nil {
		vars["email"] = email
	}
	var data struct {
		DraftOrderInvoiceSend draftOrderPayload `json:"draftOrderInvoiceSend"`
	}
	if err := c.Do(ctx, "draftOrderInvoiceSend", draftOrderInvoiceSendMutation, vars, &data); err != nil {
		return DraftOrderResult{}, err
	}
	return data.DraftOrderInvoiceSend.result(), nil
}

// UpdateNote replaces the draft order note.
func (c *Client) UpdateNote(ctx context.Context, id, note string) ([]domain.UserError, error) {
	var data struct {
		DraftOrderUpdate struct {
			UserErrors []userErrorNode `json:"userErrors"`
		} `json:"draftOrderUpdate"`
	}
	vars := map[string]interface{}{"id": id, "input": map[string]string{"note": note}}
	if err := c.Do(ctx, "draftOrderUpdate", draftOrderNoteUpdateMutation, vars, &data); err != nil {
		return nil, err
	}
	return toUserErrors(data.DraftOrderUpdate.UserErrors), nil
}

type metafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// SetMetafields writes fields onto ownerID and returns the keys the platform stored.
func (c *Client) SetMetafields(ctx context.Context, ownerID string, fields []domain.Metafield) ([]string, []domain.UserError, error) {
	inputs := make([]metafieldsSetInput, 0, len(fields))
	for _, f := range fields {
		inputs = append(inputs, metafieldsSetInput{OwnerID: ownerID, Namespace: f.Namespace, Key: f.Key, Type: f.Type, Value: f.Value})
	}
	var data struct {
		MetafieldsSet struct {
			Metafields []struct {
				Key string `json:"key"`
			} `json:"metafields"`
			UserErrors []userErrorNode `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.Do(ctx, "metafieldsSet", metafieldsSetMutation, map[string]interface{}{"metafields": inputs}, &data); err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(data.MetafieldsSet.Metafields))
	for _, m := range data.MetafieldsSet.Metafields {
		keys = append(keys, m.Key)
	}
	return keys, toUserErrors(data.MetafieldsSet.UserErrors), nil
}

// CompanyContact is one company contact profile of a customer.
type CompanyContact struct {
	ID        string
	CompanyID string
}

// CompanyContactProfiles lists the B2B contact profiles of a customer.
func (c *Client) CompanyContactProfiles(ctx context.Context, customerID string) ([]CompanyContact, error) {
	var data struct {
		Customer *struct {
			CompanyContactProfiles []struct {
				ID      string  `json:"id"`
				Company *idNode `json:"company"`
			} `json:"companyContactProfiles"`
		} `json:"customer"`
	}
	if err := c.Do(ctx, "customerCompanyContacts", companyContactProfilesQuery, map[string]interface{}{"id": customerID}, &data); err != nil {
		return nil, err
	}
	if data.Customer == nil {
		return nil, nil
	}
	out := make([]CompanyContact, 0, len(data.Customer.CompanyContactProfiles))
	for _, p := range data.Customer.CompanyContactProfiles {
		cc := CompanyContact{ID: p.ID}
		if p.Company != nil {
			cc.CompanyID = p.Company.ID
		}
		out = append(out, cc)
	}
	return out, nil
}
