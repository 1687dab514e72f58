package shopify

import (
	"context"
	"strings"

	"quote-service/internal/domain"

	"github.com/shopspring/decimal"
)

const cartGIDPrefix = "gid://shopify/Cart/"

// Cart is the live Storefront view of a shopper's cart.
type Cart struct {
	ID              string
	Note            string
	Lines           []domain.CartLine
	Customer        *domain.Customer
	ShippingAddress *domain.Address
	Pricing         *domain.PricingSummary
}

// CartID turns a storefront cart token into a Storefront global id.
func CartID(token string) string {
	if strings.HasPrefix(token, "gid://") {
		return token
	}
	return cartGIDPrefix + token
}

type cartNode struct {
	ID            string `json:"id"`
	Note          string `json:"note"`
	BuyerIdentity *struct {
		Email                      string           `json:"email"`
		Phone                      string           `json:"phone"`
		Customer                   *customerNode    `json:"customer"`
		DeliveryAddressPreferences []mailingAddress `json:"deliveryAddressPreferences"`
	} `json:"buyerIdentity"`
	Cost *struct {
		SubtotalAmount *moneyV2 `json:"subtotalAmount"`
		TotalAmount    *moneyV2 `json:"totalAmount"`
	} `json:"cost"`
	DiscountCodes []struct {
		Code       string `json:"code"`
		Applicable bool   `json:"applicable"`
	} `json:"discountCodes"`
	Lines struct {
		Nodes []struct {
			ID         string             `json:"id"`
			Quantity   int                `json:"quantity"`
			Attributes []domain.Attribute `json:"attributes"`
			Cost       struct {
				AmountPerQuantity moneyV2 `json:"amountPerQuantity"`
			} `json:"cost"`
			Merchandise struct {
				ID    string `json:"id"`
				Title string `json:"title"`
				SKU   string `json:"sku"`
				Image *struct {
					URL string `json:"url"`
				} `json:"image"`
				Product *struct {
					ID    string `json:"id"`
					Title string `json:"title"`
				} `json:"product"`
			} `json:"merchandise"`
		} `json:"nodes"`
	} `json:"lines"`
}

func (n *cartNode) toCart() *Cart {
	if n == nil {
		return nil
	}
	c := &Cart{ID: n.ID, Note: n.Note}
	for _, l := range n.Lines.Nodes {
		line := domain.CartLine{
			ID:           l.ID,
			Quantity:     l.Quantity,
			VariantID:    l.Merchandise.ID,
			VariantTitle: l.Merchandise.Title,
			SKU:          l.Merchandise.SKU,
			UnitPrice:    l.Cost.AmountPerQuantity.Amount,
			Properties:   l.Attributes,
		}
		if p := l.Merchandise.Product; p != nil {
			line.ProductID = p.ID
			line.Title = p.Title
		}
		if line.Title == "" {
			line.Title = l.Merchandise.Title
		}
		if l.Merchandise.Image != nil {
			line.Image = l.Merchandise.Image.URL
		}
		c.Lines = append(c.Lines, line)
	}
	if b := n.BuyerIdentity; b != nil {
		if b.Customer != nil {
			c.Customer = b.Customer.toDomain()
		} else if b.Email != "" || b.Phone != "" {
			c.Customer = &domain.Customer{Email: b.Email, Phone: b.Phone}
		}
		if c.Customer != nil && c.Customer.Email == "" {
			c.Customer.Email = b.Email
		}
		if len(b.DeliveryAddressPreferences) > 0 {
			c.ShippingAddress = b.DeliveryAddressPreferences[0].toDomain()
		}
	}
	if n.Cost != nil && n.Cost.SubtotalAmount != nil {
		pricing := &domain.PricingSummary{
			Subtotal: n.Cost.SubtotalAmount.Amount,
			Currency: n.Cost.SubtotalAmount.CurrencyCode,
		}
		if n.Cost.TotalAmount != nil {
			pricing.Total = decimal.NewNullDecimal(n.Cost.TotalAmount.Amount)
		}
		for _, d := range n.DiscountCodes {
			if d.Applicable {
				pricing.DiscountCodes = append(pricing.DiscountCodes, d.Code)
			}
		}
		c.Pricing = pricing
	}
	return c
}

// Cart fetches a live cart by token or global id. A nil result means the cart does not exist.
func (c *Client) Cart(ctx context.Context, token string) (*Cart, error) {
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	if err := c.Do(ctx, "cart", cartQuery, map[string]interface{}{"id": CartID(token)}, &data); err != nil {
		return nil, err
	}
	return data.Cart.toCart(), nil
}
