package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quote-service/internal/config"
	"quote-service/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Header    http.Header
	Query     string
	Variables map[string]json.RawMessage
}

func newTestClient(t *testing.T, status int, body string) (*Client, *[]recordedRequest) {
	t.Helper()
	var calls []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Query     string                     `json:"query"`
			Variables map[string]json.RawMessage `json:"variables"`
		}
		_ = json.Unmarshal(raw, &req)
		calls = append(calls, recordedRequest{Header: r.Header.Clone(), Query: req.Query, Variables: req.Variables})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	c := New("admin", srv.URL, "X-Shopify-Access-Token", "shpat_test", Options{Logger: zerolog.Nop()})
	return c, &calls
}

func TestDoSendsTokenAndDecodesData(t *testing.T) {
	c, calls := newTestClient(t, http.StatusOK, `{"data":{"draftOrder":{"id":"gid://shopify/DraftOrder/1","name":"#D1","totalPriceSet":{"shopMoney":{"amount":"12.40","currencyCode":"EUR"}}}}}`)

	order, err := c.DraftOrder(context.Background(), "gid://shopify/DraftOrder/1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "#D1", order.Name)
	assert.Equal(t, "12.4", order.TotalPrice.String())
	assert.Equal(t, "EUR", order.CurrencyCode)

	require.Len(t, *calls, 1)
	assert.Equal(t, "shpat_test", (*calls)[0].Header.Get("X-Shopify-Access-Token"))
	assert.JSONEq(t, `"gid://shopify/DraftOrder/1"`, string((*calls)[0].Variables["id"]))
}

func TestDraftOrderMissingReturnsNil(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"data":{"draftOrder":null}}`)

	order, err := c.DraftOrder(context.Background(), "gid://shopify/DraftOrder/404")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestDoClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"http status", http.StatusBadGateway, `upstream down`, domain.ErrTransport},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"Throttled"}]}`, domain.ErrRemoteAPI},
		{"bad json", http.StatusOK, `{not json`, domain.ErrRemoteAPI},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, tc.status, tc.body)
			_, err := c.DraftOrder(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestDoReportsToObserver(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"data":{"draftOrder":null}}`)
	var gotAPI, gotOp string
	c.observe = func(api, operation string, _ time.Duration, err error) {
		gotAPI, gotOp = api, operation
		assert.NoError(t, err)
	}

	_, err := c.DraftOrder(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "admin", gotAPI)
	assert.Equal(t, "draftOrder", gotOp)
}

func TestCreateDraftOrderReturnsUserErrors(t *testing.T) {
	c, calls := newTestClient(t, http.StatusOK, `{"data":{"draftOrderCreate":{"draftOrder":null,"userErrors":[{"field":["lineItems"],"message":"Variant is invalid"}]}}}`)

	res, err := c.CreateDraftOrder(context.Background(), DraftOrderInput{
		LineItems: []DraftOrderLineItemInput{{VariantID: "gid://shopify/ProductVariant/9", Quantity: 1}},
		Tags:      []string{"quote-request"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DraftOrder)
	require.Len(t, res.UserErrors, 1)
	assert.Equal(t, "Variant is invalid", res.UserErrors[0].Message)

	var input map[string]interface{}
	require.NoError(t, json.Unmarshal((*calls)[0].Variables["input"], &input))
	assert.NotContains(t, input, "shippingAddress")
	assert.Equal(t, []interface{}{"quote-request"}, input["tags"])
}

func TestDraftOrderConversion(t *testing.T) {
	body := `{"data":{"draftOrder":{
		"id":"gid://shopify/DraftOrder/7","name":"#D7","taxesIncluded":true,"currencyCode":"EUR",
		"totalDiscountsSet":{"shopMoney":{"amount":"5.00"}},
		"taxLines":[{"title":"VAT","rate":0.24,"priceSet":{"shopMoney":{"amount":"4.80"}}}],
		"shippingLine":{"title":"Courier","originalPriceSet":{"shopMoney":{"amount":"6.20"}},"taxLines":[]},
		"lineItems":{"nodes":[{"id":"li1","title":"Chair","quantity":2,
			"originalUnitPriceSet":{"shopMoney":{"amount":"10.00"}},
			"taxLines":[{"title":"VAT","rate":0.24,"priceSet":{"shopMoney":{"amount":"3.87"}}}],
			"variant":{"id":"v1"},"product":{"id":"p1"},"image":{"url":"https://cdn/x.png"},
			"customAttributes":[{"key":"color","value":"red"}]}]},
		"shippingAddress":{"address1":"Main 1","city":"Tallinn","countryCodeV2":"EE"},
		"purchasingEntity":{"company":{"id":"c1","name":"Acme"},"location":{"id":"l1"}}
	}}}`
	c, _ := newTestClient(t, http.StatusOK, body)

	order, err := c.DraftOrder(context.Background(), "gid://shopify/DraftOrder/7")
	require.NoError(t, err)
	require.Len(t, order.LineItems, 1)
	li := order.LineItems[0]
	assert.Equal(t, "v1", li.VariantID)
	assert.Equal(t, "https://cdn/x.png", li.Image)
	assert.Equal(t, "10", li.UnitPrice.String())
	assert.Equal(t, 0.24, li.TaxLines[0].Rate)
	assert.Equal(t, []domain.Attribute{{Key: "color", Value: "red"}}, li.CustomAttributes)
	assert.Equal(t, "EE", order.ShippingAddress.CountryCode)
	require.NotNil(t, order.Company)
	assert.Equal(t, domain.Company{ID: "c1", LocationID: "l1", Name: "Acme"}, *order.Company)
	assert.Equal(t, "6.2", order.ShippingLine.Price.String())
	assert.Equal(t, "5", order.TotalDiscounts.String())
	assert.Nil(t, order.BillingAddress)
}

func TestFileStatus(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"data":{"node":{"id":"gid://shopify/GenericFile/1","fileStatus":"FAILED","fileErrors":[{"code":"UNKNOWN","message":"boom"}]}}}`)

	f, err := c.FileStatus(context.Background(), "gid://shopify/GenericFile/1")
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusFailed, f.Status)
	require.Len(t, f.Errors, 1)
	assert.Equal(t, "UNKNOWN", f.Errors[0].Code)
}

func TestCartConversion(t *testing.T) {
	body := `{"data":{"cart":{"id":"gid://shopify/Cart/abc",
		"buyerIdentity":{"email":"a@b.c","customer":null,"deliveryAddressPreferences":[{"address1":"Live 2","city":"Tartu"}]},
		"cost":{"subtotalAmount":{"amount":"20.00","currencyCode":"EUR"},"totalAmount":{"amount":"24.80","currencyCode":"EUR"}},
		"discountCodes":[{"code":"SPRING","applicable":true},{"code":"OLD","applicable":false}],
		"lines":{"nodes":[{"id":"l1","quantity":2,"attributes":[],"cost":{"amountPerQuantity":{"amount":"10.00"}},
			"merchandise":{"id":"gid://shopify/ProductVariant/5","title":"Large","product":{"id":"p5","title":"Desk"}}}]}}}}`
	c, calls := newTestClient(t, http.StatusOK, body)

	cart, err := c.Cart(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.JSONEq(t, `"gid://shopify/Cart/abc"`, string((*calls)[0].Variables["id"]))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "Desk", cart.Lines[0].Title)
	assert.Equal(t, "Large", cart.Lines[0].VariantTitle)
	assert.Equal(t, "a@b.c", cart.Customer.Email)
	assert.Equal(t, "Tartu", cart.ShippingAddress.City)
	assert.Equal(t, []string{"SPRING"}, cart.Pricing.DiscountCodes)
	assert.True(t, cart.Pricing.Total.Valid)
}

func TestCartID(t *testing.T) {
	assert.Equal(t, "gid://shopify/Cart/xyz", CartID("xyz"))
	assert.Equal(t, "gid://shopify/Cart/xyz?key=1", CartID("gid://shopify/Cart/xyz?key=1"))
}

func TestMerchantSourcesFetchShopOnce(t *testing.T) {
	c, calls := newTestClient(t, http.StatusOK, `{"data":{"shop":{"name":"Nordic Desks","email":"shop@x","contactEmail":"",
		"billingAddress":{"company":"Nordic Desks OÜ","city":"Tallinn"},
		"metafields":{"nodes":[{"key":"vat_number","value":"EE123"},{"key":"payment_terms_days","value":"7"}]}}}}`)

	merchant := config.ResolveMerchant(context.Background(), zerolog.Nop(), nil, MerchantSources(c)...)
	assert.Equal(t, "Nordic Desks", merchant.Name)
	assert.Equal(t, "Nordic Desks OÜ", merchant.LegalName)
	assert.Equal(t, "shop@x", merchant.Email)
	assert.Equal(t, "EE123", merchant.VATNumber)
	assert.Equal(t, 7, merchant.PaymentTermsDays)
	assert.Len(t, *calls, 1)
}
