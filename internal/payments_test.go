package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vismapay/config"
	"vismapay/entity"
)

const (
	testApiKey     = "testkey"
	testPrivateKey = "testprivate"
)

func testConfig(host string) *config.Config {
	conf := &config.Config{}
	conf.Merchant.ApiKey = testApiKey
	conf.Merchant.PrivateKey = testPrivateKey
	conf.Merchant.Host = host
	conf.Merchant.Https = false
	return conf
}

// newTestPayments points a client at a stub gateway.
func newTestPayments(t *testing.T, handler http.HandlerFunc) *Payments {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPayments(testConfig(strings.TrimPrefix(srv.URL, "http://")))
}

// captureGateway records the request path and decoded body, then replies
// with the given JSON.
func captureGateway(t *testing.T, path *string, body *map[string]interface{}, reply string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*path = r.URL.Path
		var decoded map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))
		*body = decoded
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}
}

func validCharge() *entity.Charge {
	return &entity.Charge{
		Amount:      1200,
		OrderNumber: "order-1",
		Currency:    "EUR",
		PaymentMethod: &entity.PaymentMethod{
			Type:      "e-payment",
			ReturnUrl: "https://shop.example/return",
			NotifyUrl: "https://shop.example/notify",
		},
	}
}

func TestCreateChargePayload(t *testing.T) {
	var path string
	var body map[string]interface{}
	p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0,"token":"abc","type":"e-payment"}`))

	charge := validCharge()
	charge.Email = "first.last@example.com"
	charge.Customer = &entity.Customer{Firstname: "First", Lastname: "Last"}
	charge.Products = []entity.Product{{Id: "p1", Title: "Item", Count: 1, PretaxPrice: 968, Tax: 24, Price: 1200, Type: 1}}

	response, err := p.CreateCharge(context.Background(), charge)
	require.NoError(t, err)
	assert.Equal(t, "abc", response.Token)
	assert.Equal(t, 0, response.ResultCode())

	assert.Equal(t, "/pbwapi/auth_payment", path)
	assert.Equal(t, "w3.2", body["version"])
	assert.Equal(t, testApiKey, body["api_key"])
	assert.Equal(t, "order-1", body["order_number"])
	assert.Equal(t, "1200", body["amount"])
	assert.Equal(t, "EUR", body["currency"])
	// scalar escaping applies, structured blocks travel as JSON
	assert.Equal(t, "first.last%40example.com", body["email"])
	assert.Contains(t, body, "payment_method")
	assert.Contains(t, body, "customer")
	assert.Contains(t, body, "products")
	assert.Equal(t, refAuthcode(testPrivateKey, testApiKey+"|order-1"), body["authcode"])
}

func TestCreateChargeOmitsAbsentOptionals(t *testing.T) {
	var path string
	var body map[string]interface{}
	p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0,"token":"abc"}`))

	_, err := p.CreateCharge(context.Background(), validCharge())
	require.NoError(t, err)

	// absent optionals must not appear as null or empty placeholders
	assert.NotContains(t, body, "email")
	assert.NotContains(t, body, "customer")
	assert.NotContains(t, body, "products")
	assert.NotContains(t, body, "card_token")
	assert.NotContains(t, body, "initiator")
}

func TestCreateChargeCredentialsNotSet(t *testing.T) {
	cases := map[string]func(*config.Config){
		"no api key":     func(c *config.Config) { c.Merchant.ApiKey = "" },
		"no private key": func(c *config.Config) { c.Merchant.PrivateKey = "" },
		"no keys":        func(c *config.Config) { c.Merchant.ApiKey = ""; c.Merchant.PrivateKey = "" },
	}
	for name, strip := range cases {
		t.Run(name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))
			defer srv.Close()

			conf := testConfig(strings.TrimPrefix(srv.URL, "http://"))
			strip(conf)
			p := NewPayments(conf)

			_, err := p.CreateCharge(context.Background(), validCharge())
			assert.Equal(t, ErrCredentialsNotSet, KindOf(err))
			// rejected before any network resource is consumed
			assert.Equal(t, 0, calls)
		})
	}
}

func TestCreateChargeInvalidParameters(t *testing.T) {
	cases := map[string]func(*entity.Charge){
		"amount":         func(c *entity.Charge) { c.Amount = 0 },
		"order_number":   func(c *entity.Charge) { c.OrderNumber = "" },
		"currency":       func(c *entity.Charge) { c.Currency = "" },
		"payment_method": func(c *entity.Charge) { c.PaymentMethod = nil },
	}
	for field, strip := range cases {
		t.Run(field, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))
			defer srv.Close()
			p := NewPayments(testConfig(strings.TrimPrefix(srv.URL, "http://")))

			charge := validCharge()
			strip(charge)
			_, err := p.CreateCharge(context.Background(), charge)
			require.Error(t, err)
			assert.Equal(t, ErrInvalidParameters, KindOf(err))
			assert.Contains(t, err.Error(), "CreateCharge")
			assert.Contains(t, err.Error(), field)
			assert.Equal(t, 0, calls)
		})
	}
}

func TestChargeCardTokenSigning(t *testing.T) {
	var path string
	var body map[string]interface{}
	srv := httptest.NewServer(captureGateway(t, &path, &body, `{"result":0}`))
	defer srv.Close()

	conf := testConfig(strings.TrimPrefix(srv.URL, "http://"))
	conf.Merchant.ApiKey = "K"
	conf.Merchant.PrivateKey = "secret"
	p := NewPayments(conf)

	charge := &entity.Charge{
		Amount:      500,
		OrderNumber: "O",
		Currency:    "EUR",
		CardToken:   "T",
		Initiator:   &entity.Initiator{Type: 1},
	}
	_, err := p.ChargeCardToken(context.Background(), charge)
	require.NoError(t, err)

	assert.Equal(t, "/pbwapi/charge_card_token", path)
	assert.Equal(t, "T", body["card_token"])
	assert.Contains(t, body, "initiator")
	// the canonical signing string is K|O|T, in that fixed order
	assert.Equal(t, refAuthcode("secret", "K|O|T"), body["authcode"])
}

func TestChargeCardTokenRequiresToken(t *testing.T) {
	p := NewPayments(testConfig("gateway.invalid"))
	charge := validCharge()
	charge.PaymentMethod = nil

	_, err := p.ChargeCardToken(context.Background(), charge)
	assert.Equal(t, ErrInvalidParameters, KindOf(err))
	assert.Contains(t, err.Error(), "card_token")
}

func TestResponseClassification(t *testing.T) {
	t.Run("success returns full response", func(t *testing.T) {
		p := newTestPayments(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":0,"token":"abc","type":"e-payment"}`))
		})
		response, err := p.CreateCharge(context.Background(), validCharge())
		require.NoError(t, err)
		assert.Equal(t, "abc", response.Token)
		assert.Equal(t, "e-payment", response.Type)
		assert.JSONEq(t, `{"result":0,"token":"abc","type":"e-payment"}`, string(response.Raw))
	})

	t.Run("nonzero result is a gateway error", func(t *testing.T) {
		p := newTestPayments(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":2}`))
		})
		_, err := p.CreateCharge(context.Background(), validCharge())
		assert.Equal(t, ErrApiReturned, KindOf(err))
		require.NotNil(t, GatewayResponse(err))
		assert.Equal(t, 2, GatewayResponse(err).ResultCode())
	})

	t.Run("non-JSON body is malformed", func(t *testing.T) {
		p := newTestPayments(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`maintenance break`))
		})
		_, err := p.CreateCharge(context.Background(), validCharge())
		assert.Equal(t, ErrMalformedResponse, KindOf(err))
	})

	t.Run("missing result field is malformed", func(t *testing.T) {
		p := newTestPayments(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token":"abc"}`))
		})
		_, err := p.CreateCharge(context.Background(), validCharge())
		assert.Equal(t, ErrMalformedResponse, KindOf(err))
	})

	t.Run("transport failure is a protocol error", func(t *testing.T) {
		p := NewPayments(testConfig("127.0.0.1:1"))
		_, err := p.CreateCharge(context.Background(), validCharge())
		assert.Equal(t, ErrProtocol, KindOf(err))
	})
}

func TestQueryOperations(t *testing.T) {
	cases := []struct {
		name    string
		call    func(p *Payments) error
		path    string
		signed  string
		field   string
		value   string
		version string
	}{
		{
			name:    "status with token",
			call:    func(p *Payments) error { _, err := p.StatusWithToken(context.Background(), "tok-1"); return err },
			path:    "/pbwapi/check_payment_status",
			signed:  testApiKey + "|tok-1",
			field:   "token",
			value:   "tok-1",
			version: "w3.2",
		},
		{
			name:    "status with order number",
			call:    func(p *Payments) error { _, err := p.StatusWithOrderNumber(context.Background(), "order-1"); return err },
			path:    "/pbwapi/check_payment_status",
			signed:  testApiKey + "|order-1",
			field:   "order_number",
			value:   "order-1",
			version: "w3.2",
		},
		{
			name:    "capture",
			call:    func(p *Payments) error { _, err := p.Capture(context.Background(), "order-1"); return err },
			path:    "/pbwapi/capture",
			signed:  testApiKey + "|order-1",
			field:   "order_number",
			value:   "order-1",
			version: "w3.2",
		},
		{
			name:    "cancel",
			call:    func(p *Payments) error { _, err := p.Cancel(context.Background(), "order-1"); return err },
			path:    "/pbwapi/cancel",
			signed:  testApiKey + "|order-1",
			field:   "order_number",
			value:   "order-1",
			version: "w3.2",
		},
		{
			name:    "get payment",
			call:    func(p *Payments) error { _, err := p.GetPayment(context.Background(), "order-1"); return err },
			path:    "/pbwapi/get_payment",
			signed:  testApiKey + "|order-1",
			field:   "order_number",
			value:   "order-1",
			version: "w3.2",
		},
		{
			name:    "get card token",
			call:    func(p *Payments) error { _, err := p.GetCardToken(context.Background(), "card-1"); return err },
			path:    "/pbwapi/get_card_token",
			signed:  testApiKey + "|card-1",
			field:   "card_token",
			value:   "card-1",
			version: "w3.2",
		},
		{
			name:    "delete card token",
			call:    func(p *Payments) error { _, err := p.DeleteCardToken(context.Background(), "card-1"); return err },
			path:    "/pbwapi/delete_card_token",
			signed:  testApiKey + "|card-1",
			field:   "card_token",
			value:   "card-1",
			version: "w3.2",
		},
		{
			name:    "get refund",
			call:    func(p *Payments) error { _, err := p.GetRefund(context.Background(), "55"); return err },
			path:    "/pbwapi/get_refund",
			signed:  testApiKey + "|55",
			field:   "refund_id",
			value:   "55",
			version: "w3.2",
		},
		{
			name:    "cancel refund",
			call:    func(p *Payments) error { _, err := p.CancelRefund(context.Background(), "55"); return err },
			path:    "/pbwapi/cancel_refund",
			signed:  testApiKey + "|55",
			field:   "refund_id",
			value:   "55",
			version: "w3.2",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var path string
			var body map[string]interface{}
			p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0}`))

			require.NoError(t, c.call(p))
			assert.Equal(t, c.path, path)
			assert.Equal(t, c.version, body["version"])
			assert.Equal(t, c.value, body[c.field])
			assert.Equal(t, refAuthcode(testPrivateKey, c.signed), body["authcode"])
		})
	}
}

func TestQueryOperationsRejectEmptyIdentifier(t *testing.T) {
	p := NewPayments(testConfig("gateway.invalid"))
	ctx := context.Background()

	for name, call := range map[string]func() error{
		"StatusWithToken": func() error { _, err := p.StatusWithToken(ctx, ""); return err },
		"Capture":         func() error { _, err := p.Capture(ctx, ""); return err },
		"DeleteCardToken": func() error { _, err := p.DeleteCardToken(ctx, ""); return err },
		"CancelRefund":    func() error { _, err := p.CancelRefund(ctx, ""); return err },
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ErrInvalidParameters, KindOf(call()))
		})
	}
}

func TestMerchantPaymentMethods(t *testing.T) {
	t.Run("with currency filter", func(t *testing.T) {
		var path string
		var body map[string]interface{}
		p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0,"payment_methods":[{"name":"Bank","selected_value":"bank","group":"banks","currency":["EUR"]}]}`))

		response, err := p.GetMerchantPaymentMethods(context.Background(), "EUR")
		require.NoError(t, err)
		require.Len(t, response.PaymentMethods, 1)
		assert.Equal(t, "bank", response.PaymentMethods[0].SelectedValue)

		assert.Equal(t, "/pbwapi/merchant_payment_methods", path)
		// the listing speaks its own protocol version
		assert.Equal(t, "2", body["version"])
		assert.Equal(t, "EUR", body["currency"])
		// the api key alone forms the signing string
		assert.Equal(t, refAuthcode(testPrivateKey, testApiKey), body["authcode"])
	})

	t.Run("without currency filter", func(t *testing.T) {
		var path string
		var body map[string]interface{}
		p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0}`))

		_, err := p.GetMerchantPaymentMethods(context.Background(), "")
		require.NoError(t, err)
		assert.NotContains(t, body, "currency")
	})
}

func TestCreateRefund(t *testing.T) {
	t.Run("amount wins over products", func(t *testing.T) {
		var path string
		var body map[string]interface{}
		p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0,"refund_id":55}`))

		refund := &entity.Refund{
			OrderNumber: "order-1",
			Amount:      500,
			Products:    []entity.RefundProduct{{ProductId: "p1", Count: 1}},
		}
		response, err := p.CreateRefund(context.Background(), refund)
		require.NoError(t, err)
		assert.Equal(t, 55, response.RefundId)

		assert.Equal(t, "/pbwapi/create_refund", path)
		assert.Equal(t, "500", body["amount"])
		assert.NotContains(t, body, "products")
		assert.Equal(t, refAuthcode(testPrivateKey, testApiKey+"|order-1"), body["authcode"])
	})

	t.Run("products without amount", func(t *testing.T) {
		var path string
		var body map[string]interface{}
		p := newTestPayments(t, captureGateway(t, &path, &body, `{"result":0,"refund_id":56}`))

		refund := &entity.Refund{
			OrderNumber: "order-1",
			Products:    []entity.RefundProduct{{ProductId: "p1", Count: 2}},
		}
		_, err := p.CreateRefund(context.Background(), refund)
		require.NoError(t, err)
		assert.NotContains(t, body, "amount")
		assert.Contains(t, body, "products")
	})

	t.Run("order number required", func(t *testing.T) {
		p := NewPayments(testConfig("gateway.invalid"))
		_, err := p.CreateRefund(context.Background(), &entity.Refund{Amount: 500})
		assert.Equal(t, ErrInvalidParameters, KindOf(err))
		assert.Contains(t, err.Error(), "order_number")
	})

	t.Run("amount or products required", func(t *testing.T) {
		p := NewPayments(testConfig("gateway.invalid"))
		_, err := p.CreateRefund(context.Background(), &entity.Refund{OrderNumber: "order-1"})
		assert.Equal(t, ErrInvalidParameters, KindOf(err))
	})
}

func TestPaymentURL(t *testing.T) {
	p := NewPayments(testConfig(""))
	assert.Equal(t, "http://www.vismapay.com/pbwapi/token/tok%2F1", p.PaymentURL("tok/1"))
}
