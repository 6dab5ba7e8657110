package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vismapay/config"
	"vismapay/entity"
	"vismapay/services"
)

const (
	defaultHost       = "www.vismapay.com"
	defaultApiVersion = "w3.2"
)

// Payments is the Visma Pay gateway client. Credentials and endpoint
// configuration are captured at construction and treated as immutable for
// the lifetime of the client; every operation is an independent call that
// suspends only at the transport exchange. Mutating the configuration
// while requests are in flight is undefined behavior and is the caller's
// responsibility to avoid.
type Payments struct {
	apiKey     string
	privateKey string
	apiVersion string
	baseURL    string
	logger     services.LogHandler
	httpClient *http.Client
}

// NewPayments creates a gateway client with a configured HTTP client.
// The HTTP client includes timeouts and connection pooling for reliable
// external API calls.
func NewPayments(conf *config.Config) *Payments {
	host := conf.Merchant.Host
	if host == "" {
		host = defaultHost
	}
	scheme := "https"
	if !conf.Merchant.Https {
		scheme = "http"
	}
	version := conf.Merchant.ApiVersion
	if version == "" {
		version = defaultApiVersion
	}
	return &Payments{
		apiKey:     conf.Merchant.ApiKey,
		privateKey: conf.Merchant.PrivateKey,
		apiVersion: version,
		baseURL:    fmt.Sprintf("%s://%s", scheme, host),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
	}
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

func (p *Payments) debug(message string) {
	if p.logger != nil {
		p.logger.Debug(message)
	}
}

// PaymentURL is the customer-facing address for a created payment token.
func (p *Payments) PaymentURL(token string) string {
	return fmt.Sprintf("%s/pbwapi/token/%s", p.baseURL, encodeComponent(token))
}

// checkCredentials rejects signed operations before any envelope is built
// or any network resource is consumed.
func (p *Payments) checkCredentials() error {
	if p.apiKey == "" || p.privateKey == "" {
		return newError(ErrCredentialsNotSet, "api key and private key must be configured")
	}
	return nil
}

// authcode signs the canonical pipe-joined field sequence with the
// merchant private key.
func (p *Payments) authcode(parts ...string) string {
	return Authcode(p.privateKey, signingString(parts...))
}

func (p *Payments) versionFor(op operation) string {
	if op.version != "" {
		return op.version
	}
	return p.apiVersion
}

func requireFields(op operation, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return newError(ErrInvalidParameters, "%s: missing required fields: %s", op.name, strings.Join(missing, ", "))
}

// post sends the assembled envelope and classifies the reply. Exactly
// three outcomes exist: success (result 0, full response returned), a
// gateway-reported error (non-zero result, returned as ErrApiReturned with
// the verbatim response attached) and a malformed response (non-JSON body
// or no result field). Transport failures propagate as ErrProtocol; there
// are no retries and no caching.
func (p *Payments) post(ctx context.Context, op operation, payload interface{}) (*entity.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(ErrProtocol, "%s: encode request: %v", op.name, err)
	}
	p.debug(fmt.Sprintf("%s request: %s", op.name, string(data)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+op.path, bytes.NewBuffer(data))
	if err != nil {
		return nil, newError(ErrProtocol, "%s: create http request: %v", op.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	response, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(ErrProtocol, "%s: request cancelled: %v", op.name, ctx.Err())
		}
		return nil, newError(ErrProtocol, "%s: post request: %v", op.name, err)
	}
	defer func(body io.ReadCloser) {
		if e := body.Close(); e != nil && p.logger != nil {
			p.logger.Error("close response body", e)
		}
	}(response.Body)

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, newError(ErrProtocol, "%s: read response body: %v", op.name, err)
	}
	p.debug(fmt.Sprintf("%s response: %s", op.name, string(body)))

	var parsed entity.Response
	if err = json.Unmarshal(body, &parsed); err != nil {
		return nil, newError(ErrMalformedResponse, "%s: parse response: %v", op.name, err)
	}
	if parsed.Result == nil {
		return nil, newError(ErrMalformedResponse, "%s: response has no result field", op.name)
	}
	parsed.Raw = body

	if *parsed.Result != 0 {
		return nil, apiError(&parsed)
	}
	return &parsed, nil
}

// ------------------------------------------------------------- charges

// CreateCharge creates a new payment with auth_payment.
// Signing string: apiKey|orderNumber.
func (p *Payments) CreateCharge(ctx context.Context, charge *entity.Charge) (*entity.Response, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}
	if err := validateCharge(opAuthPayment, charge, false); err != nil {
		return nil, err
	}

	request := p.chargeRequest(opAuthPayment, charge)
	request.Authcode = p.authcode(p.apiKey, charge.OrderNumber)

	return p.post(ctx, opAuthPayment, request)
}

// ChargeCardToken charges a stored card without customer interaction.
// Signing string: apiKey|orderNumber|cardToken.
func (p *Payments) ChargeCardToken(ctx context.Context, charge *entity.Charge) (*entity.Response, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}
	if err := validateCharge(opChargeCardToken, charge, true); err != nil {
		return nil, err
	}

	request := p.chargeRequest(opChargeCardToken, charge)
	request.CardToken = encodeComponent(charge.CardToken)
	request.Initiator = charge.Initiator
	request.Authcode = p.authcode(p.apiKey, charge.OrderNumber, charge.CardToken)

	return p.post(ctx, opChargeCardToken, request)
}

// chargeRequest assembles the envelope fields shared by both charge
// operations. Scalars are percent-encoded; structured blocks travel as
// plain JSON and are included only when the caller supplied them.
func (p *Payments) chargeRequest(op operation, charge *entity.Charge) *entity.ChargeRequest {
	request := &entity.ChargeRequest{
		Version:       p.versionFor(op),
		ApiKey:        p.apiKey,
		Amount:        encodeComponent(strconv.Itoa(charge.Amount)),
		OrderNumber:   encodeComponent(charge.OrderNumber),
		Currency:      encodeComponent(charge.Currency),
		PaymentMethod: charge.PaymentMethod,
		Customer:      charge.Customer,
		Products:      charge.Products,
	}
	if charge.Email != "" {
		request.Email = encodeComponent(charge.Email)
	}
	return request
}

func validateCharge(op operation, charge *entity.Charge, cardToken bool) error {
	var missing []string
	if charge == nil {
		return newError(ErrInvalidParameters, "%s: charge is required", op.name)
	}
	if charge.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if charge.OrderNumber == "" {
		missing = append(missing, "order_number")
	}
	if charge.Currency == "" {
		missing = append(missing, "currency")
	}
	if cardToken {
		if charge.CardToken == "" {
			missing = append(missing, "card_token")
		}
	} else if charge.PaymentMethod == nil {
		missing = append(missing, "payment_method")
	}
	return requireFields(op, missing)
}

// ------------------------------------------------------------- queries

// StatusWithToken checks payment status by the payment token.
// Signing string: apiKey|token.
func (p *Payments) StatusWithToken(ctx context.Context, token string) (*entity.Response, error) {
	return p.query(ctx, opCheckStatus, "token", token, func(r *entity.QueryRequest) {
		r.Token = encodeComponent(token)
	})
}

// StatusWithOrderNumber checks payment status by the order number.
// Signing string: apiKey|orderNumber.
func (p *Payments) StatusWithOrderNumber(ctx context.Context, orderNumber string) (*entity.Response, error) {
	return p.query(ctx, opCheckStatus, "order_number", orderNumber, func(r *entity.QueryRequest) {
		r.OrderNumber = encodeComponent(orderNumber)
	})
}

// Capture settles a previously authorized payment.
// Signing string: apiKey|orderNumber.
func (p *Payments) Capture(ctx context.Context, orderNumber string) (*entity.Response, error) {
	return p.query(ctx, opCapture, "order_number", orderNumber, func(r *entity.QueryRequest) {
		r.OrderNumber = encodeComponent(orderNumber)
	})
}

// Cancel voids a previously authorized payment.
// Signing string: apiKey|orderNumber.
func (p *Payments) Cancel(ctx context.Context, orderNumber string) (*entity.Response, error) {
	return p.query(ctx, opCancel, "order_number", orderNumber, func(r *entity.QueryRequest) {
		r.OrderNumber = encodeComponent(orderNumber)
	})
}

// GetPayment fetches payment details by order number.
// Signing string: apiKey|orderNumber.
func (p *Payments) GetPayment(ctx context.Context, orderNumber string) (*entity.Response, error) {
	return p.query(ctx, opGetPayment, "order_number", orderNumber, func(r *entity.QueryRequest) {
		r.OrderNumber = encodeComponent(orderNumber)
	})
}

// GetCardToken fetches stored card details.
// Signing string: apiKey|cardToken.
func (p *Payments) GetCardToken(ctx context.Context, cardToken string) (*entity.Response, error) {
	return p.query(ctx, opGetCardToken, "card_token", cardToken, func(r *entity.QueryRequest) {
		r.CardToken = encodeComponent(cardToken)
	})
}

// DeleteCardToken removes a stored card from the gateway.
// Signing string: apiKey|cardToken.
func (p *Payments) DeleteCardToken(ctx context.Context, cardToken string) (*entity.Response, error) {
	return p.query(ctx, opDeleteCardToken, "card_token", cardToken, func(r *entity.QueryRequest) {
		r.CardToken = encodeComponent(cardToken)
	})
}

// GetRefund fetches refund details.
// Signing string: apiKey|refundId.
func (p *Payments) GetRefund(ctx context.Context, refundId string) (*entity.Response, error) {
	return p.query(ctx, opGetRefund, "refund_id", refundId, func(r *entity.QueryRequest) {
		r.RefundId = encodeComponent(refundId)
	})
}

// CancelRefund cancels a pending refund.
// Signing string: apiKey|refundId.
func (p *Payments) CancelRefund(ctx context.Context, refundId string) (*entity.Response, error) {
	return p.query(ctx, opCancelRefund, "refund_id", refundId, func(r *entity.QueryRequest) {
		r.RefundId = encodeComponent(refundId)
	})
}

// GetMerchantPaymentMethods lists payment methods enabled for the merchant
// account. The only signing field is the api key; the optional currency
// filter is sent but never signed.
func (p *Payments) GetMerchantPaymentMethods(ctx context.Context, currency string) (*entity.Response, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}
	request := &entity.QueryRequest{
		Version:  p.versionFor(opMerchantMethods),
		ApiKey:   p.apiKey,
		Authcode: p.authcode(p.apiKey),
	}
	if currency != "" {
		request.Currency = encodeComponent(currency)
	}
	return p.post(ctx, opMerchantMethods, request)
}

// query covers the single-identifier operations: one required field, the
// signing string apiKey|identifier, shared envelope shape.
func (p *Payments) query(ctx context.Context, op operation, field, value string, fill func(*entity.QueryRequest)) (*entity.Response, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}
	if value == "" {
		return nil, requireFields(op, []string{field})
	}
	request := &entity.QueryRequest{
		Version:  p.versionFor(op),
		ApiKey:   p.apiKey,
		Authcode: p.authcode(p.apiKey, value),
	}
	fill(request)
	return p.post(ctx, op, request)
}

// ------------------------------------------------------------- refunds

// CreateRefund refunds a settled payment, in full or in part.
// Signing string: apiKey|orderNumber. When both an amount and products are
// supplied the amount wins and the product lines are not sent; the gateway
// does not accept both at once.
func (p *Payments) CreateRefund(ctx context.Context, refund *entity.Refund) (*entity.Response, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, newError(ErrInvalidParameters, "%s: refund is required", opCreateRefund.name)
	}
	if refund.OrderNumber == "" {
		return nil, requireFields(opCreateRefund, []string{"order_number"})
	}
	if refund.Amount <= 0 && len(refund.Products) == 0 {
		return nil, newError(ErrInvalidParameters, "%s: either amount or products must be given", opCreateRefund.name)
	}

	request := &entity.RefundRequest{
		Version:     p.versionFor(opCreateRefund),
		ApiKey:      p.apiKey,
		OrderNumber: encodeComponent(refund.OrderNumber),
		Authcode:    p.authcode(p.apiKey, refund.OrderNumber),
	}
	if refund.Amount > 0 {
		request.Amount = encodeComponent(strconv.Itoa(refund.Amount))
	} else {
		request.Products = refund.Products
	}
	if refund.Email != "" {
		request.Email = encodeComponent(refund.Email)
	}
	if refund.NotifyUrl != "" {
		request.NotifyUrl = encodeComponent(refund.NotifyUrl)
	}

	return p.post(ctx, opCreateRefund, request)
}

// ------------------------------------------------------------- callbacks

// CheckReturn authenticates an inbound return or notification callback.
// The signing string is RETURN_CODE|ORDER_NUMBER, extended by SETTLED,
// CONTACT_ID and INCIDENT_ID in that order, each appended only when the
// parameter is present; the checks are independent of each other. The
// recomputed authcode is compared case-sensitively to AUTHCODE. Callers
// must not act on a callback that fails this check.
func (p *Payments) CheckReturn(params url.Values) (*entity.ReturnParams, error) {
	if err := p.checkCredentials(); err != nil {
		return nil, err
	}

	result := &entity.ReturnParams{
		ReturnCode:  params.Get("RETURN_CODE"),
		OrderNumber: params.Get("ORDER_NUMBER"),
		Settled:     params.Get("SETTLED"),
		ContactId:   params.Get("CONTACT_ID"),
		IncidentId:  params.Get("INCIDENT_ID"),
		Authcode:    params.Get("AUTHCODE"),
	}

	var missing []string
	if result.ReturnCode == "" {
		missing = append(missing, "RETURN_CODE")
	}
	if result.OrderNumber == "" {
		missing = append(missing, "ORDER_NUMBER")
	}
	if result.Authcode == "" {
		missing = append(missing, "AUTHCODE")
	}
	if len(missing) > 0 {
		return nil, newError(ErrInvalidParameters, "CheckReturn: missing required fields: %s", strings.Join(missing, ", "))
	}

	parts := []string{result.ReturnCode, result.OrderNumber}
	if params.Has("SETTLED") {
		parts = append(parts, params.Get("SETTLED"))
	}
	if params.Has("CONTACT_ID") {
		parts = append(parts, params.Get("CONTACT_ID"))
	}
	if params.Has("INCIDENT_ID") {
		parts = append(parts, params.Get("INCIDENT_ID"))
	}

	expected := p.authcode(parts...)
	if expected != result.Authcode {
		return nil, newError(ErrMacCheckFailed, "CheckReturn: authcode mismatch for order %s", result.OrderNumber)
	}
	return result, nil
}
