package services

import (
	"context"
	"net/url"

	"vismapay/entity"
)

// Payments is the gateway client surface. Every call validates credentials
// and operation parameters before touching the network, signs the request
// envelope, and classifies the gateway reply; a non-zero result code comes
// back as a typed error carrying the full response.
type Payments interface {
	CreateCharge(ctx context.Context, charge *entity.Charge) (*entity.Response, error)
	ChargeCardToken(ctx context.Context, charge *entity.Charge) (*entity.Response, error)

	StatusWithToken(ctx context.Context, token string) (*entity.Response, error)
	StatusWithOrderNumber(ctx context.Context, orderNumber string) (*entity.Response, error)
	Capture(ctx context.Context, orderNumber string) (*entity.Response, error)
	Cancel(ctx context.Context, orderNumber string) (*entity.Response, error)
	GetPayment(ctx context.Context, orderNumber string) (*entity.Response, error)

	GetCardToken(ctx context.Context, cardToken string) (*entity.Response, error)
	DeleteCardToken(ctx context.Context, cardToken string) (*entity.Response, error)

	GetMerchantPaymentMethods(ctx context.Context, currency string) (*entity.Response, error)

	CreateRefund(ctx context.Context, refund *entity.Refund) (*entity.Response, error)
	GetRefund(ctx context.Context, refundId string) (*entity.Response, error)
	CancelRefund(ctx context.Context, refundId string) (*entity.Response, error)

	// CheckReturn authenticates a browser return or notification callback.
	// It must pass before any side effect is taken on the callback.
	CheckReturn(params url.Values) (*entity.ReturnParams, error)

	// PaymentURL is the address the customer is redirected to for a
	// created payment token.
	PaymentURL(token string) string
}
