package services

import (
	"context"

	"vismapay/entity"
)

type Database interface {
	WriteLogMessage(data Data) error

	SavePaymentOrder(ctx context.Context, order *entity.PaymentOrder) error
	GetPaymentOrder(ctx context.Context, orderNumber string) (*entity.PaymentOrder, error)

	SavePaymentResult(ctx context.Context, result *entity.ReturnParams) error

	SaveCardToken(ctx context.Context, card *entity.SavedCard) error
	DeleteCardToken(ctx context.Context, cardToken string) error
}

type Data interface {
	DataType() string
}
