package entity

import "time"

// PaymentOrder is the local ledger entry for one charge sent to the
// gateway. An order is opened when the charge is created and closed when
// the gateway reports the outcome through a callback.
type PaymentOrder struct {
	OrderNumber  string    `json:"order_number" bson:"order_number"`
	Amount       int       `json:"amount" bson:"amount"`
	Currency     string    `json:"currency" bson:"currency"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Token        string    `json:"token,omitempty" bson:"token,omitempty"`
	CardToken    string    `json:"card_token,omitempty" bson:"card_token,omitempty"`
	IsCompleted  bool      `json:"is_completed" bson:"is_completed"`
	Result       string    `json:"result,omitempty" bson:"result,omitempty"`
	Settled      bool      `json:"settled" bson:"settled"`
	TimeOpened   time.Time `json:"time_opened" bson:"time_opened"`
	TimeClosed   time.Time `json:"time_closed,omitempty" bson:"time_closed,omitempty"`
	RefundId     int       `json:"refund_id,omitempty" bson:"refund_id,omitempty"`
	RefundAmount int       `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	RefundTime   time.Time `json:"refund_time,omitempty" bson:"refund_time,omitempty"`
}
