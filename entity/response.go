package entity

import "encoding/json"

// Response is the parsed gateway reply. Result is a pointer so a missing
// result field can be told apart from result 0; 0 means success, any other
// value is a gateway-reported error. Fields beyond Result are populated
// only by the operations that return them; Raw keeps the unparsed body for
// caller inspection.
type Response struct {
	Result         *int             `json:"result"`
	Token          string           `json:"token,omitempty"`
	Type           string           `json:"type,omitempty"`
	Settled        *int             `json:"settled,omitempty"`
	RefundId       int              `json:"refund_id,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
	PaymentMethods []MerchantMethod `json:"payment_methods,omitempty"`
	Payments       []Payment        `json:"payments,omitempty"`
	Refunds        []RefundStatus   `json:"refunds,omitempty"`
	Source         json.RawMessage  `json:"source,omitempty"`
	Raw            []byte           `json:"-"`
}

// ResultCode returns the gateway result code, or -1 when the response
// carried none.
func (r *Response) ResultCode() int {
	if r == nil || r.Result == nil {
		return -1
	}
	return *r.Result
}

// MerchantMethod is one payment method enabled for the merchant account.
type MerchantMethod struct {
	Name          string   `json:"name"`
	SelectedValue string   `json:"selected_value"`
	Group         string   `json:"group"`
	MinAmount     int      `json:"min_amount"`
	MaxAmount     int      `json:"max_amount"`
	Img           string   `json:"img"`
	Currency      []string `json:"currency"`
}

// Payment is one payment row returned by get_payment.
type Payment struct {
	OrderNumber string `json:"order_number"`
	Amount      int    `json:"amount"`
	Currency    string `json:"currency"`
	Status      int    `json:"status"`
	Created     string `json:"created_at"`
}

// RefundStatus is one refund row returned by get_refund.
type RefundStatus struct {
	RefundId int    `json:"refund_id"`
	Amount   int    `json:"amount"`
	Status   int    `json:"status"`
	Created  string `json:"created_at"`
}
