package entity

// Request envelopes are assembled fresh for every call: scalar fields are
// percent-encoded by the builder, structured blocks travel as plain JSON,
// and the authcode ties the envelope to exactly one request. Optional
// fields are omitted entirely when the caller did not supply them; the
// gateway treats a present-but-empty field differently from an absent one.

// ChargeRequest is the envelope for auth_payment and charge_card_token.
type ChargeRequest struct {
	Version       string         `json:"version"`
	ApiKey        string         `json:"api_key"`
	Amount        string         `json:"amount"`
	OrderNumber   string         `json:"order_number"`
	Currency      string         `json:"currency"`
	CardToken     string         `json:"card_token,omitempty"`
	Email         string         `json:"email,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Customer      *Customer      `json:"customer,omitempty"`
	Products      []Product      `json:"products,omitempty"`
	Initiator     *Initiator     `json:"initiator,omitempty"`
	Authcode      string         `json:"authcode"`
}

// QueryRequest is the envelope shared by the lookup and command operations:
// status checks, capture, cancel, card-token fetch and delete, payment and
// refund fetch, refund cancel and the merchant payment method listing.
// Exactly one identifying field is set per operation.
type QueryRequest struct {
	Version     string `json:"version"`
	ApiKey      string `json:"api_key"`
	OrderNumber string `json:"order_number,omitempty"`
	Token       string `json:"token,omitempty"`
	CardToken   string `json:"card_token,omitempty"`
	RefundId    string `json:"refund_id,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Authcode    string `json:"authcode"`
}

// RefundRequest is the envelope for create_refund.
type RefundRequest struct {
	Version     string          `json:"version"`
	ApiKey      string          `json:"api_key"`
	OrderNumber string          `json:"order_number"`
	Amount      string          `json:"amount,omitempty"`
	Email       string          `json:"email,omitempty"`
	NotifyUrl   string          `json:"notify_url,omitempty"`
	Products    []RefundProduct `json:"products,omitempty"`
	Authcode    string          `json:"authcode"`
}
