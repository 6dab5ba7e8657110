package entity

// Refund describes a refund against a settled payment. Either Amount or
// Products selects what is refunded; when both are set, Amount wins and
// Products are not sent.
type Refund struct {
	OrderNumber string          `json:"order_number"`
	Amount      int             `json:"amount,omitempty"`
	Email       string          `json:"email,omitempty"`
	NotifyUrl   string          `json:"notify_url,omitempty"`
	Products    []RefundProduct `json:"products,omitempty"`
}

// RefundProduct refunds a number of units of one order line.
type RefundProduct struct {
	ProductId string `json:"product_id"`
	Count     int    `json:"count"`
}
