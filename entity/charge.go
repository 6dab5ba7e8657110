// Package entity defines data models for the Visma Pay payment service.
package entity

// Charge describes a payment to be created with the gateway. Amount is given
// in the smallest currency unit (cents). Optional blocks are sent to the
// gateway only when the caller supplied them.
type Charge struct {
	Amount      int    `json:"amount"`
	OrderNumber string `json:"order_number"`
	Currency    string `json:"currency"`
	Email       string `json:"email,omitempty"`
	// CardToken identifies a stored card for merchant-initiated charges.
	// Required by the charge_card_token operation, ignored by auth_payment.
	CardToken     string         `json:"card_token,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Customer      *Customer      `json:"customer,omitempty"`
	Products      []Product      `json:"products,omitempty"`
	Initiator     *Initiator     `json:"initiator,omitempty"`
}

// PaymentMethod selects how the customer pays and where the gateway sends
// the result.
type PaymentMethod struct {
	// Type is "e-payment" for redirect flows, "card" for token charges.
	Type            string   `json:"type"`
	ReturnUrl       string   `json:"return_url,omitempty"`
	NotifyUrl       string   `json:"notify_url,omitempty"`
	Lang            string   `json:"lang,omitempty"`
	TokenValidUntil int64    `json:"token_valid_until,omitempty"`
	RegisterCard    int      `json:"register_card_token,omitempty"`
	Selected        []string `json:"selected,omitempty"`
}

type Customer struct {
	Firstname      string `json:"firstname,omitempty"`
	Lastname       string `json:"lastname,omitempty"`
	Email          string `json:"email,omitempty"`
	AddressStreet  string `json:"address_street,omitempty"`
	AddressCity    string `json:"address_city,omitempty"`
	AddressZip     string `json:"address_zip,omitempty"`
	AddressCountry string `json:"address_country,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// Product is one order line. Price fields are in cents, tax in percent.
type Product struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Count       int    `json:"count"`
	PretaxPrice int    `json:"pretax_price"`
	Tax         int    `json:"tax"`
	Price       int    `json:"price"`
	Type        int    `json:"type"`
}

// Initiator carries strong-customer-authentication metadata for
// merchant- or customer-initiated token charges.
type Initiator struct {
	// Type is 1 for merchant-initiated, 2 for customer-initiated charges.
	Type        int          `json:"type,omitempty"`
	ReturnUrl   string       `json:"return_url,omitempty"`
	NotifyUrl   string       `json:"notify_url,omitempty"`
	BrowserInfo *BrowserInfo `json:"browser_info,omitempty"`
}

// BrowserInfo describes the cardholder browser for 3-D Secure risk checks.
type BrowserInfo struct {
	AcceptHeader   string `json:"accept_header,omitempty"`
	ColorDepth     int    `json:"color_depth,omitempty"`
	JavaEnabled    int    `json:"java_enabled,omitempty"`
	Language       string `json:"language,omitempty"`
	ScreenHeight   int    `json:"screen_height,omitempty"`
	ScreenWidth    int    `json:"screen_width,omitempty"`
	TimezoneOffset int    `json:"timezone_offset,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
}
