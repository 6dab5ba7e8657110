package entity

// ReturnParams holds the flat key/value set the gateway delivers on a
// browser return or asynchronous notification. ReturnCode, OrderNumber and
// Authcode are always present on a valid callback; Settled, ContactId and
// IncidentId appear only in some outcomes and extend the signing string
// when present.
type ReturnParams struct {
	ReturnCode  string `json:"RETURN_CODE" bson:"return_code"`
	OrderNumber string `json:"ORDER_NUMBER" bson:"order_number"`
	Settled     string `json:"SETTLED,omitempty" bson:"settled,omitempty"`
	ContactId   string `json:"CONTACT_ID,omitempty" bson:"contact_id,omitempty"`
	IncidentId  string `json:"INCIDENT_ID,omitempty" bson:"incident_id,omitempty"`
	Authcode    string `json:"AUTHCODE" bson:"authcode"`
}

// Success reports whether the gateway settled the payment: return code 0,
// and when the SETTLED flag is present it must be "1".
func (p *ReturnParams) Success() bool {
	if p.ReturnCode != "0" {
		return false
	}
	if p.Settled != "" && p.Settled != "1" {
		return false
	}
	return true
}
