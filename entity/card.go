package entity

import "time"

// SavedCard is one card token kept locally for merchant-initiated charges.
// The card fields mirror the gateway's source block for the token.
type SavedCard struct {
	CardToken   string    `json:"card_token" bson:"card_token"`
	Type        string    `json:"type,omitempty" bson:"type,omitempty"`
	PartialPan  string    `json:"partial_pan,omitempty" bson:"partial_pan,omitempty"`
	ExpireYear  int       `json:"expire_year,omitempty" bson:"expire_year,omitempty"`
	ExpireMonth int       `json:"expire_month,omitempty" bson:"expire_month,omitempty"`
	TimeSaved   time.Time `json:"time_saved" bson:"time_saved"`
}
