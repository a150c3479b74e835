package models

import "time"

// DisplayContext tags log entries written when a destination is rendered to a payer.
const DisplayContext = "payment_display"

// PaymentDisplayLog is an immutable audit entry. (UserID, SetID, ExpiresAt) is unique.
type PaymentDisplayLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SetID     string    `json:"setId"`
	Scope     Scope     `json:"scope"`
	ShownAt   time.Time `json:"shownAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Context   string    `json:"context"`
}
