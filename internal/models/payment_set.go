package models

import (
	"strings"
	"time"
)

type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeUser   Scope = "user"
)

func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeUser
}

// SetStatus is the administrative status of a payment set, see rotation.StatusOf.
type SetStatus string

const (
	SetStatusScheduled SetStatus = "scheduled"
	SetStatusActive    SetStatus = "active"
	SetStatusExpired   SetStatus = "expired"
	SetStatusInactive  SetStatus = "inactive"
)

type PayloadStatus string

const (
	PayloadActive  PayloadStatus = "active"
	PayloadExpired PayloadStatus = "expired"
)

const (
	// GlobalValidForMinutes is forced onto every global set on write.
	GlobalValidForMinutes = 10
	// DefaultUserValidForMinutes applies when a user set is written without a validity.
	DefaultUserValidForMinutes = 10
	// MaxUserValidForMinutes bounds a user override to roughly one year.
	MaxUserValidForMinutes = 60 * 24 * 366
)

type BankDetails struct {
	AccountHolderName string `json:"accountHolderName"`
	BankName          string `json:"bankName"`
	AccountNumber     string `json:"accountNumber"`
	IFSC              string `json:"ifsc"`
	Branch            string `json:"branch,omitempty"`
}

// Normalize trims every field and upper-cases the IFSC.
func (b BankDetails) Normalize() BankDetails {
	return BankDetails{
		AccountHolderName: strings.TrimSpace(b.AccountHolderName),
		BankName:          strings.TrimSpace(b.BankName),
		AccountNumber:     strings.TrimSpace(b.AccountNumber),
		IFSC:              strings.ToUpper(strings.TrimSpace(b.IFSC)),
		Branch:            strings.TrimSpace(b.Branch),
	}
}

// Complete reports whether the details are enough to make a bank transfer.
func (b BankDetails) Complete() bool {
	return b.AccountHolderName != "" && b.BankName != "" && b.AccountNumber != "" && b.IFSC != ""
}

// PaymentSet is a configured payment destination.
type PaymentSet struct {
	ID              string      `json:"id"`
	Scope           Scope       `json:"scope"`
	UserID          string      `json:"userId,omitempty"`
	QRImage         string      `json:"qrImage"`
	Bank            BankDetails `json:"bank"`
	ValidForMinutes int         `json:"validForMinutes"`
	StartsAt        time.Time   `json:"startsAt"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Window returns the validity duration of the set.
func (s PaymentSet) Window() time.Duration {
	return time.Duration(s.ValidForMinutes) * time.Minute
}

// ExpiresAt is StartsAt plus the validity window.
func (s PaymentSet) ExpiresAt() time.Time {
	return s.StartsAt.Add(s.Window())
}

// ActivePaymentPayload is the destination resolved for one user at one instant.
// It is never stored as a source of truth.
type ActivePaymentPayload struct {
	SetID     string        `json:"setId"`
	Scope     Scope         `json:"scope"`
	UserID    string        `json:"userId"`
	QRImage   string        `json:"qrImage"`
	HasQR     bool          `json:"hasQr"`
	HasBank   bool          `json:"hasBank"`
	Bank      BankDetails   `json:"bank"`
	StartsAt  time.Time     `json:"startsAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Status    PayloadStatus `json:"status"`
}
