package models

import "time"

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionVerified TransactionStatus = "verified"
	TransactionRejected TransactionStatus = "rejected"
)

// ParseTransactionStatus returns false for anything outside the three known states.
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch st := TransactionStatus(s); st {
	case TransactionPending, TransactionVerified, TransactionRejected:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further transition is allowed out of the status.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionVerified, TransactionRejected:
		return true
	}
	return false
}

// CanTransitionTo allows only pending -> verified and pending -> rejected.
func (s TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	return s == TransactionPending && (to == TransactionVerified || to == TransactionRejected)
}

// PaymentTransaction is a payer's claim that a payment was made.
type PaymentTransaction struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	TransactionID string            `json:"transactionId"`
	ProofImage    string            `json:"proofImage"`
	ProofFileName string            `json:"proofFileName"`
	AmountInCents int64             `json:"amountInCents"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	ReviewedAt    *time.Time        `json:"reviewedAt,omitempty"`
	ReviewedBy    string            `json:"reviewedBy,omitempty"`
	PaymentSetID  string            `json:"paymentSetId,omitempty"`
	PaymentScope  Scope             `json:"paymentScope,omitempty"`
}

// PaymentEvent is published on the event stream for every state change in the subsystem.
type PaymentEvent struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entityId"`
	UserID     string    `json:"userId,omitempty"`
	State      string    `json:"state,omitempty"`
	Previous   string    `json:"previousState,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
