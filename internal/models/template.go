package models

import "time"

// PaymentTemplate is a reusable destination preset that can be turned into a global set.
type PaymentTemplate struct {
	ID        string      `json:"id"`
	QRImage   string      `json:"qrImage"`
	Bank      BankDetails `json:"bank"`
	CreatedBy string      `json:"createdBy,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (t PaymentTemplate) HasQR() bool {
	return t.QRImage != ""
}

func (t PaymentTemplate) HasBank() bool {
	return t.Bank.Complete()
}
