package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{TransactionPending, TransactionVerified, true},
		{TransactionPending, TransactionRejected, true},
		{TransactionPending, TransactionPending, false},
		{TransactionVerified, TransactionRejected, false},
		{TransactionVerified, TransactionPending, false},
		{TransactionRejected, TransactionVerified, false},
		{TransactionRejected, TransactionPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseTransactionStatus(t *testing.T) {
	st, ok := ParseTransactionStatus("verified")
	assert.True(t, ok)
	assert.Equal(t, TransactionVerified, st)
	assert.True(t, st.Terminal())

	_, ok = ParseTransactionStatus("VERIFIED")
	assert.False(t, ok)
}

func TestBankDetails_Normalize(t *testing.T) {
	b := BankDetails{
		AccountHolderName: "  Asha Rao ",
		BankName:          " State Bank ",
		AccountNumber:     " 0012 ",
		IFSC:              " sbin0001234 ",
		Branch:            "   ",
	}.Normalize()

	assert.Equal(t, "Asha Rao", b.AccountHolderName)
	assert.Equal(t, "State Bank", b.BankName)
	assert.Equal(t, "0012", b.AccountNumber)
	assert.Equal(t, "SBIN0001234", b.IFSC)
	assert.Empty(t, b.Branch)
	assert.True(t, b.Complete())
}
