package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionGenerateHash(t *testing.T) {
	base := Transaction{
		Date:         time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ID:           "txn-1",
		Name:         "STARBUCKS #1234",
		MerchantName: "Starbucks",
		AccountName:  "Checking",
		Amount:       decimal.NewFromFloat(5.75),
		Direction:    DirectionOutflow,
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, base.GenerateHash(), base.GenerateHash())
	})

	t.Run("changes with amount", func(t *testing.T) {
		other := base
		other.Amount = decimal.NewFromFloat(6.75)
		assert.NotEqual(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("changes with date", func(t *testing.T) {
		other := base
		other.Date = base.Date.AddDate(0, 0, 1)
		assert.NotEqual(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("ignores transaction ID", func(t *testing.T) {
		other := base
		other.ID = "txn-2"
		assert.Equal(t, base.GenerateHash(), other.GenerateHash())
	})
}

func TestTransactionDisplayName(t *testing.T) {
	tests := []struct {
		name string
		txn  Transaction
		want string
	}{
		{
			name: "prefers merchant name",
			txn:  Transaction{Name: "SQ *THE COFFEE SHOP", MerchantName: "The Coffee Shop"},
			want: "The Coffee Shop",
		},
		{
			name: "falls back to raw description",
			txn:  Transaction{Name: "SQ *THE COFFEE SHOP"},
			want: "SQ *THE COFFEE SHOP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.DisplayName())
		})
	}
}
