// Package model defines the core domain types shared across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether money entered or left the account.
type Direction string

const (
	// DirectionInflow represents money entering the account.
	DirectionInflow Direction = "inflow"
	// DirectionOutflow represents money leaving the account.
	DirectionOutflow Direction = "outflow"
)

// Transaction represents a single financial transaction from any source.
type Transaction struct {
	Date         time.Time       `csv:"date"`
	ID           string          `csv:"id"`
	Name         string          `csv:"name"` // Raw transaction description
	MerchantName string          `csv:"merchant"`
	AccountName  string          `csv:"account"`
	Amount       decimal.Decimal `csv:"amount"`
	Direction    Direction       `csv:"direction"`
	Hash         string          `csv:"-"`
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.MerchantName,
		t.AccountName)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// DisplayName prefers the cleaned merchant name over the raw description.
func (t *Transaction) DisplayName() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Name
}
