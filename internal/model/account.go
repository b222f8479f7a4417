package model

import "github.com/shopspring/decimal"

// AccountType classifies accounts and determines which transaction
// types an account pair can legally form.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account is one account in a user's chart of accounts.
type Account struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"index"`
	Name           string
	Type           AccountType
	IBAN           string
	VirtualBalance decimal.Decimal
	CurrencyID     uint
}
