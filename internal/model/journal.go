package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a journal records.
// It is inferred from the source/destination account types, never
// chosen directly by callers.
type TransactionType string

const (
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeTransfer   TransactionType = "transfer"
)

// Journal is the atomic unit of financial record: a group of signed
// legs that net to zero in the journal's primary currency.
type Journal struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index"`
	GroupID     string `gorm:"index"` // UUID shared by split journals created together
	Type        TransactionType
	Description string
	Date        time.Time `gorm:"index"`
	CurrencyID  uint
	// RecurrenceID links a journal back to the schedule that produced
	// it. Nil for manually entered journals.
	RecurrenceID *uint `gorm:"index"`
	Tags         string // semicolon-separated
	Notes        string
	Legs         []TransactionLeg `gorm:"foreignKey:JournalID"`
}

// TransactionLeg is one signed amount row within a journal, tied to
// one account. The source leg carries the negative amount.
type TransactionLeg struct {
	ID                uint `gorm:"primaryKey"`
	JournalID         uint `gorm:"index"`
	AccountID         uint
	Amount            decimal.Decimal
	CurrencyID        uint
	ForeignAmount     *decimal.Decimal
	ForeignCurrencyID *uint
	BudgetID          *uint
	CategoryID        *uint
	Description       string
}

// SourceLeg returns the negative leg, or nil if the journal has none.
func (j *Journal) SourceLeg() *TransactionLeg {
	for i := range j.Legs {
		if j.Legs[i].Amount.IsNegative() {
			return &j.Legs[i]
		}
	}
	return nil
}

// DestinationLeg returns the positive leg, or nil if the journal has none.
func (j *Journal) DestinationLeg() *TransactionLeg {
	for i := range j.Legs {
		if j.Legs[i].Amount.IsPositive() {
			return &j.Legs[i]
		}
	}
	return nil
}

// Amount returns the journal's magnitude: the sum of its positive legs.
func (j *Journal) Amount() decimal.Decimal {
	total := decimal.Zero
	for i := range j.Legs {
		if j.Legs[i].Amount.IsPositive() {
			total = total.Add(j.Legs[i].Amount)
		}
	}
	return total
}

// HasTag reports whether the journal carries the given tag.
func (j *Journal) HasTag(tag string) bool {
	for _, t := range strings.Split(j.Tags, ";") {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// AddTag appends a tag unless the journal already carries it.
func (j *Journal) AddTag(tag string) {
	if tag == "" || j.HasTag(tag) {
		return
	}
	if j.Tags == "" {
		j.Tags = tag
		return
	}
	j.Tags += ";" + tag
}
