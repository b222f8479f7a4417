package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepetitionType is the frequency of a recurrence repetition rule.
type RepetitionType string

const (
	RepetitionDaily   RepetitionType = "daily"
	RepetitionWeekly  RepetitionType = "weekly"
	RepetitionMonthly RepetitionType = "monthly"
	RepetitionNdom    RepetitionType = "ndom"
	RepetitionYearly  RepetitionType = "yearly"
)

// Recurrence is a user-owned recurring money-movement schedule. The
// engine reads it and writes only LatestDate.
type Recurrence struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index"`
	Title       string
	Description string
	Type        TransactionType
	Active      bool
	// FirstDate is the earliest possible occurrence.
	FirstDate time.Time
	// RepeatUntil is an optional hard stop date.
	RepeatUntil *time.Time
	// Repetitions caps the number of journals this recurrence may
	// produce. Zero means unlimited.
	Repetitions int
	// LatestDate is the date of the most recent journal actually
	// created from this recurrence. Nil until the first fire.
	LatestDate *time.Time

	RepetitionRules []RecurrenceRepetition  `gorm:"foreignKey:RecurrenceID"`
	Transactions    []RecurrenceTransaction `gorm:"foreignKey:RecurrenceID"`
}

// RecurrenceRepetition is one repeating rule within a recurrence.
// Moment depends on Type:
//
//	daily    unused
//	weekly   ISO weekday 1-7 (Monday = 1)
//	monthly  day of month 1-31, clamped to short months
//	ndom     "week,weekday" e.g. "2,3" = second Wednesday
//	yearly   "MM-DD"
type RecurrenceRepetition struct {
	ID           uint `gorm:"primaryKey"`
	RecurrenceID uint `gorm:"index"`
	Type         RepetitionType
	Moment       string
	// Skip fires only every skip+1-th matching date. Zero fires on
	// every match.
	Skip int
}

// RecurrenceTransaction is the template for the money movement a
// recurrence produces. Most recurrences hold exactly one; splits hold
// several.
type RecurrenceTransaction struct {
	ID                   uint `gorm:"primaryKey"`
	RecurrenceID         uint `gorm:"index"`
	Description          string
	Amount               decimal.Decimal
	CurrencyID           uint
	ForeignCurrencyID    *uint
	ForeignAmount        *decimal.Decimal
	SourceAccountID      uint
	DestinationAccountID uint
	BudgetID             *uint
	CategoryID           *uint
}
