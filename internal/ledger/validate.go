package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// ValidationError describes a single invariant violation on an
// assembled journal.
type ValidationError struct {
	Invariant   int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d: %s", e.Invariant, e.Description)
}

// Validate enforces 5 invariants on an assembled journal:
//
//  1. The legs net to zero in the journal's primary currency.
//  2. The journal has at least two legs and no zero-amount legs.
//  3. Foreign amounts, when present, also net to zero and every
//     foreign-carrying leg uses the same foreign currency.
//  4. No account appears on both the negative and the positive side.
//  5. Every leg carries the journal's primary currency.
func Validate(journal *model.Journal) []ValidationError {
	var errs []ValidationError

	total := decimal.Zero
	for _, leg := range journal.Legs {
		total = total.Add(leg.Amount)
	}
	if !total.IsZero() {
		errs = append(errs, ValidationError{
			Invariant:   1,
			Description: fmt.Sprintf("legs sum to %s, not zero", total.StringFixed(2)),
		})
	}

	if len(journal.Legs) < 2 {
		errs = append(errs, ValidationError{
			Invariant:   2,
			Description: fmt.Sprintf("journal has %d legs, need at least 2", len(journal.Legs)),
		})
	}
	for _, leg := range journal.Legs {
		if leg.Amount.IsZero() {
			errs = append(errs, ValidationError{
				Invariant:   2,
				Description: fmt.Sprintf("account %d has a zero-amount leg", leg.AccountID),
			})
		}
	}

	foreignTotal := decimal.Zero
	var foreignCurrency *uint
	foreignLegs := 0
	for _, leg := range journal.Legs {
		if leg.ForeignAmount == nil {
			continue
		}
		foreignLegs++
		foreignTotal = foreignTotal.Add(*leg.ForeignAmount)
		if leg.ForeignCurrencyID == nil {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Description: fmt.Sprintf("account %d has a foreign amount without a foreign currency", leg.AccountID),
			})
			continue
		}
		if foreignCurrency == nil {
			foreignCurrency = leg.ForeignCurrencyID
		} else if *foreignCurrency != *leg.ForeignCurrencyID {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Description: "legs carry different foreign currencies",
			})
		}
	}
	if foreignLegs > 0 {
		if foreignLegs != len(journal.Legs) {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Description: "foreign amount set on some legs but not all",
			})
		}
		if !foreignTotal.IsZero() {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Description: fmt.Sprintf("foreign legs sum to %s, not zero", foreignTotal.StringFixed(2)),
			})
		}
	}

	negative := make(map[uint]bool)
	for _, leg := range journal.Legs {
		if leg.Amount.IsNegative() {
			negative[leg.AccountID] = true
		}
	}
	for _, leg := range journal.Legs {
		if leg.Amount.IsPositive() && negative[leg.AccountID] {
			errs = append(errs, ValidationError{
				Invariant:   4,
				Description: fmt.Sprintf("account %d is both source and destination", leg.AccountID),
			})
		}
	}

	for _, leg := range journal.Legs {
		if leg.CurrencyID != journal.CurrencyID {
			errs = append(errs, ValidationError{
				Invariant:   5,
				Description: fmt.Sprintf("account %d leg uses currency %d, journal uses %d", leg.AccountID, leg.CurrencyID, journal.CurrencyID),
			})
		}
	}

	return errs
}
