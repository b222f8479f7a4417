package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

func balancedJournal() *model.Journal {
	return &model.Journal{
		UserID:     1,
		Type:       model.TransactionTypeWithdrawal,
		CurrencyID: 1,
		Legs: []model.TransactionLeg{
			{AccountID: 10, Amount: dec("-25.00"), CurrencyID: 1},
			{AccountID: 20, Amount: dec("25.00"), CurrencyID: 1},
		},
	}
}

func TestValidate_Balanced(t *testing.T) {
	errs := Validate(balancedJournal())
	assert.Empty(t, errs)
}

func TestValidate_Invariant1_Unbalanced(t *testing.T) {
	journal := balancedJournal()
	journal.Legs[1].Amount = dec("24.99")
	errs := Validate(journal)
	assert.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Invariant)
}

func TestValidate_Invariant2_SingleLeg(t *testing.T) {
	journal := balancedJournal()
	journal.Legs = journal.Legs[:1]
	errs := Validate(journal)
	// Single leg also unbalances the journal.
	invariants := make(map[int]bool)
	for _, e := range errs {
		invariants[e.Invariant] = true
	}
	assert.True(t, invariants[2])
}

func TestValidate_Invariant2_ZeroAmountLeg(t *testing.T) {
	journal := balancedJournal()
	journal.Legs = append(journal.Legs, model.TransactionLeg{AccountID: 30, Amount: dec("0"), CurrencyID: 1})
	errs := Validate(journal)
	assert.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Invariant)
}

func TestValidate_Invariant3_ForeignUnbalanced(t *testing.T) {
	journal := balancedJournal()
	fa0 := dec("-30.00")
	fa1 := dec("29.00")
	fc := uint(2)
	journal.Legs[0].ForeignAmount = &fa0
	journal.Legs[0].ForeignCurrencyID = &fc
	journal.Legs[1].ForeignAmount = &fa1
	journal.Legs[1].ForeignCurrencyID = &fc
	errs := Validate(journal)
	assert.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Invariant)
}

func TestValidate_Invariant3_ForeignOnOneLegOnly(t *testing.T) {
	journal := balancedJournal()
	fa := dec("-30.00")
	fc := uint(2)
	journal.Legs[0].ForeignAmount = &fa
	journal.Legs[0].ForeignCurrencyID = &fc
	errs := Validate(journal)
	invariants := make(map[int]bool)
	for _, e := range errs {
		invariants[e.Invariant] = true
	}
	assert.True(t, invariants[3])
}

func TestValidate_Invariant3_MixedForeignCurrencies(t *testing.T) {
	journal := balancedJournal()
	fa0 := dec("-30.00")
	fa1 := dec("30.00")
	fc0 := uint(2)
	fc1 := uint(3)
	journal.Legs[0].ForeignAmount = &fa0
	journal.Legs[0].ForeignCurrencyID = &fc0
	journal.Legs[1].ForeignAmount = &fa1
	journal.Legs[1].ForeignCurrencyID = &fc1
	errs := Validate(journal)
	assert.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Invariant)
}

func TestValidate_Invariant4_SameAccountBothSides(t *testing.T) {
	journal := balancedJournal()
	journal.Legs[1].AccountID = journal.Legs[0].AccountID
	errs := Validate(journal)
	assert.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].Invariant)
}

func TestValidate_Invariant5_CurrencyMismatch(t *testing.T) {
	journal := balancedJournal()
	journal.Legs[1].CurrencyID = 99
	errs := Validate(journal)
	assert.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Invariant)
}
