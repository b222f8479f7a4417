// Package ledger assembles balanced double-entry journals from
// logical transfer descriptions.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/resolver"
)

// TransferSpec describes one money movement to assemble. Account,
// currency, budget and category references are "by id or by name"
// unions; zero refs mean "not supplied".
type TransferSpec struct {
	UserID      uint
	Date        time.Time
	Description string
	Source      model.AccountRef
	Destination model.AccountRef
	// Amount is an unsigned magnitude. A negative amount means the
	// direction is reversed: source and destination swap.
	Amount          decimal.Decimal
	Currency        model.CurrencyRef
	ForeignCurrency model.CurrencyRef
	ForeignAmount   *decimal.Decimal
	Budget          model.BudgetRef
	Category        model.CategoryRef
	// RecurrenceID links the journal to the schedule that produced it.
	RecurrenceID *uint
	// GroupID groups split journals created together. A new group id
	// is generated when empty.
	GroupID string
}

// Assembler builds balanced journals. It resolves all references,
// infers the transaction type from the account pair, and enforces the
// sign and self-transfer rules. It does not persist anything.
type Assembler struct {
	accounts   *resolver.AccountResolver
	currencies *resolver.CurrencyResolver
	budgets    *resolver.BudgetResolver
	categories *resolver.CategoryResolver
	log        zerolog.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(
	accounts *resolver.AccountResolver,
	currencies *resolver.CurrencyResolver,
	budgets *resolver.BudgetResolver,
	categories *resolver.CategoryResolver,
	log zerolog.Logger,
) *Assembler {
	return &Assembler{
		accounts:   accounts,
		currencies: currencies,
		budgets:    budgets,
		categories: categories,
		log:        log,
	}
}

// Assemble builds one journal with a balanced pair of legs. The
// returned journal is not yet persisted; the caller owns atomicity.
func (a *Assembler) Assemble(ctx context.Context, spec TransferSpec) (*model.Journal, error) {
	source, ok, err := a.accounts.Resolve(ctx, spec.UserID, spec.Source)
	if err != nil {
		return nil, fmt.Errorf("resolving source account: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("source %q: %w", spec.Source.Name, ErrAccountUnresolvable)
	}
	destination, ok, err := a.accounts.Resolve(ctx, spec.UserID, spec.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolving destination account: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("destination %q: %w", spec.Destination.Name, ErrAccountUnresolvable)
	}

	// Callers pass an unsigned magnitude; the source leg always ends
	// up negative. A negative amount encodes "the other direction".
	amount := spec.Amount
	if amount.IsNegative() {
		amount = amount.Abs()
		source, destination = destination, source
	}

	transactionType, err := InferType(source.Type, destination.Type)
	if err != nil {
		return nil, err
	}

	if source.ID == destination.ID {
		return nil, fmt.Errorf("account %d: %w", source.ID, ErrSelfTransfer)
	}

	currency, err := a.currencies.ResolveOrDefault(ctx, spec.UserID, spec.Currency)
	if err != nil {
		return nil, fmt.Errorf("resolving currency: %w", err)
	}

	journal := &model.Journal{
		UserID:       spec.UserID,
		GroupID:      spec.GroupID,
		Type:         transactionType,
		Description:  spec.Description,
		Date:         spec.Date,
		CurrencyID:   currency.ID,
		RecurrenceID: spec.RecurrenceID,
		Legs: []model.TransactionLeg{
			{
				AccountID:   source.ID,
				Amount:      amount.Neg(),
				CurrencyID:  currency.ID,
				Description: spec.Description,
			},
			{
				AccountID:   destination.ID,
				Amount:      amount,
				CurrencyID:  currency.ID,
				Description: spec.Description,
			},
		},
	}
	if journal.GroupID == "" {
		journal.GroupID = uuid.NewString()
	}

	if err := a.attachForeign(ctx, journal, spec); err != nil {
		return nil, err
	}
	if err := a.attachBudgetAndCategory(ctx, journal, spec, transactionType); err != nil {
		return nil, err
	}

	if verrs := Validate(journal); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return nil, fmt.Errorf("assembled journal failed validation: %s", strings.Join(msgs, "; "))
	}
	return journal, nil
}

// attachForeign mirrors the foreign amount onto both legs so foreign
// totals net to zero exactly like primary totals.
func (a *Assembler) attachForeign(ctx context.Context, journal *model.Journal, spec TransferSpec) error {
	if spec.ForeignAmount == nil || spec.ForeignCurrency.IsZero() {
		return nil
	}
	foreign, ok, err := a.currencies.Resolve(ctx, spec.ForeignCurrency)
	if err != nil {
		return fmt.Errorf("resolving foreign currency: %w", err)
	}
	if !ok {
		return fmt.Errorf("foreign currency %q: %w", spec.ForeignCurrency.Code, ErrForeignCurrencyUnresolvable)
	}
	foreignAmount := spec.ForeignAmount.Abs()
	negative := foreignAmount.Neg()
	journal.Legs[0].ForeignAmount = &negative
	journal.Legs[0].ForeignCurrencyID = &foreign.ID
	journal.Legs[1].ForeignAmount = &foreignAmount
	journal.Legs[1].ForeignCurrencyID = &foreign.ID
	return nil
}

// attachBudgetAndCategory resolves and attaches budget and category.
// Transfers never carry either; a supplied ref is dropped, not an
// error.
func (a *Assembler) attachBudgetAndCategory(ctx context.Context, journal *model.Journal, spec TransferSpec, transactionType model.TransactionType) error {
	if transactionType == model.TransactionTypeTransfer {
		if !spec.Budget.IsZero() || !spec.Category.IsZero() {
			a.log.Debug().
				Uint("user", spec.UserID).
				Msg("dropping budget/category on transfer")
		}
		return nil
	}
	if !spec.Budget.IsZero() {
		budget, ok, err := a.budgets.Resolve(ctx, spec.UserID, spec.Budget)
		if err != nil {
			return fmt.Errorf("resolving budget: %w", err)
		}
		if ok {
			for i := range journal.Legs {
				journal.Legs[i].BudgetID = &budget.ID
			}
		}
	}
	if !spec.Category.IsZero() {
		category, ok, err := a.categories.Resolve(ctx, spec.UserID, spec.Category)
		if err != nil {
			return fmt.Errorf("resolving category: %w", err)
		}
		if ok {
			for i := range journal.Legs {
				journal.Legs[i].CategoryID = &category.ID
			}
		}
	}
	return nil
}

// InferType maps an account-type pair to a transaction type:
// asset to asset is a transfer, revenue to anything is a deposit,
// anything to expense is a withdrawal. Every other pairing is an
// error.
func InferType(source, destination model.AccountType) (model.TransactionType, error) {
	switch {
	case source == model.AccountTypeAsset && destination == model.AccountTypeAsset:
		return model.TransactionTypeTransfer, nil
	case source == model.AccountTypeRevenue:
		return model.TransactionTypeDeposit, nil
	case destination == model.AccountTypeExpense:
		return model.TransactionTypeWithdrawal, nil
	default:
		return "", unresolvableType(string(source), string(destination))
	}
}
