package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// ErrNotFound reports that a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateOccurrence reports that a journal for the same
// recurrence and date already exists. Raised inside the create
// transaction so overlapping runs cannot both insert.
var ErrDuplicateOccurrence = errors.New("journal already exists for this occurrence")

// FatalError marks a data-store failure that must abort the whole run,
// as opposed to per-occurrence errors the engine skips past.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a run-aborting store failure.
func Fatal(op string, err error) error {
	return &FatalError{Op: op, Err: err}
}

// IsFatal reports whether err (anywhere in its chain) is a
// run-aborting store failure.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// RecurrenceStore reads schedules and answers the fired-already
// questions the eligibility gate and engine ask.
type RecurrenceStore interface {
	// AllRecurrences returns every recurrence across all users, with
	// repetition rules and transaction templates loaded.
	AllRecurrences(ctx context.Context) ([]model.Recurrence, error)
	// JournalCount returns how many journals a recurrence has produced.
	JournalCount(ctx context.Context, recurrenceID uint) (int, error)
	// JournalExistsOnDate reports whether the recurrence already
	// produced a journal dated exactly date. This is the idempotency
	// boundary and must hit the store, never a cache.
	JournalExistsOnDate(ctx context.Context, recurrenceID uint, date time.Time) (bool, error)
}

// JournalStore persists assembled journals.
type JournalStore interface {
	// CreateRecurringJournals writes the journals of one occurrence
	// (one journal, or several for splits) with their legs and updates
	// the recurrence's latest_date, all in one atomic unit. Returns
	// ErrDuplicateOccurrence when the recurrence already produced a
	// journal on the occurrence date.
	CreateRecurringJournals(ctx context.Context, journals []*model.Journal, recurrenceID uint, occurrence time.Time) error
	// UpdateJournal persists rule-engine mutations to an existing
	// journal and its legs.
	UpdateJournal(ctx context.Context, journal *model.Journal) error
}

// RuleStore loads the rules flagged for recurrence processing.
type RuleStore interface {
	// RecurrenceRules returns the user's active recurrence-flagged
	// rules ordered by their rule order, triggers and actions loaded.
	RecurrenceRules(ctx context.Context, userID uint) ([]model.Rule, error)
}

// AccountStore backs the account resolver. Lookup methods return
// ok=false, not an error, when nothing matches.
type AccountStore interface {
	AccountByID(ctx context.Context, userID, id uint) (model.Account, bool, error)
	AccountByName(ctx context.Context, userID uint, name string, accountType model.AccountType) (model.Account, bool, error)
	CreateAccount(ctx context.Context, account *model.Account) error
}

// CurrencyStore backs the currency resolver.
type CurrencyStore interface {
	CurrencyByID(ctx context.Context, id uint) (model.Currency, bool, error)
	CurrencyByCode(ctx context.Context, code string) (model.Currency, bool, error)
	CreateCurrency(ctx context.Context, currency *model.Currency) error
}

// BudgetStore backs the budget resolver.
type BudgetStore interface {
	BudgetByID(ctx context.Context, userID, id uint) (model.Budget, bool, error)
	BudgetByName(ctx context.Context, userID uint, name string) (model.Budget, bool, error)
	CreateBudget(ctx context.Context, budget *model.Budget) error
}

// CategoryStore backs the category resolver.
type CategoryStore interface {
	CategoryByID(ctx context.Context, userID, id uint) (model.Category, bool, error)
	CategoryByName(ctx context.Context, userID uint, name string) (model.Category, bool, error)
	CreateCategory(ctx context.Context, category *model.Category) error
}

// UserStore resolves the acting user, needed for the default-currency
// fallback.
type UserStore interface {
	UserByID(ctx context.Context, id uint) (model.User, bool, error)
}

// Store is the full collaborator surface the engine is constructed
// with.
type Store interface {
	RecurrenceStore
	JournalStore
	RuleStore
	AccountStore
	CurrencyStore
	BudgetStore
	CategoryStore
	UserStore
}
