package runner

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjean/firefly-iii-sub003/internal/logger"
	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

const schedulerLookahead = 2

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type runnerFixture struct {
	m        *store.Memory
	eur      model.Currency
	checking model.Account
	rent     model.Account
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	eur := model.Currency{Code: "EUR", Name: "Euro", Symbol: "€", DecimalPlaces: 2}
	require.NoError(t, m.CreateCurrency(ctx, &eur))
	m.AddUser(model.User{ID: 1, Email: "user@example.com", DefaultCurrencyID: eur.ID})

	checking := model.Account{UserID: 1, Name: "Checking", Type: model.AccountTypeAsset, CurrencyID: eur.ID}
	require.NoError(t, m.CreateAccount(ctx, &checking))
	rent := model.Account{UserID: 1, Name: "Landlord", Type: model.AccountTypeExpense}
	require.NoError(t, m.CreateAccount(ctx, &rent))

	return &runnerFixture{m: m, eur: eur, checking: checking, rent: rent}
}

func (f *runnerFixture) dailyRecurrence(title, amount string) model.Recurrence {
	return f.m.AddRecurrence(model.Recurrence{
		UserID:    1,
		Title:     title,
		Active:    true,
		FirstDate: date(2020, time.January, 1),
		RepetitionRules: []model.RecurrenceRepetition{
			{Type: model.RepetitionDaily},
		},
		Transactions: []model.RecurrenceTransaction{
			{
				Description:          title,
				Amount:               dec(amount),
				CurrencyID:           f.eur.ID,
				SourceAccountID:      f.checking.ID,
				DestinationAccountID: f.rent.ID,
			},
		},
	})
}

// collector records emitted events for inspection.
type collector struct {
	events []CreatedEvent
}

func (c *collector) RecurringJournalsCreated(ctx context.Context, event CreatedEvent) error {
	c.events = append(c.events, event)
	return nil
}

func TestRun_CreatesOnceThenIdempotent(t *testing.T) {
	f := newRunnerFixture(t)
	rec := f.dailyRecurrence("Daily rent", "10.00")
	r := New(f.m, schedulerLookahead, logger.Nop())

	// First run creates exactly one balanced journal.
	summary, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recurrences)
	assert.Equal(t, 1, summary.Created)
	assert.Zero(t, summary.Errored)

	journals := f.m.Journals()
	require.Len(t, journals, 1)
	require.Len(t, journals[0].Legs, 2)
	assert.True(t, journals[0].Legs[0].Amount.Equal(dec("-10.00")))
	assert.True(t, journals[0].Legs[1].Amount.Equal(dec("10.00")))
	assert.Equal(t, model.TransactionTypeWithdrawal, journals[0].Type)

	// Re-running the same day creates nothing more.
	summary, err = r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Zero(t, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, f.m.Journals(), 1)

	// The next day fires again and advances latest_date.
	summary, err = r.Run(context.Background(), date(2020, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Len(t, f.m.Journals(), 2)

	stored, ok := f.m.Recurrence(rec.ID)
	require.True(t, ok)
	require.NotNil(t, stored.LatestDate)
	assert.Equal(t, date(2020, time.January, 2), *stored.LatestDate)
}

func TestRun_EmitsEventsOnlyForNonEmptyBatches(t *testing.T) {
	f := newRunnerFixture(t)
	f.dailyRecurrence("Daily rent", "10.00")
	c := &collector{}
	r := New(f.m, schedulerLookahead, logger.Nop(), c)

	_, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	require.Len(t, c.events, 1)
	assert.Equal(t, uint(1), c.events[0].UserID)
	assert.Equal(t, date(2020, time.January, 1), c.events[0].Date)
	require.Len(t, c.events[0].Journals, 1)

	// The second run creates nothing, so no event fires.
	_, err = r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, c.events, 1)
}

func TestRun_AppliesRulesAndPersistsChanges(t *testing.T) {
	f := newRunnerFixture(t)
	f.dailyRecurrence("Daily rent", "10.00")
	f.m.AddRule(model.Rule{
		UserID: 1, Title: "Tag rent", Order: 1, Active: true, OnRecurrence: true,
		Triggers: []model.RuleTrigger{
			{Type: model.TriggerDescriptionContains, Value: "rent"},
		},
		Actions: []model.RuleAction{
			{Type: model.ActionAddTag, Value: "housing"},
			{Type: model.ActionSetCategory, Value: "Housing"},
		},
	})
	r := New(f.m, schedulerLookahead, logger.Nop())

	_, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)

	journals := f.m.Journals()
	require.Len(t, journals, 1)
	assert.True(t, journals[0].HasTag("housing"))
	for _, leg := range journals[0].Legs {
		require.NotNil(t, leg.CategoryID)
	}
}

func TestRun_IneligibleRecurrenceIsSkipped(t *testing.T) {
	f := newRunnerFixture(t)
	rec := f.dailyRecurrence("Paused", "10.00")
	stored, _ := f.m.Recurrence(rec.ID)
	stored.Active = false
	f.m.AddRecurrence(stored)
	r := New(f.m, schedulerLookahead, logger.Nop())

	summary, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Zero(t, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, f.m.Journals())
}

func TestRun_BrokenRecurrenceDoesNotSinkOthers(t *testing.T) {
	f := newRunnerFixture(t)
	// Self-transfer template, unassemblable.
	f.m.AddRecurrence(model.Recurrence{
		UserID:    1,
		Title:     "Broken",
		Active:    true,
		FirstDate: date(2020, time.January, 1),
		RepetitionRules: []model.RecurrenceRepetition{
			{Type: model.RepetitionDaily},
		},
		Transactions: []model.RecurrenceTransaction{
			{
				Description:          "Broken",
				Amount:               dec("5.00"),
				CurrencyID:           f.eur.ID,
				SourceAccountID:      f.checking.ID,
				DestinationAccountID: f.checking.ID,
			},
		},
	})
	f.dailyRecurrence("Healthy", "10.00")
	r := New(f.m, schedulerLookahead, logger.Nop())

	summary, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Recurrences)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Errored)
	assert.Len(t, f.m.Journals(), 1)
}

func TestRun_MultipleUsersProcessedIndependently(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()
	f.m.AddUser(model.User{ID: 2, Email: "second@example.com", DefaultCurrencyID: f.eur.ID})
	savings := model.Account{UserID: 2, Name: "Savings", Type: model.AccountTypeAsset}
	require.NoError(t, f.m.CreateAccount(ctx, &savings))
	utilities := model.Account{UserID: 2, Name: "Utilities", Type: model.AccountTypeExpense}
	require.NoError(t, f.m.CreateAccount(ctx, &utilities))

	f.dailyRecurrence("Rent", "10.00")
	f.m.AddRecurrence(model.Recurrence{
		UserID:    2,
		Title:     "Power bill",
		Active:    true,
		FirstDate: date(2020, time.January, 1),
		RepetitionRules: []model.RecurrenceRepetition{
			{Type: model.RepetitionDaily},
		},
		Transactions: []model.RecurrenceTransaction{
			{
				Description:          "Power bill",
				Amount:               dec("30.00"),
				CurrencyID:           f.eur.ID,
				SourceAccountID:      savings.ID,
				DestinationAccountID: utilities.ID,
			},
		},
	})

	c := &collector{}
	r := New(f.m, schedulerLookahead, logger.Nop(), c)
	summary, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
	require.Len(t, c.events, 2)
	assert.NotEqual(t, c.events[0].UserID, c.events[1].UserID)
}

func TestRun_NormalizesReferenceDate(t *testing.T) {
	f := newRunnerFixture(t)
	f.dailyRecurrence("Rent", "10.00")
	r := New(f.m, schedulerLookahead, logger.Nop())

	noon := time.Date(2020, time.January, 1, 12, 30, 0, 0, time.UTC)
	summary, err := r.Run(context.Background(), noon)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	journals := f.m.Journals()
	require.Len(t, journals, 1)
	assert.Equal(t, date(2020, time.January, 1), journals[0].Date)
}

func TestRun_NoRecurrences(t *testing.T) {
	f := newRunnerFixture(t)
	r := New(f.m, schedulerLookahead, logger.Nop())

	summary, err := r.Run(context.Background(), date(2020, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}
