package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func seedRecurrence(m *Memory) model.Recurrence {
	return m.AddRecurrence(model.Recurrence{
		UserID:    1,
		Title:     "Rent",
		Active:    true,
		FirstDate: day(2020, time.January, 1),
	})
}

func rentJournal(recurrenceID uint, date time.Time) *model.Journal {
	return &model.Journal{
		UserID:       1,
		Type:         model.TransactionTypeWithdrawal,
		Description:  "Rent",
		Date:         date,
		RecurrenceID: &recurrenceID,
		Legs: []model.TransactionLeg{
			{AccountID: 1, Amount: decimal.NewFromInt(-500)},
			{AccountID: 2, Amount: decimal.NewFromInt(500)},
		},
	}
}

func TestCreateRecurringJournals_AssignsIDsAndLatestDate(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	occurrence := day(2020, time.January, 1)

	journal := rentJournal(rec.ID, occurrence)
	require.NoError(t, m.CreateRecurringJournals(context.Background(), []*model.Journal{journal}, rec.ID, occurrence))

	assert.NotZero(t, journal.ID)
	for _, leg := range journal.Legs {
		assert.NotZero(t, leg.ID)
		assert.Equal(t, journal.ID, leg.JournalID)
	}

	stored, ok := m.Recurrence(rec.ID)
	require.True(t, ok)
	require.NotNil(t, stored.LatestDate)
	assert.Equal(t, occurrence, *stored.LatestDate)
}

func TestCreateRecurringJournals_DuplicateBarrier(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	occurrence := day(2020, time.January, 1)
	ctx := context.Background()

	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, occurrence)}, rec.ID, occurrence))

	err := m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, occurrence)}, rec.ID, occurrence)
	require.ErrorIs(t, err, ErrDuplicateOccurrence)
	assert.False(t, IsFatal(err), "a duplicate occurrence must not abort the run")
	assert.Len(t, m.Journals(), 1)
}

func TestCreateRecurringJournals_DifferentDatesBothLand(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	ctx := context.Background()

	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, day(2020, time.January, 1))}, rec.ID, day(2020, time.January, 1)))
	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, day(2020, time.January, 2))}, rec.ID, day(2020, time.January, 2)))

	assert.Len(t, m.Journals(), 2)
	stored, _ := m.Recurrence(rec.ID)
	assert.Equal(t, day(2020, time.January, 2), *stored.LatestDate)
}

func TestCreateRecurringJournals_SplitGroupIsOneOccurrence(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	occurrence := day(2020, time.January, 1)
	ctx := context.Background()

	group := []*model.Journal{rentJournal(rec.ID, occurrence), rentJournal(rec.ID, occurrence)}
	require.NoError(t, m.CreateRecurringJournals(ctx, group, rec.ID, occurrence))
	assert.Len(t, m.Journals(), 2)

	// A later attempt for the same date is still a duplicate.
	err := m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, occurrence)}, rec.ID, occurrence)
	assert.ErrorIs(t, err, ErrDuplicateOccurrence)
}

func TestCreateRecurringJournals_UnknownRecurrenceIsFatal(t *testing.T) {
	m := NewMemory()
	journal := rentJournal(99, day(2020, time.January, 1))

	err := m.CreateRecurringJournals(context.Background(), []*model.Journal{journal}, 99, day(2020, time.January, 1))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJournalExistsOnDate(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	occurrence := day(2020, time.January, 1)
	ctx := context.Background()
	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, occurrence)}, rec.ID, occurrence))

	exists, err := m.JournalExistsOnDate(ctx, rec.ID, occurrence)
	require.NoError(t, err)
	assert.True(t, exists)

	// Intraday timestamps count as the same date.
	exists, err = m.JournalExistsOnDate(ctx, rec.ID, occurrence.Add(14*time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = m.JournalExistsOnDate(ctx, rec.ID, day(2020, time.January, 2))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = m.JournalExistsOnDate(ctx, 42, occurrence)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJournalCount(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	other := seedRecurrence(m)
	ctx := context.Background()

	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, day(2020, time.January, 1))}, rec.ID, day(2020, time.January, 1)))
	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{rentJournal(rec.ID, day(2020, time.January, 2))}, rec.ID, day(2020, time.January, 2)))

	count, err := m.JournalCount(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = m.JournalCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecurrenceRules_FiltersAndOrders(t *testing.T) {
	m := NewMemory()
	m.AddRule(model.Rule{UserID: 1, Title: "Second", Order: 2, Active: true, OnRecurrence: true})
	m.AddRule(model.Rule{UserID: 1, Title: "First", Order: 1, Active: true, OnRecurrence: true})
	m.AddRule(model.Rule{UserID: 1, Title: "Inactive", Order: 0, Active: false, OnRecurrence: true})
	m.AddRule(model.Rule{UserID: 1, Title: "Manual only", Order: 0, Active: true, OnRecurrence: false})
	m.AddRule(model.Rule{UserID: 2, Title: "Other user", Order: 0, Active: true, OnRecurrence: true})

	loaded, err := m.RecurrenceRules(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "First", loaded[0].Title)
	assert.Equal(t, "Second", loaded[1].Title)
}

func TestRecurrenceRules_EqualOrderKeepsInsertionOrder(t *testing.T) {
	m := NewMemory()
	m.AddRule(model.Rule{UserID: 1, Title: "A", Order: 1, Active: true, OnRecurrence: true})
	m.AddRule(model.Rule{UserID: 1, Title: "B", Order: 1, Active: true, OnRecurrence: true})
	m.AddRule(model.Rule{UserID: 1, Title: "C", Order: 1, Active: true, OnRecurrence: true})

	loaded, err := m.RecurrenceRules(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "A", loaded[0].Title)
	assert.Equal(t, "B", loaded[1].Title)
	assert.Equal(t, "C", loaded[2].Title)
}

func TestUpdateJournal(t *testing.T) {
	m := NewMemory()
	rec := seedRecurrence(m)
	occurrence := day(2020, time.January, 1)
	ctx := context.Background()
	journal := rentJournal(rec.ID, occurrence)
	require.NoError(t, m.CreateRecurringJournals(ctx, []*model.Journal{journal}, rec.ID, occurrence))

	journal.Description = "Rent, renamed"
	categoryID := uint(7)
	journal.Legs[0].CategoryID = &categoryID
	require.NoError(t, m.UpdateJournal(ctx, journal))

	stored := m.Journals()
	require.Len(t, stored, 1)
	assert.Equal(t, "Rent, renamed", stored[0].Description)
	require.NotNil(t, stored[0].Legs[0].CategoryID)
	assert.Equal(t, categoryID, *stored[0].Legs[0].CategoryID)
}

func TestUpdateJournal_UnknownIsFatal(t *testing.T) {
	m := NewMemory()
	err := m.UpdateJournal(context.Background(), &model.Journal{ID: 99})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestFatalError(t *testing.T) {
	underlying := errors.New("disk on fire")
	err := Fatal("creating journal", underlying)

	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "creating journal")

	assert.False(t, IsFatal(underlying))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(ErrDuplicateOccurrence))
}
