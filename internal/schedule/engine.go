package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zjean/firefly-iii-sub003/internal/ledger"
	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// DefaultLookaheadDays is the occurrence window extension past today.
// The engine only fires exact-today matches; the window exists as the
// hook for a weekend-shift policy, which is an extension point, not a
// behavior of this engine.
const DefaultLookaheadDays = 2

// Result counts what one recurrence produced in a run.
type Result struct {
	Created []model.Journal
	Skipped int
	Errored int
}

// Engine turns one eligible recurrence into journals for today.
type Engine struct {
	recurrences   store.RecurrenceStore
	journals      store.JournalStore
	assembler     *ledger.Assembler
	lookaheadDays int
	log           zerolog.Logger
}

// NewEngine creates an Engine. A non-positive lookaheadDays falls
// back to DefaultLookaheadDays.
func NewEngine(recurrences store.RecurrenceStore, journals store.JournalStore, assembler *ledger.Assembler, lookaheadDays int, log zerolog.Logger) *Engine {
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}
	return &Engine{
		recurrences:   recurrences,
		journals:      journals,
		assembler:     assembler,
		lookaheadDays: lookaheadDays,
		log:           log,
	}
}

// Process evaluates every repetition rule of an eligible recurrence
// against today and creates journals for the occurrences that land on
// today exactly. Per-occurrence failures are logged and counted; only
// fatal store failures come back as an error.
func (e *Engine) Process(ctx context.Context, recurrence model.Recurrence, today time.Time) (Result, error) {
	var result Result
	today = StartOfDay(today)
	windowStart := EffectiveStart(recurrence)
	windowEnd := today.AddDate(0, 0, e.lookaheadDays)

	log := e.log.With().
		Uint("recurrence", recurrence.ID).
		Uint("user", recurrence.UserID).
		Str("date", today.Format("2006-01-02")).
		Logger()

	for _, rule := range recurrence.RepetitionRules {
		dates, err := Occurrences(rule, windowStart, windowEnd)
		if err != nil {
			log.Error().Err(err).Uint("repetition", rule.ID).Msg("invalid repetition rule")
			result.Errored++
			continue
		}
		for _, occurrence := range dates {
			if !occurrence.Equal(today) {
				continue
			}
			created, outcome, err := e.fire(ctx, recurrence, occurrence, log)
			if err != nil {
				return result, err
			}
			switch outcome {
			case outcomeCreated:
				result.Created = append(result.Created, created...)
			case outcomeSkipped:
				result.Skipped++
			case outcomeErrored:
				result.Errored++
			}
		}
	}
	return result, nil
}

type fireOutcome int

const (
	outcomeCreated fireOutcome = iota
	outcomeSkipped
	outcomeErrored
)

// fire creates the journals for one occurrence: re-check the
// idempotency boundary, assemble one journal per transaction
// template, persist the lot atomically.
func (e *Engine) fire(ctx context.Context, recurrence model.Recurrence, occurrence time.Time, log zerolog.Logger) ([]model.Journal, fireOutcome, error) {
	// Re-checked immediately before creation, never cached, so two
	// overlapping runs cannot both pass.
	exists, err := e.recurrences.JournalExistsOnDate(ctx, recurrence.ID, occurrence)
	if err != nil {
		return nil, outcomeErrored, err
	}
	if exists {
		log.Info().Msg("journal already exists for occurrence, skipping")
		return nil, outcomeSkipped, nil
	}

	if len(recurrence.Transactions) == 0 {
		log.Warn().Msg("recurrence has no transaction templates")
		return nil, outcomeErrored, nil
	}

	groupID := uuid.NewString()
	journals := make([]*model.Journal, 0, len(recurrence.Transactions))
	for _, template := range recurrence.Transactions {
		journal, err := e.assembler.Assemble(ctx, transferSpec(recurrence, template, occurrence, groupID))
		if err != nil {
			if store.IsFatal(err) {
				return nil, outcomeErrored, err
			}
			log.Error().Err(err).Uint("template", template.ID).Msg("assembling journal failed, occurrence skipped")
			return nil, outcomeErrored, nil
		}
		journals = append(journals, journal)
	}

	err = e.journals.CreateRecurringJournals(ctx, journals, recurrence.ID, occurrence)
	if errors.Is(err, store.ErrDuplicateOccurrence) {
		log.Info().Msg("concurrent run already created this occurrence, skipping")
		return nil, outcomeSkipped, nil
	}
	if err != nil {
		return nil, outcomeErrored, err
	}

	created := make([]model.Journal, len(journals))
	for i, j := range journals {
		created[i] = *j
	}
	log.Info().Int("journals", len(created)).Msg("recurrence fired")
	return created, outcomeCreated, nil
}

// transferSpec maps a recurrence transaction template onto the
// assembler's input.
func transferSpec(recurrence model.Recurrence, template model.RecurrenceTransaction, occurrence time.Time, groupID string) ledger.TransferSpec {
	description := template.Description
	if description == "" {
		description = recurrence.Title
	}
	spec := ledger.TransferSpec{
		UserID:       recurrence.UserID,
		Date:         occurrence,
		Description:  description,
		Source:       model.AccountRef{ID: template.SourceAccountID},
		Destination:  model.AccountRef{ID: template.DestinationAccountID},
		Amount:       template.Amount,
		Currency:     model.CurrencyRef{ID: template.CurrencyID},
		RecurrenceID: &recurrence.ID,
		GroupID:      groupID,
	}
	if template.ForeignCurrencyID != nil {
		spec.ForeignCurrency = model.CurrencyRef{ID: *template.ForeignCurrencyID}
		spec.ForeignAmount = template.ForeignAmount
	}
	if template.BudgetID != nil {
		spec.Budget = model.BudgetRef{ID: *template.BudgetID}
	}
	if template.CategoryID != nil {
		spec.Category = model.CategoryRef{ID: *template.CategoryID}
	}
	return spec
}
