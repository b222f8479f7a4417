// Package runner is the top-level entry point of the recurring
// transaction engine: one Run per reference date.
package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zjean/firefly-iii-sub003/internal/ledger"
	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/resolver"
	"github.com/zjean/firefly-iii-sub003/internal/rules"
	"github.com/zjean/firefly-iii-sub003/internal/schedule"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// Summary is what a run reports back: occurrence counts, never a
// crash for one bad schedule.
type Summary struct {
	Recurrences int
	Created     int
	Skipped     int
	Errored     int
}

// Runner loads every recurrence, fires the eligible ones, applies the
// owners' rules to what got created and emits one event per user with
// a non-empty batch.
type Runner struct {
	store         store.Store
	gate          *schedule.Gate
	engine        *schedule.Engine
	budgets       *resolver.BudgetResolver
	categories    *resolver.CategoryResolver
	lookaheadDays int
	handlers      []EventHandler
	log           zerolog.Logger
}

// New wires a Runner from its store and event handlers. All
// collaborators are explicit; nothing is looked up ambiently.
func New(s store.Store, lookaheadDays int, log zerolog.Logger, handlers ...EventHandler) *Runner {
	accounts := resolver.NewAccountResolver(s)
	currencies := resolver.NewCurrencyResolver(s, s)
	budgets := resolver.NewBudgetResolver(s)
	categories := resolver.NewCategoryResolver(s)
	assembler := ledger.NewAssembler(accounts, currencies, budgets, categories, log)
	return &Runner{
		store:         s,
		gate:          schedule.NewGate(s),
		engine:        schedule.NewEngine(s, s, assembler, lookaheadDays, log),
		budgets:       budgets,
		categories:    categories,
		lookaheadDays: lookaheadDays,
		handlers:      handlers,
		log:           log,
	}
}

// Run processes every recurrence for the given reference date,
// normalized to start of day. Per-recurrence failures are logged and
// counted; only fatal store failures abort the run.
func (r *Runner) Run(ctx context.Context, today time.Time) (Summary, error) {
	today = schedule.StartOfDay(today)
	var summary Summary

	recurrences, err := r.store.AllRecurrences(ctx)
	if err != nil {
		return summary, err
	}
	summary.Recurrences = len(recurrences)

	// One rule engine per run so rule lists are cached per run, not
	// forever.
	ruleEngine := rules.NewEngine(r.store, r.store, r.store, r.budgets, r.categories, r.log)

	userOrder, byUser := groupByUser(recurrences)
	for _, userID := range userOrder {
		created, err := r.runUser(ctx, userID, byUser[userID], today, &summary)
		if err != nil {
			return summary, err
		}
		if len(created) == 0 {
			continue
		}
		if err := r.applyRules(ctx, ruleEngine, userID, created); err != nil {
			return summary, err
		}
		r.emit(ctx, CreatedEvent{UserID: userID, Date: today, Journals: created})
	}

	r.log.Info().
		Str("date", today.Format("2006-01-02")).
		Int("recurrences", summary.Recurrences).
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Int("errored", summary.Errored).
		Msg("recurrence run finished")
	return summary, nil
}

// runUser processes one user's recurrences sequentially, so
// find-or-create resolution cannot race against itself.
func (r *Runner) runUser(ctx context.Context, userID uint, recurrences []model.Recurrence, today time.Time, summary *Summary) ([]model.Journal, error) {
	var created []model.Journal
	for _, recurrence := range recurrences {
		eligible, reason, err := r.gate.Eligible(ctx, recurrence, today)
		if err != nil {
			return created, err
		}
		if !eligible {
			r.log.Debug().
				Uint("recurrence", recurrence.ID).
				Uint("user", userID).
				Str("reason", string(reason)).
				Msg("recurrence not eligible today")
			summary.Skipped++
			continue
		}

		result, err := r.engine.Process(ctx, recurrence, today)
		if err != nil {
			if store.IsFatal(err) {
				return created, err
			}
			// Catch per-recurrence failures here so one broken
			// schedule cannot sink the rest of the run.
			r.log.Error().Err(err).
				Uint("recurrence", recurrence.ID).
				Msg("recurrence processing failed, continuing")
			summary.Errored++
			continue
		}
		created = append(created, result.Created...)
		summary.Created += len(result.Created)
		summary.Skipped += result.Skipped
		summary.Errored += result.Errored
	}
	return created, nil
}

func (r *Runner) applyRules(ctx context.Context, ruleEngine *rules.Engine, userID uint, journals []model.Journal) error {
	for i := range journals {
		changed, err := ruleEngine.Apply(ctx, userID, &journals[i])
		if err != nil {
			if store.IsFatal(err) {
				return err
			}
			r.log.Error().Err(err).
				Uint("journal", journals[i].ID).
				Msg("rule processing failed, continuing")
			continue
		}
		if !changed {
			continue
		}
		if err := r.store.UpdateJournal(ctx, &journals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) emit(ctx context.Context, event CreatedEvent) {
	for _, handler := range r.handlers {
		if err := handler.RecurringJournalsCreated(ctx, event); err != nil {
			r.log.Error().Err(err).
				Uint("user", event.UserID).
				Msg("event handler failed")
		}
	}
}

// groupByUser splits recurrences per owner, preserving first-seen
// user order.
func groupByUser(recurrences []model.Recurrence) ([]uint, map[uint][]model.Recurrence) {
	var order []uint
	byUser := make(map[uint][]model.Recurrence)
	for _, recurrence := range recurrences {
		if _, seen := byUser[recurrence.UserID]; !seen {
			order = append(order, recurrence.UserID)
		}
		byUser[recurrence.UserID] = append(byUser[recurrence.UserID], recurrence)
	}
	return order, byUser
}
