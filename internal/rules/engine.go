// Package rules applies user-defined trigger/action automations to
// newly created journals.
package rules

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/resolver"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// Engine evaluates a user's recurrence-flagged rules, in order,
// against journals. Rule lists are loaded once per user and cached
// for the engine's lifetime; one Engine serves one run.
type Engine struct {
	rules      store.RuleStore
	accounts   store.AccountStore
	currencies store.CurrencyStore
	budgets    *resolver.BudgetResolver
	categories *resolver.CategoryResolver
	log        zerolog.Logger

	cache map[uint][]model.Rule
}

// NewEngine creates a rule Engine for one run.
func NewEngine(
	rules store.RuleStore,
	accounts store.AccountStore,
	currencies store.CurrencyStore,
	budgets *resolver.BudgetResolver,
	categories *resolver.CategoryResolver,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		rules:      rules,
		accounts:   accounts,
		currencies: currencies,
		budgets:    budgets,
		categories: categories,
		log:        log,
		cache:      make(map[uint][]model.Rule),
	}
}

// Apply runs the user's rules over the journal in order. A matching
// rule applies all of its actions; a matching rule with
// stop_processing set halts evaluation of the rules after it. Returns
// whether any action changed the journal.
func (e *Engine) Apply(ctx context.Context, userID uint, journal *model.Journal) (bool, error) {
	userRules, err := e.userRules(ctx, userID)
	if err != nil {
		return false, err
	}

	changed := false
	for _, rule := range userRules {
		matched, err := e.matches(ctx, rule, journal)
		if err != nil {
			return changed, err
		}
		if !matched {
			continue
		}
		e.log.Debug().
			Uint("rule", rule.ID).
			Uint("journal", journal.ID).
			Msg("rule matched")
		for _, action := range rule.Actions {
			acted, err := e.apply(ctx, action, userID, journal)
			if err != nil {
				return changed, err
			}
			changed = changed || acted
		}
		// Rule granularity: all of this rule's actions ran; only the
		// rules after it are skipped.
		if rule.StopProcessing {
			break
		}
	}
	return changed, nil
}

func (e *Engine) userRules(ctx context.Context, userID uint) ([]model.Rule, error) {
	if cached, ok := e.cache[userID]; ok {
		return cached, nil
	}
	loaded, err := e.rules.RecurrenceRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	e.cache[userID] = loaded
	return loaded, nil
}

// matches reports whether every trigger of the rule matches the
// journal. A rule without triggers matches nothing.
func (e *Engine) matches(ctx context.Context, rule model.Rule, journal *model.Journal) (bool, error) {
	if len(rule.Triggers) == 0 {
		return false, nil
	}
	for _, trigger := range rule.Triggers {
		ok, err := e.triggerMatches(ctx, trigger, journal)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) triggerMatches(ctx context.Context, trigger model.RuleTrigger, journal *model.Journal) (bool, error) {
	value := trigger.Value
	switch trigger.Type {
	case model.TriggerDescriptionIs:
		return strings.EqualFold(journal.Description, value), nil
	case model.TriggerDescriptionContains:
		return strings.Contains(strings.ToLower(journal.Description), strings.ToLower(value)), nil
	case model.TriggerDescriptionStarts:
		return strings.HasPrefix(strings.ToLower(journal.Description), strings.ToLower(value)), nil
	case model.TriggerDescriptionEnds:
		return strings.HasSuffix(strings.ToLower(journal.Description), strings.ToLower(value)), nil
	case model.TriggerAmountExactly, model.TriggerAmountLess, model.TriggerAmountMore:
		return e.amountMatches(trigger, journal)
	case model.TriggerTransactionType:
		return strings.EqualFold(string(journal.Type), value), nil
	case model.TriggerCurrencyIs:
		currency, ok, err := e.currencies.CurrencyByID(ctx, journal.CurrencyID)
		if err != nil || !ok {
			return false, err
		}
		return strings.EqualFold(currency.Code, value), nil
	case model.TriggerSourceAccountIs:
		return e.accountNameMatches(ctx, journal.UserID, journal.SourceLeg(), value)
	case model.TriggerDestAccountIs:
		return e.accountNameMatches(ctx, journal.UserID, journal.DestinationLeg(), value)
	default:
		e.log.Warn().Str("type", string(trigger.Type)).Msg("unknown trigger type never matches")
		return false, nil
	}
}

func (e *Engine) amountMatches(trigger model.RuleTrigger, journal *model.Journal) (bool, error) {
	wanted, err := decimal.NewFromString(trigger.Value)
	if err != nil {
		e.log.Warn().Str("value", trigger.Value).Msg("amount trigger value is not a number, never matches")
		return false, nil
	}
	amount := journal.Amount()
	switch trigger.Type {
	case model.TriggerAmountExactly:
		return amount.Equal(wanted), nil
	case model.TriggerAmountLess:
		return amount.LessThan(wanted), nil
	default:
		return amount.GreaterThan(wanted), nil
	}
}

func (e *Engine) accountNameMatches(ctx context.Context, userID uint, leg *model.TransactionLeg, wanted string) (bool, error) {
	if leg == nil {
		return false, nil
	}
	account, ok, err := e.accounts.AccountByID(ctx, userID, leg.AccountID)
	if err != nil || !ok {
		return false, err
	}
	return strings.EqualFold(account.Name, wanted), nil
}

// apply executes one action. Actions are expected to be idempotent;
// nothing here rolls back earlier actions on failure.
func (e *Engine) apply(ctx context.Context, action model.RuleAction, userID uint, journal *model.Journal) (bool, error) {
	switch action.Type {
	case model.ActionSetDescription:
		journal.Description = action.Value
		return true, nil
	case model.ActionPrependDescription:
		journal.Description = action.Value + journal.Description
		return true, nil
	case model.ActionAppendDescription:
		journal.Description = journal.Description + action.Value
		return true, nil
	case model.ActionSetNotes:
		journal.Notes = action.Value
		return true, nil
	case model.ActionAddTag:
		before := journal.Tags
		journal.AddTag(action.Value)
		return journal.Tags != before, nil
	case model.ActionSetCategory:
		category, ok, err := e.categories.Resolve(ctx, userID, model.CategoryRef{Name: action.Value})
		if err != nil || !ok {
			return false, err
		}
		for i := range journal.Legs {
			journal.Legs[i].CategoryID = &category.ID
		}
		return true, nil
	case model.ActionSetBudget:
		// Budgets never attach to transfers, including via rules.
		if journal.Type == model.TransactionTypeTransfer {
			e.log.Debug().Uint("journal", journal.ID).Msg("skipping set_budget on transfer")
			return false, nil
		}
		budget, ok, err := e.budgets.Resolve(ctx, userID, model.BudgetRef{Name: action.Value})
		if err != nil || !ok {
			return false, err
		}
		for i := range journal.Legs {
			journal.Legs[i].BudgetID = &budget.ID
		}
		return true, nil
	default:
		e.log.Warn().Str("type", string(action.Type)).Msg("unknown action type ignored")
		return false, nil
	}
}
