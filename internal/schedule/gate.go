package schedule

import (
	"context"
	"time"

	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// IneligibilityReason says why a recurrence sits out today's run.
// Ineligibility is a normal outcome, not an error; the reason exists
// for logging.
type IneligibilityReason string

const (
	ReasonEligible      IneligibilityReason = ""
	ReasonInactive      IneligibilityReason = "inactive"
	ReasonCapReached    IneligibilityReason = "repetition cap reached"
	ReasonExpired       IneligibilityReason = "repeat_until has passed"
	ReasonNotYetStarted IneligibilityReason = "first date is in the future"
	ReasonFiredToday    IneligibilityReason = "already fired today"
)

// Gate decides whether a recurrence may fire at all today. Checks run
// in a fixed order and short-circuit on the first failure.
type Gate struct {
	recurrences store.RecurrenceStore
}

// NewGate creates a Gate.
func NewGate(recurrences store.RecurrenceStore) *Gate {
	return &Gate{recurrences: recurrences}
}

// Eligible runs the checks. A non-nil error is always a fatal
// store failure; every normal exclusion comes back as (false, reason,
// nil).
func (g *Gate) Eligible(ctx context.Context, recurrence model.Recurrence, today time.Time) (bool, IneligibilityReason, error) {
	today = StartOfDay(today)

	if !recurrence.Active {
		return false, ReasonInactive, nil
	}

	if recurrence.Repetitions > 0 {
		count, err := g.recurrences.JournalCount(ctx, recurrence.ID)
		if err != nil {
			return false, "", err
		}
		if count >= recurrence.Repetitions {
			return false, ReasonCapReached, nil
		}
	}

	if recurrence.RepeatUntil != nil && StartOfDay(*recurrence.RepeatUntil).Before(today) {
		return false, ReasonExpired, nil
	}

	if EffectiveStart(recurrence).After(today) {
		return false, ReasonNotYetStarted, nil
	}

	if recurrence.LatestDate != nil && StartOfDay(*recurrence.LatestDate).Equal(today) {
		return false, ReasonFiredToday, nil
	}

	// latest_date alone is not trusted: the store is asked whether a
	// journal really exists, so a re-run after a crashed or repeated
	// invocation still sees the truth.
	fired, err := g.recurrences.JournalExistsOnDate(ctx, recurrence.ID, today)
	if err != nil {
		return false, "", err
	}
	if fired {
		return false, ReasonFiredToday, nil
	}

	return true, ReasonEligible, nil
}

// EffectiveStart is the date occurrence calculation starts from: the
// recurrence's first date, or its latest fire date when that is
// later.
func EffectiveStart(recurrence model.Recurrence) time.Time {
	start := StartOfDay(recurrence.FirstDate)
	if recurrence.LatestDate != nil {
		latest := StartOfDay(*recurrence.LatestDate)
		if latest.After(start) {
			return latest
		}
	}
	return start
}
