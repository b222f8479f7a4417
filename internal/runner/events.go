package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// CreatedEvent reports the journals one user gained in a run. Events
// are only emitted for non-empty batches.
type CreatedEvent struct {
	UserID   uint
	Date     time.Time
	Journals []model.Journal
}

// EventHandler consumes created-journal events. Reporting and
// notification live behind this interface; the runner itself delivers
// nothing.
type EventHandler interface {
	RecurringJournalsCreated(ctx context.Context, event CreatedEvent) error
}

// LogHandler is an EventHandler that just logs the batch.
type LogHandler struct {
	Log zerolog.Logger
}

func (h LogHandler) RecurringJournalsCreated(ctx context.Context, event CreatedEvent) error {
	h.Log.Info().
		Uint("user", event.UserID).
		Str("date", event.Date.Format("2006-01-02")).
		Int("journals", len(event.Journals)).
		Msg("recurring journals created")
	return nil
}
