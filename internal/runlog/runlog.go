// Package runlog keeps a CSV audit trail of engine runs: one row per
// created journal plus one summary row per run.
package runlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zjean/firefly-iii-sub003/internal/runner"
)

// Action classifies a run-log row.
type Action string

const (
	ActionCreated Action = "created"
	ActionSummary Action = "summary"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp    time.Time
	Action       Action
	UserID       uint
	RecurrenceID uint
	JournalID    uint
	Date         time.Time
	Details      string
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,action,user_id,recurrence_id,journal_id,date,details"

const (
	numFields     = 7
	logFile       = "run-log.csv"
	dateFormat    = "2006-01-02"
	colTimestamp  = 0
	colAction     = 1
	colUserID     = 2
	colRecurrence = 3
	colJournalID  = 4
	colDate       = 5
	colDetails    = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = string(e.Action)
	row[colUserID] = strconv.FormatUint(uint64(e.UserID), 10)
	row[colRecurrence] = strconv.FormatUint(uint64(e.RecurrenceID), 10)
	row[colJournalID] = strconv.FormatUint(uint64(e.JournalID), 10)
	row[colDate] = e.Date.Format(dateFormat)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	userID, err := strconv.ParseUint(record[colUserID], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing user id %q: %w", record[colUserID], err)
	}
	recurrenceID, err := strconv.ParseUint(record[colRecurrence], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing recurrence id %q: %w", record[colRecurrence], err)
	}
	journalID, err := strconv.ParseUint(record[colJournalID], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing journal id %q: %w", record[colJournalID], err)
	}

	return Entry{
		Timestamp:    ts,
		Action:       Action(record[colAction]),
		UserID:       uint(userID),
		RecurrenceID: uint(recurrenceID),
		JournalID:    uint(journalID),
		Date:         date,
		Details:      record[colDetails],
	}, nil
}

// Append writes entries to <dir>/run-log.csv, creating the file and
// header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	path := filepath.Join(dir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <dir>/run-log.csv. Returns an empty
// slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder appends a run-log row per created journal. It plugs into
// the runner as an event handler.
type Recorder struct {
	Dir string
}

func (r Recorder) RecurringJournalsCreated(ctx context.Context, event runner.CreatedEvent) error {
	now := time.Now()
	entries := make([]Entry, 0, len(event.Journals))
	for _, journal := range event.Journals {
		var recurrenceID uint
		if journal.RecurrenceID != nil {
			recurrenceID = *journal.RecurrenceID
		}
		entries = append(entries, Entry{
			Timestamp:    now,
			Action:       ActionCreated,
			UserID:       event.UserID,
			RecurrenceID: recurrenceID,
			JournalID:    journal.ID,
			Date:         event.Date,
			Details:      journal.Description,
		})
	}
	return Append(r.Dir, entries)
}

// RecordSummary appends the end-of-run summary row.
func RecordSummary(dir string, date time.Time, summary runner.Summary) error {
	return Append(dir, []Entry{{
		Timestamp: time.Now(),
		Action:    ActionSummary,
		Date:      date,
		Details: fmt.Sprintf("recurrences=%d created=%d skipped=%d errored=%d",
			summary.Recurrences, summary.Created, summary.Skipped, summary.Errored),
	}})
}
