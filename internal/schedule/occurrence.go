// Package schedule decides when recurring schedules fire: pure
// occurrence-date arithmetic, the per-schedule eligibility gate, and
// the engine that turns eligible occurrences into journals.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Occurrences returns the candidate dates within [start, end]
// (inclusive) on which the repetition rule matches. The result honors
// the rule's skip: the first match at-or-after start is always
// returned, then every skip+1-th match after it. The function is pure
// and deterministic; identical inputs always produce identical
// output.
func Occurrences(rep model.RecurrenceRepetition, start, end time.Time) ([]time.Time, error) {
	start = StartOfDay(start)
	end = StartOfDay(end)
	if end.Before(start) {
		return nil, nil
	}

	var matches []time.Time
	var err error
	switch rep.Type {
	case model.RepetitionDaily:
		matches = dailyMatches(start, end)
	case model.RepetitionWeekly:
		matches, err = weeklyMatches(rep.Moment, start, end)
	case model.RepetitionMonthly:
		matches, err = monthlyMatches(rep.Moment, start, end)
	case model.RepetitionNdom:
		matches, err = ndomMatches(rep.Moment, start, end)
	case model.RepetitionYearly:
		matches, err = yearlyMatches(rep.Moment, start, end)
	default:
		return nil, fmt.Errorf("unknown repetition type %q", rep.Type)
	}
	if err != nil {
		return nil, err
	}
	return applySkip(matches, rep.Skip), nil
}

// applySkip keeps every skip+1-th match, counting from the first.
// Skip zero keeps everything.
func applySkip(matches []time.Time, skip int) []time.Time {
	if skip <= 0 {
		return matches
	}
	var kept []time.Time
	for i, m := range matches {
		if i%(skip+1) == 0 {
			kept = append(kept, m)
		}
	}
	return kept
}

func dailyMatches(start, end time.Time) []time.Time {
	var matches []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		matches = append(matches, d)
	}
	return matches
}

// weeklyMatches matches the ISO weekday in moment (1 = Monday,
// 7 = Sunday).
func weeklyMatches(moment string, start, end time.Time) ([]time.Time, error) {
	weekday, err := strconv.Atoi(moment)
	if err != nil || weekday < 1 || weekday > 7 {
		return nil, fmt.Errorf("weekly moment %q is not a weekday 1-7", moment)
	}
	d := start
	for isoWeekday(d) != weekday {
		d = d.AddDate(0, 0, 1)
	}
	var matches []time.Time
	for ; !d.After(end); d = d.AddDate(0, 0, 7) {
		matches = append(matches, d)
	}
	return matches, nil
}

// monthlyMatches matches the day of month in moment, clamped to the
// last day of short months.
func monthlyMatches(moment string, start, end time.Time) ([]time.Time, error) {
	dayOfMonth, err := strconv.Atoi(moment)
	if err != nil || dayOfMonth < 1 || dayOfMonth > 31 {
		return nil, fmt.Errorf("monthly moment %q is not a day 1-31", moment)
	}
	var matches []time.Time
	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		d := clampDay(cursor.Year(), cursor.Month(), dayOfMonth, start.Location())
		if !d.Before(start) && !d.After(end) {
			matches = append(matches, d)
		}
	}
	return matches, nil
}

// ndomMatches matches the n-th weekday of the month. Moment is
// "week,weekday", e.g. "2,3" for the second Wednesday. Months without
// an n-th occurrence produce no match.
func ndomMatches(moment string, start, end time.Time) ([]time.Time, error) {
	parts := strings.SplitN(moment, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ndom moment %q is not week,weekday", moment)
	}
	week, err := strconv.Atoi(parts[0])
	if err != nil || week < 1 || week > 5 {
		return nil, fmt.Errorf("ndom moment %q: week must be 1-5", moment)
	}
	weekday, err := strconv.Atoi(parts[1])
	if err != nil || weekday < 1 || weekday > 7 {
		return nil, fmt.Errorf("ndom moment %q: weekday must be 1-7", moment)
	}

	var matches []time.Time
	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		d := cursor
		for isoWeekday(d) != weekday {
			d = d.AddDate(0, 0, 1)
		}
		d = d.AddDate(0, 0, (week-1)*7)
		if d.Month() != cursor.Month() {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			matches = append(matches, d)
		}
	}
	return matches, nil
}

// yearlyMatches matches the "MM-DD" in moment once per year, clamped
// to the last day of the month (Feb 29 outside leap years).
func yearlyMatches(moment string, start, end time.Time) ([]time.Time, error) {
	parts := strings.SplitN(moment, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("yearly moment %q is not MM-DD", moment)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return nil, fmt.Errorf("yearly moment %q: month must be 01-12", moment)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return nil, fmt.Errorf("yearly moment %q: day must be 01-31", moment)
	}

	var matches []time.Time
	for year := start.Year(); year <= end.Year(); year++ {
		d := clampDay(year, time.Month(month), day, start.Location())
		if !d.Before(start) && !d.After(end) {
			matches = append(matches, d)
		}
	}
	return matches, nil
}

// clampDay builds a date, pulling the day back to the last valid day
// of the month when it names one past the end.
func clampDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// isoWeekday maps Go's Sunday-based weekday to ISO (Monday = 1,
// Sunday = 7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
