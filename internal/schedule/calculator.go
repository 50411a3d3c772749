// Package schedule holds the pure calendar arithmetic of the distribution
// engine: computing a template's next occurrence and enumerating missed
// ones. Nothing here performs I/O; the reference instant is always an
// explicit parameter so results are deterministic and testable.
package schedule

import (
	"time"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// NextOccurrence computes the template's next occurrence at or after ref,
// or nil when the template yields no further occurrence (outside the active
// window, ONE_TIME already run, or unknown cycle).
//
// Day-of-month 0 resolves to the month's last calendar day. A due day that
// lands before the run day wraps to the next day/week/month rather than
// being an error; save-time validation never rejects wraparound.
func NextOccurrence(tpl *models.TaskTemplate, ref time.Time) *Occurrence {
	if tpl.ActiveFrom != nil && ref.Before(*tpl.ActiveFrom) {
		ref = *tpl.ActiveFrom
	}

	var occ *Occurrence
	switch tpl.CycleType {
	case models.CycleDaily:
		occ = nextDaily(tpl, ref)
	case models.CycleWeekly:
		occ = nextWeekly(tpl, ref)
	case models.CycleMonthly:
		occ = nextMonthly(tpl, ref)
	case models.CycleOneTime:
		occ = nextOneTime(tpl, ref)
	default:
		return nil
	}

	if occ == nil {
		return nil
	}
	if tpl.ActiveUntil != nil && occ.RunAt.After(*tpl.ActiveUntil) {
		return nil
	}
	return occ
}

func nextDaily(tpl *models.TaskTemplate, ref time.Time) *Occurrence {
	run := atMinute(ref, tpl.RunAtMinute)
	if run.Before(ref) {
		run = run.AddDate(0, 0, 1)
	}

	due := atMinute(run, tpl.DueAtMinute)
	if tpl.DueAtMinute < tpl.RunAtMinute {
		// Due earlier in the day than the run means due rolls to the next day.
		due = due.AddDate(0, 0, 1)
	}

	return &Occurrence{
		TemplateID:  tpl.ID,
		CycleType:   tpl.CycleType,
		PeriodStart: startOfDay(run),
		RunAt:       run,
		DueAt:       due,
	}
}

func nextWeekly(tpl *models.TaskTemplate, ref time.Time) *Occurrence {
	days := (tpl.RunDayOfWeek - isoWeekday(ref) + 7) % 7
	run := atMinute(ref.AddDate(0, 0, days), tpl.RunAtMinute)
	if run.Before(ref) {
		run = run.AddDate(0, 0, 7)
	}

	offset := tpl.DueDayOfWeek - tpl.RunDayOfWeek
	if offset < 0 || (offset == 0 && tpl.DueAtMinute < tpl.RunAtMinute) {
		// A due weekday numerically below the run weekday wraps to the
		// following week.
		offset += 7
	}
	due := atMinute(run.AddDate(0, 0, offset), tpl.DueAtMinute)

	return &Occurrence{
		TemplateID:  tpl.ID,
		CycleType:   tpl.CycleType,
		PeriodStart: startOfDay(run),
		RunAt:       run,
		DueAt:       due,
	}
}

func nextMonthly(tpl *models.TaskTemplate, ref time.Time) *Occurrence {
	year, month := ref.Year(), ref.Month()

	// The run in ref's month may already be past; at most one month of
	// advance is ever needed.
	for i := 0; i < 2; i++ {
		runDay := resolveMonthDay(year, month, tpl.RunDayOfMonth)
		run := dayAtMinute(year, month, runDay, tpl.RunAtMinute, ref.Location())
		if run.Before(ref) {
			year, month = nextMonth(year, month)
			continue
		}

		dueYear, dueMonth := year, month
		dueDay := resolveMonthDay(dueYear, dueMonth, tpl.DueDayOfMonth)
		if dueDay < runDay || (dueDay == runDay && tpl.DueAtMinute < tpl.RunAtMinute) {
			dueYear, dueMonth = nextMonth(dueYear, dueMonth)
			dueDay = resolveMonthDay(dueYear, dueMonth, tpl.DueDayOfMonth)
		}
		due := dayAtMinute(dueYear, dueMonth, dueDay, tpl.DueAtMinute, ref.Location())

		return &Occurrence{
			TemplateID:  tpl.ID,
			CycleType:   tpl.CycleType,
			PeriodStart: startOfDay(run),
			RunAt:       run,
			DueAt:       due,
		}
	}
	return nil
}

func nextOneTime(tpl *models.TaskTemplate, ref time.Time) *Occurrence {
	if tpl.LastRunAt != nil {
		// Exactly one occurrence per template lifetime.
		return nil
	}

	run := ref
	if tpl.ActiveFrom != nil {
		run = *tpl.ActiveFrom
	}

	var due time.Time
	if tpl.DeadlineOffsetHours > 0 {
		due = run.Add(time.Duration(tpl.DeadlineOffsetHours) * time.Hour)
	} else {
		due = atMinute(run, tpl.DueAtMinute)
		if due.Before(run) {
			due = due.AddDate(0, 0, 1)
		}
	}

	return &Occurrence{
		TemplateID:  tpl.ID,
		CycleType:   tpl.CycleType,
		PeriodStart: startOfDay(run),
		RunAt:       run,
		DueAt:       due,
	}
}

// atMinute returns the instant at minute-of-day m on t's calendar day.
func atMinute(t time.Time, m int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), m/60, m%60, 0, 0, t.Location())
}

func dayAtMinute(year int, month time.Month, day, m int, loc *time.Location) time.Time {
	return time.Date(year, month, day, m/60, m%60, 0, 0, loc)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isoWeekday maps time.Weekday to ISO numbering, 1 = Monday .. 7 = Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd
}

// resolveMonthDay clamps a configured day-of-month against the target
// month; 0 and any day past the month's end resolve to the last calendar
// day (handles 28/29 February and 30-day months).
func resolveMonthDay(year int, month time.Month, day int) int {
	last := lastDayOfMonth(year, month)
	if day <= 0 || day > last {
		return last
	}
	return day
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
