package schedule

import (
	"time"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// scanLimit caps occurrence enumeration for templates that have been
// inactive for a very long stretch.
const scanLimit = 1000

// MissedOccurrences enumerates the occurrences whose run instant falls
// between the template's last successful run and now, oldest first.
//
// Policy bounds:
//   - the most recent elapsed occurrence always survives; MaxBackfillPeriods
//     caps how many older periods are caught up alongside it (older periods
//     would be skipped forever anyway once bookkeeping advances past them);
//   - AllowLate=false keeps only the single most recent occurrence,
//     modeling "skip, don't pile up";
//   - a template that has never run yields one occurrence: the first
//     inside its window when activeFrom is set, else the most recent
//     elapsed one.
func MissedOccurrences(tpl *models.TaskTemplate, lastRunAt *time.Time, now time.Time) []Occurrence {
	if lastRunAt == nil {
		occ := NextOccurrence(tpl, neverRunRef(tpl, now))
		if occ == nil || occ.RunAt.After(now) {
			return nil
		}
		return []Occurrence{*occ}
	}

	var missed []Occurrence
	ref := *lastRunAt
	for i := 0; i < scanLimit; i++ {
		occ := NextOccurrence(tpl, ref)
		if occ == nil || occ.RunAt.After(now) {
			break
		}
		// lastRunAt records the period start of the last materialized
		// occurrence; the same period must not be produced again.
		if !occ.PeriodStart.After(*lastRunAt) {
			ref = occ.RunAt.Add(time.Minute)
			continue
		}
		missed = append(missed, *occ)
		ref = occ.RunAt.Add(time.Minute)
	}

	// The cap sheds older periods only; the most recent elapsed
	// occurrence is never dropped.
	limit := tpl.MaxBackfillPeriods
	if !tpl.AllowLate || limit < 1 {
		limit = 1
	}
	if len(missed) > limit {
		missed = missed[len(missed)-limit:]
	}
	return missed
}

// neverRunRef anchors occurrence enumeration for a template with no run
// history. An explicit window start wins; otherwise the anchor steps one
// cycle back from now, so the occurrence found is the most recent elapsed
// one rather than a future one that no tick instant would ever reach.
func neverRunRef(tpl *models.TaskTemplate, now time.Time) time.Time {
	if tpl.ActiveFrom != nil {
		return *tpl.ActiveFrom
	}
	switch tpl.CycleType {
	case models.CycleDaily:
		return now.AddDate(0, 0, -1)
	case models.CycleWeekly:
		return now.AddDate(0, 0, -7)
	case models.CycleMonthly:
		return now.AddDate(0, -1, 0)
	default:
		return now
	}
}
