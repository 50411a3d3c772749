package schedule

import (
	"fmt"
	"time"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// Occurrence is one concrete scheduled instance of a template for a
// specific period. It is computed, never persisted; the period key derived
// from PeriodStart is what reaches the task store.
type Occurrence struct {
	TemplateID  uint64
	CycleType   models.CycleType
	PeriodStart time.Time
	RunAt       time.Time
	DueAt       time.Time
}

// PeriodKey encodes PeriodStart deterministically per cycle type. Together
// with (templateId, assigneeId, collectionPointId) it forms the task
// idempotency key, so two occurrences of the same template in the same
// period always collide.
func (o Occurrence) PeriodKey() string {
	switch o.CycleType {
	case models.CycleWeekly:
		year, week := o.PeriodStart.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case models.CycleMonthly:
		return o.PeriodStart.Format("2006-01")
	default:
		return o.PeriodStart.Format("2006-01-02")
	}
}
