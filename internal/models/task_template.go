package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskType string

const (
	TaskTypeCollection   TaskType = "collection"
	TaskTypeReport       TaskType = "report"
	TaskTypeVerification TaskType = "verification"
)

// RequiresPointBinding reports whether tasks of this type must be bound
// to a collection point.
func (t TaskType) RequiresPointBinding() bool {
	return t == TaskTypeCollection
}

type CycleType string

const (
	CycleDaily   CycleType = "DAILY"
	CycleWeekly  CycleType = "WEEKLY"
	CycleMonthly CycleType = "MONTHLY"
	CycleOneTime CycleType = "ONE_TIME"
)

type ScheduleMode string

const (
	// SchedulePointDefault inherits cadence from the collection-point registry.
	SchedulePointDefault ScheduleMode = "POINT_DEFAULT"
	// ScheduleTemplateOverride uses the template's own timing fields.
	ScheduleTemplateOverride ScheduleMode = "TEMPLATE_OVERRIDE"
)

type AssigneeMode string

const (
	AssignManual         AssigneeMode = "MANUAL"
	AssignByPoint        AssigneeMode = "BY_COLLECTION_POINT"
	AssignByDepartment   AssigneeMode = "BY_DEPARTMENT"
	AssignByOrganization AssigneeMode = "BY_ORGANIZATION"
)

// TaskTemplate declares a recurrence schedule plus an assignment rule.
// The scheduler ticks over active templates and materializes one task per
// resolved (period, assignee, point) tuple.
type TaskTemplate struct {
	ID       uint64   `gorm:"primarykey" json:"id"`
	Name     string   `gorm:"type:varchar(255);not null" json:"name"`
	TaskType TaskType `gorm:"type:varchar(20);not null" json:"task_type"`

	CycleType    CycleType    `gorm:"type:varchar(10);not null" json:"cycle_type"`
	ScheduleMode ScheduleMode `gorm:"type:varchar(20);not null;default:'TEMPLATE_OVERRIDE'" json:"schedule_mode"`

	// Minute-of-day, 0..1439.
	RunAtMinute int `gorm:"not null;default:0" json:"run_at_minute"`
	DueAtMinute int `gorm:"not null;default:0" json:"due_at_minute"`
	// ISO weekday 1..7 (1 = Monday), WEEKLY only.
	RunDayOfWeek int `gorm:"not null;default:1" json:"run_day_of_week"`
	DueDayOfWeek int `gorm:"not null;default:1" json:"due_day_of_week"`
	// 1..31, or 0 = last calendar day of the month, MONTHLY only.
	RunDayOfMonth int `gorm:"not null;default:1" json:"run_day_of_month"`
	DueDayOfMonth int `gorm:"not null;default:1" json:"due_day_of_month"`
	// Alternative due expression when cadence is point-inherited.
	DeadlineOffsetHours int `gorm:"not null;default:0" json:"deadline_offset_hours"`

	ActiveFrom  *time.Time `json:"active_from"`
	ActiveUntil *time.Time `json:"active_until"`

	AllowLate          bool `gorm:"not null;default:true" json:"allow_late"`
	MaxBackfillPeriods int  `gorm:"not null;default:3" json:"max_backfill_periods"`

	AssigneeMode       AssigneeMode `gorm:"type:varchar(30);not null" json:"assignee_mode"`
	AssigneeIDs        Uint64List   `gorm:"type:text" json:"assignee_ids"`
	TargetPointTypes   StringList   `gorm:"type:text" json:"target_point_types"`
	CollectionPointIDs Uint64List   `gorm:"type:text" json:"collection_point_ids"`
	DepartmentIDs      Uint64List   `gorm:"type:text" json:"department_ids"`
	OrganizationIDs    Uint64List   `gorm:"type:text" json:"organization_ids"`

	IsActive  bool       `gorm:"not null;default:false;index" json:"is_active"`
	LastRunAt *time.Time `json:"last_run_at"`
	NextRunAt *time.Time `json:"next_run_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AssigneeSpec is the tagged-union view of the template's per-mode payload
// fields. Exactly one variant is returned for a valid template, so consumers
// switch on the concrete type instead of re-checking mode/field combinations.
type AssigneeSpec interface {
	assigneeSpec()
}

// ManualSpec assigns directly to the listed users, with no point binding.
type ManualSpec struct {
	AssigneeIDs []uint64
}

// ByPointSpec assigns to the current owners of each in-scope collection
// point. Scope is either an explicit ID list or all active points of the
// listed types; the two selectors are mutually exclusive.
type ByPointSpec struct {
	PointIDs   []uint64
	PointTypes []string
}

// ByDepartmentSpec assigns to all active members of the listed departments.
type ByDepartmentSpec struct {
	DepartmentIDs []uint64
}

// ByOrganizationSpec assigns to all active members of the listed organizations.
type ByOrganizationSpec struct {
	OrganizationIDs []uint64
}

func (ManualSpec) assigneeSpec()         {}
func (ByPointSpec) assigneeSpec()        {}
func (ByDepartmentSpec) assigneeSpec()   {}
func (ByOrganizationSpec) assigneeSpec() {}

// AssigneeSpec returns the variant matching the template's assignee mode,
// or nil for an unknown mode.
func (t *TaskTemplate) AssigneeSpec() AssigneeSpec {
	switch t.AssigneeMode {
	case AssignManual:
		return ManualSpec{AssigneeIDs: t.AssigneeIDs}
	case AssignByPoint:
		return ByPointSpec{PointIDs: t.CollectionPointIDs, PointTypes: t.TargetPointTypes}
	case AssignByDepartment:
		return ByDepartmentSpec{DepartmentIDs: t.DepartmentIDs}
	case AssignByOrganization:
		return ByOrganizationSpec{OrganizationIDs: t.OrganizationIDs}
	default:
		return nil
	}
}
