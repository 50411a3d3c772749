package dto

import (
	"time"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// TemplateRequest is the create/update payload for a task template
type TemplateRequest struct {
	Name         string              `json:"name" binding:"required"`
	TaskType     models.TaskType     `json:"task_type" binding:"required"`
	CycleType    models.CycleType    `json:"cycle_type" binding:"required"`
	ScheduleMode models.ScheduleMode `json:"schedule_mode"`

	RunAtMinute         int `json:"run_at_minute"`
	DueAtMinute         int `json:"due_at_minute"`
	RunDayOfWeek        int `json:"run_day_of_week"`
	DueDayOfWeek        int `json:"due_day_of_week"`
	RunDayOfMonth       int `json:"run_day_of_month"`
	DueDayOfMonth       int `json:"due_day_of_month"`
	DeadlineOffsetHours int `json:"deadline_offset_hours"`

	ActiveFrom  *time.Time `json:"active_from"`
	ActiveUntil *time.Time `json:"active_until"`

	AllowLate          bool `json:"allow_late"`
	MaxBackfillPeriods int  `json:"max_backfill_periods"`

	AssigneeMode       models.AssigneeMode `json:"assignee_mode" binding:"required"`
	AssigneeIDs        []uint64            `json:"assignee_ids"`
	TargetPointTypes   []string            `json:"target_point_types"`
	CollectionPointIDs []uint64            `json:"collection_point_ids"`
	DepartmentIDs      []uint64            `json:"department_ids"`
	OrganizationIDs    []uint64            `json:"organization_ids"`
}

// ToModel converts the request into a template model
func (r TemplateRequest) ToModel() *models.TaskTemplate {
	return &models.TaskTemplate{
		Name:                r.Name,
		TaskType:            r.TaskType,
		CycleType:           r.CycleType,
		ScheduleMode:        r.ScheduleMode,
		RunAtMinute:         r.RunAtMinute,
		DueAtMinute:         r.DueAtMinute,
		RunDayOfWeek:        r.RunDayOfWeek,
		DueDayOfWeek:        r.DueDayOfWeek,
		RunDayOfMonth:       r.RunDayOfMonth,
		DueDayOfMonth:       r.DueDayOfMonth,
		DeadlineOffsetHours: r.DeadlineOffsetHours,
		ActiveFrom:          r.ActiveFrom,
		ActiveUntil:         r.ActiveUntil,
		AllowLate:           r.AllowLate,
		MaxBackfillPeriods:  r.MaxBackfillPeriods,
		AssigneeMode:        r.AssigneeMode,
		AssigneeIDs:         r.AssigneeIDs,
		TargetPointTypes:    r.TargetPointTypes,
		CollectionPointIDs:  r.CollectionPointIDs,
		DepartmentIDs:       r.DepartmentIDs,
		OrganizationIDs:     r.OrganizationIDs,
	}
}

// TemplateDTO represents a template in API responses
type TemplateDTO struct {
	ID           uint64              `json:"id"`
	Name         string              `json:"name"`
	TaskType     models.TaskType     `json:"task_type"`
	CycleType    models.CycleType    `json:"cycle_type"`
	ScheduleMode models.ScheduleMode `json:"schedule_mode"`

	RunAtMinute         int `json:"run_at_minute"`
	DueAtMinute         int `json:"due_at_minute"`
	RunDayOfWeek        int `json:"run_day_of_week"`
	DueDayOfWeek        int `json:"due_day_of_week"`
	RunDayOfMonth       int `json:"run_day_of_month"`
	DueDayOfMonth       int `json:"due_day_of_month"`
	DeadlineOffsetHours int `json:"deadline_offset_hours"`

	ActiveFrom  *time.Time `json:"active_from"`
	ActiveUntil *time.Time `json:"active_until"`

	AllowLate          bool `json:"allow_late"`
	MaxBackfillPeriods int  `json:"max_backfill_periods"`

	AssigneeMode       models.AssigneeMode `json:"assignee_mode"`
	AssigneeIDs        []uint64            `json:"assignee_ids,omitempty"`
	TargetPointTypes   []string            `json:"target_point_types,omitempty"`
	CollectionPointIDs []uint64            `json:"collection_point_ids,omitempty"`
	DepartmentIDs      []uint64            `json:"department_ids,omitempty"`
	OrganizationIDs    []uint64            `json:"organization_ids,omitempty"`

	IsActive  bool       `json:"is_active"`
	LastRunAt *time.Time `json:"last_run_at"`
	NextRunAt *time.Time `json:"next_run_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToTemplateDTO converts a TaskTemplate model to TemplateDTO
func ToTemplateDTO(tpl models.TaskTemplate) TemplateDTO {
	return TemplateDTO{
		ID:                  tpl.ID,
		Name:                tpl.Name,
		TaskType:            tpl.TaskType,
		CycleType:           tpl.CycleType,
		ScheduleMode:        tpl.ScheduleMode,
		RunAtMinute:         tpl.RunAtMinute,
		DueAtMinute:         tpl.DueAtMinute,
		RunDayOfWeek:        tpl.RunDayOfWeek,
		DueDayOfWeek:        tpl.DueDayOfWeek,
		RunDayOfMonth:       tpl.RunDayOfMonth,
		DueDayOfMonth:       tpl.DueDayOfMonth,
		DeadlineOffsetHours: tpl.DeadlineOffsetHours,
		ActiveFrom:          tpl.ActiveFrom,
		ActiveUntil:         tpl.ActiveUntil,
		AllowLate:           tpl.AllowLate,
		MaxBackfillPeriods:  tpl.MaxBackfillPeriods,
		AssigneeMode:        tpl.AssigneeMode,
		AssigneeIDs:         tpl.AssigneeIDs,
		TargetPointTypes:    tpl.TargetPointTypes,
		CollectionPointIDs:  tpl.CollectionPointIDs,
		DepartmentIDs:       tpl.DepartmentIDs,
		OrganizationIDs:     tpl.OrganizationIDs,
		IsActive:            tpl.IsActive,
		LastRunAt:           tpl.LastRunAt,
		NextRunAt:           tpl.NextRunAt,
		CreatedAt:           tpl.CreatedAt,
		UpdatedAt:           tpl.UpdatedAt,
	}
}

// ToTemplateDTOs converts a slice of templates
func ToTemplateDTOs(templates []models.TaskTemplate) []TemplateDTO {
	dtos := make([]TemplateDTO, len(templates))
	for i, tpl := range templates {
		dtos[i] = ToTemplateDTO(tpl)
	}
	return dtos
}
