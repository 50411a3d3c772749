package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ccnuzw/task-dispatch/internal/models"
	"github.com/ccnuzw/task-dispatch/internal/repository"
)

var (
	ErrTemplateNotFound        = errors.New("template not found")
	ErrNameRequired            = errors.New("template name is required")
	ErrUnknownTaskType         = errors.New("unknown task type")
	ErrUnknownCycleType        = errors.New("unknown cycle type")
	ErrUnknownScheduleMode     = errors.New("unknown schedule mode")
	ErrUnknownAssigneeMode     = errors.New("unknown assignee mode")
	ErrMinuteOutOfRange        = errors.New("run/due minute must be within 0..1439")
	ErrWeekdayOutOfRange       = errors.New("run/due weekday must be within 1..7")
	ErrMonthDayOutOfRange      = errors.New("run/due day of month must be within 0..31")
	ErrActiveWindowInverted    = errors.New("active window ends before it starts")
	ErrNegativeBackfill        = errors.New("max backfill periods cannot be negative")
	ErrNegativeDeadlineOffset  = errors.New("deadline offset hours cannot be negative")
	ErrManualAssigneesRequired = errors.New("manual assignment requires at least one assignee")
	ErrPointScopeRequired      = errors.New("point assignment requires target point types or explicit point IDs")
	ErrPointScopeConflict      = errors.New("target point types and explicit point IDs are mutually exclusive")
	ErrDepartmentsRequired     = errors.New("department assignment requires at least one department")
	ErrOrganizationsRequired   = errors.New("organization assignment requires at least one organization")
	ErrPointBindingRequired    = errors.New("task type requires assignment by collection point")
)

// TemplateService handles template authoring: CRUD plus the save-time
// validation that keeps invalid schedule/assignment combinations from ever
// reaching the engine at runtime.
type TemplateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templateRepo repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

// Create validates and persists a new template
func (s *TemplateService) Create(ctx context.Context, tpl *models.TaskTemplate) (*models.TaskTemplate, error) {
	applyDefaults(tpl)
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return tpl, nil
}

// Get returns a template by ID
func (s *TemplateService) Get(ctx context.Context, id uint64) (*models.TaskTemplate, error) {
	tpl, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	return tpl, nil
}

// List returns templates matching the filter
func (s *TemplateService) List(ctx context.Context, filter repository.TemplateFilter) ([]models.TaskTemplate, int64, error) {
	templates, total, err := s.templateRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, total, nil
}

// Update validates and applies changes to an existing template. Schedule
// and assignment fields are replaced wholesale; bookkeeping fields are
// preserved.
func (s *TemplateService) Update(ctx context.Context, id uint64, updated *models.TaskTemplate) (*models.TaskTemplate, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated.ID = tpl.ID
	updated.LastRunAt = tpl.LastRunAt
	updated.NextRunAt = tpl.NextRunAt
	updated.IsActive = tpl.IsActive
	updated.CreatedAt = tpl.CreatedAt

	applyDefaults(updated)
	if err := validateTemplate(updated); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return updated, nil
}

// Delete soft deletes a template
func (s *TemplateService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// SetActive activates or deactivates a template
func (s *TemplateService) SetActive(ctx context.Context, id uint64, active bool) (*models.TaskTemplate, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.templateRepo.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("failed to update template state: %w", err)
	}
	return s.Get(ctx, id)
}

func applyDefaults(tpl *models.TaskTemplate) {
	if tpl.ScheduleMode == "" {
		tpl.ScheduleMode = models.ScheduleTemplateOverride
	}
	if tpl.CycleType == models.CycleWeekly {
		if tpl.RunDayOfWeek == 0 {
			tpl.RunDayOfWeek = 1
		}
		if tpl.DueDayOfWeek == 0 {
			tpl.DueDayOfWeek = tpl.RunDayOfWeek
		}
	}
}

// validateTemplate rejects structurally invalid templates at save time.
// Calendar regression between run and due days is deliberately not checked:
// the calculator wraps a due day below the run day into the next cycle.
func validateTemplate(tpl *models.TaskTemplate) error {
	if strings.TrimSpace(tpl.Name) == "" {
		return ErrNameRequired
	}

	switch tpl.TaskType {
	case models.TaskTypeCollection, models.TaskTypeReport, models.TaskTypeVerification:
	default:
		return ErrUnknownTaskType
	}

	switch tpl.ScheduleMode {
	case models.SchedulePointDefault, models.ScheduleTemplateOverride:
	default:
		return ErrUnknownScheduleMode
	}

	if tpl.RunAtMinute < 0 || tpl.RunAtMinute > 1439 || tpl.DueAtMinute < 0 || tpl.DueAtMinute > 1439 {
		return ErrMinuteOutOfRange
	}

	switch tpl.CycleType {
	case models.CycleDaily, models.CycleOneTime:
	case models.CycleWeekly:
		if tpl.RunDayOfWeek < 1 || tpl.RunDayOfWeek > 7 || tpl.DueDayOfWeek < 1 || tpl.DueDayOfWeek > 7 {
			return ErrWeekdayOutOfRange
		}
	case models.CycleMonthly:
		if tpl.RunDayOfMonth < 0 || tpl.RunDayOfMonth > 31 || tpl.DueDayOfMonth < 0 || tpl.DueDayOfMonth > 31 {
			return ErrMonthDayOutOfRange
		}
	default:
		return ErrUnknownCycleType
	}

	if tpl.ActiveFrom != nil && tpl.ActiveUntil != nil && tpl.ActiveUntil.Before(*tpl.ActiveFrom) {
		return ErrActiveWindowInverted
	}
	if tpl.MaxBackfillPeriods < 0 {
		return ErrNegativeBackfill
	}
	if tpl.DeadlineOffsetHours < 0 {
		return ErrNegativeDeadlineOffset
	}

	if tpl.TaskType.RequiresPointBinding() && tpl.AssigneeMode != models.AssignByPoint {
		return ErrPointBindingRequired
	}

	switch spec := tpl.AssigneeSpec().(type) {
	case models.ManualSpec:
		if len(spec.AssigneeIDs) == 0 {
			return ErrManualAssigneesRequired
		}
	case models.ByPointSpec:
		if len(spec.PointIDs) > 0 && len(spec.PointTypes) > 0 {
			return ErrPointScopeConflict
		}
		if len(spec.PointIDs) == 0 && len(spec.PointTypes) == 0 {
			return ErrPointScopeRequired
		}
	case models.ByDepartmentSpec:
		if len(spec.DepartmentIDs) == 0 {
			return ErrDepartmentsRequired
		}
	case models.ByOrganizationSpec:
		if len(spec.OrganizationIDs) == 0 {
			return ErrOrganizationsRequired
		}
	default:
		return ErrUnknownAssigneeMode
	}

	return nil
}
