package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/ccnuzw/task-dispatch/internal/models"
	"github.com/ccnuzw/task-dispatch/internal/repository"
	"github.com/ccnuzw/task-dispatch/internal/schedule"
)

var (
	// ErrNoUpcomingOccurrence means the template yields no occurrence at
	// the reference instant (outside its active window, or a ONE_TIME
	// template that already ran).
	ErrNoUpcomingOccurrence = errors.New("template has no upcoming occurrence")
)

// AssigneePreview summarizes one assignee's share of a previewed distribution
type AssigneePreview struct {
	AssigneeID         uint64   `json:"assignee_id"`
	CollectionPointIDs []uint64 `json:"collection_point_ids,omitempty"`
	TaskCount          int      `json:"task_count"`
}

// DistributionPreview is the side-effect-free summary an operator reviews
// before executing a distribution. It is never persisted.
type DistributionPreview struct {
	TemplateID       uint64            `json:"template_id"`
	PeriodKey        string            `json:"period_key"`
	RunAt            time.Time         `json:"run_at"`
	DueAt            time.Time         `json:"due_at"`
	TotalTasks       int               `json:"total_tasks"`
	TotalAssignees   int               `json:"total_assignees"`
	Assignees        []AssigneePreview `json:"assignees"`
	UnassignedPoints []models.PointRef `json:"unassigned_points"`
}

// MaterializeResult reports how many task rows an execution actually
// created versus skipped as already present.
type MaterializeResult struct {
	PeriodKey string `json:"period_key"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
}

// RunSummary aggregates one template's processing during a tick.
type RunSummary struct {
	Occurrences int
	Created     int
	Skipped     int
}

// DistributionService composes the schedule calculator, the assignment
// resolver, and the task store into the preview and materialize operations.
// Materialization is idempotent: correctness under overlapping ticks comes
// from the task store's insert-if-absent semantics, not from locking.
type DistributionService struct {
	templateRepo repository.TemplateRepository
	taskRepo     repository.TaskRepository
	pointRepo    repository.CollectionPointRepository
	assignments  *AssignmentService
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	templateRepo repository.TemplateRepository,
	taskRepo repository.TaskRepository,
	pointRepo repository.CollectionPointRepository,
	assignments *AssignmentService,
) *DistributionService {
	return &DistributionService{
		templateRepo: templateRepo,
		taskRepo:     taskRepo,
		pointRepo:    pointRepo,
		assignments:  assignments,
	}
}

// Preview computes the current occurrence and its resolution without side
// effects. Repeated calls with unchanged registry state return identical
// output; with resolution gaps it still returns a best-effort snapshot.
func (s *DistributionService) Preview(ctx context.Context, templateID uint64, now time.Time) (*DistributionPreview, error) {
	tpl, err := s.findTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	eff, err := s.effectiveTemplate(ctx, tpl)
	if err != nil {
		return nil, err
	}

	occ := schedule.NextOccurrence(eff, now)
	if occ == nil {
		return nil, ErrNoUpcomingOccurrence
	}

	res, err := s.assignments.Resolve(ctx, tpl)
	if err != nil {
		return nil, err
	}

	return buildPreview(tpl.ID, *occ, res), nil
}

// Execute materializes the current occurrence on demand, bypassing the
// periodic tick, and advances the template's run bookkeeping.
func (s *DistributionService) Execute(ctx context.Context, templateID uint64, now time.Time) (*MaterializeResult, error) {
	tpl, err := s.findTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	eff, err := s.effectiveTemplate(ctx, tpl)
	if err != nil {
		return nil, err
	}

	occ := schedule.NextOccurrence(eff, now)
	if occ == nil {
		return nil, ErrNoUpcomingOccurrence
	}

	result, err := s.Materialize(ctx, tpl, *occ)
	if err != nil {
		return nil, err
	}

	if err := s.advanceBookkeeping(ctx, eff, *occ); err != nil {
		return nil, err
	}
	return result, nil
}

// Materialize resolves the template's assignments and persists one PENDING
// task per pair for the given occurrence. Existing rows under the
// idempotency key are counted as skipped, which is what makes a re-run of
// the same occurrence safe.
func (s *DistributionService) Materialize(ctx context.Context, tpl *models.TaskTemplate, occ schedule.Occurrence) (*MaterializeResult, error) {
	res, err := s.assignments.Resolve(ctx, tpl)
	if err != nil {
		return nil, err
	}

	dueAt := occ.DueAt
	if tpl.ScheduleMode == models.SchedulePointDefault {
		// Point-inherited cadence expresses the deadline as an offset
		// from the run instant instead of an explicit due day.
		dueAt = occ.RunAt.Add(time.Duration(tpl.DeadlineOffsetHours) * time.Hour)
	}

	periodKey := occ.PeriodKey()
	tasks := make([]models.Task, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		tasks = append(tasks, models.Task{
			TemplateID:        tpl.ID,
			PeriodKey:         periodKey,
			AssigneeID:        a.AssigneeID,
			CollectionPointID: a.CollectionPointID,
			DueAt:             dueAt,
			Status:            models.TaskStatusPending,
		})
	}

	created, err := s.taskRepo.InsertIfAbsent(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize tasks: %w", err)
	}

	return &MaterializeResult{
		PeriodKey: periodKey,
		Created:   created,
		Skipped:   len(tasks) - created,
	}, nil
}

// RunTemplate processes one template during a tick: enumerate every
// runnable occurrence (missed periods plus the current one, bounded by the
// backfill policy), materialize each, then record the run.
func (s *DistributionService) RunTemplate(ctx context.Context, tpl *models.TaskTemplate, now time.Time) (*RunSummary, error) {
	eff, err := s.effectiveTemplate(ctx, tpl)
	if err != nil {
		return nil, err
	}

	occs := schedule.MissedOccurrences(eff, tpl.LastRunAt, now)
	summary := &RunSummary{}
	for _, occ := range occs {
		result, err := s.Materialize(ctx, tpl, occ)
		if err != nil {
			return summary, err
		}
		summary.Occurrences++
		summary.Created += result.Created
		summary.Skipped += result.Skipped
	}

	if summary.Occurrences > 0 {
		if err := s.advanceBookkeeping(ctx, eff, occs[len(occs)-1]); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// ListTasks exposes the materialized task rows for operator inspection
func (s *DistributionService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *DistributionService) findTemplate(ctx context.Context, id uint64) (*models.TaskTemplate, error) {
	tpl, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	return tpl, nil
}

// effectiveTemplate resolves POINT_DEFAULT cadence inheritance: the
// template's cycle fields are replaced by the defaults of its first
// in-scope point. Templates in TEMPLATE_OVERRIDE mode, and point templates
// whose scope is currently empty, are used as stored. The returned value
// is a copy; the stored template is never mutated here.
func (s *DistributionService) effectiveTemplate(ctx context.Context, tpl *models.TaskTemplate) (*models.TaskTemplate, error) {
	if tpl.ScheduleMode != models.SchedulePointDefault {
		return tpl, nil
	}

	spec, ok := tpl.AssigneeSpec().(models.ByPointSpec)
	if !ok {
		return tpl, nil
	}

	points, err := s.pointRepo.ListActivePoints(ctx, spec.PointTypes, spec.PointIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve point cadence: %w", err)
	}
	if len(points) == 0 {
		return tpl, nil
	}

	p := points[0]
	eff := *tpl
	eff.CycleType = p.DefaultCycleType
	eff.RunAtMinute = p.DefaultRunAtMinute
	eff.DueAtMinute = p.DefaultRunAtMinute
	eff.RunDayOfWeek = p.DefaultRunDay
	eff.DueDayOfWeek = p.DefaultRunDay
	eff.RunDayOfMonth = p.DefaultRunDay
	eff.DueDayOfMonth = p.DefaultRunDay
	return &eff, nil
}

// advanceBookkeeping records the occurrence as the template's last run and
// computes the next run instant from just past it. ONE_TIME templates get
// a nil nextRunAt once they have run.
func (s *DistributionService) advanceBookkeeping(ctx context.Context, eff *models.TaskTemplate, occ schedule.Occurrence) error {
	after := *eff
	lastRun := occ.PeriodStart
	after.LastRunAt = &lastRun

	var nextRunAt *time.Time
	if next := schedule.NextOccurrence(&after, occ.RunAt.Add(time.Minute)); next != nil {
		nextRunAt = &next.RunAt
	}

	if err := s.templateRepo.UpdateRunBookkeeping(ctx, eff.ID, lastRun, nextRunAt); err != nil {
		return fmt.Errorf("failed to update run bookkeeping: %w", err)
	}
	return nil
}

func buildPreview(templateID uint64, occ schedule.Occurrence, res *Resolution) *DistributionPreview {
	perAssignee := make(map[uint64]*AssigneePreview)
	order := make([]uint64, 0)
	for _, a := range res.Assignments {
		entry, ok := perAssignee[a.AssigneeID]
		if !ok {
			entry = &AssigneePreview{AssigneeID: a.AssigneeID}
			perAssignee[a.AssigneeID] = entry
			order = append(order, a.AssigneeID)
		}
		entry.TaskCount++
		if a.CollectionPointID != 0 {
			entry.CollectionPointIDs = append(entry.CollectionPointIDs, a.CollectionPointID)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	assignees := make([]AssigneePreview, 0, len(order))
	for _, id := range order {
		assignees = append(assignees, *perAssignee[id])
	}

	return &DistributionPreview{
		TemplateID:       templateID,
		PeriodKey:        occ.PeriodKey(),
		RunAt:            occ.RunAt,
		DueAt:            occ.DueAt,
		TotalTasks:       len(res.Assignments),
		TotalAssignees:   len(order),
		Assignees:        assignees,
		UnassignedPoints: res.UnassignedPoints,
	}
}
