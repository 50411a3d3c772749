package repository

import (
	"context"
	"time"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// TemplateRepository defines the interface for template storage
type TemplateRepository interface {
	// Create persists a new template
	Create(ctx context.Context, tpl *models.TaskTemplate) error

	// FindByID finds a template by ID
	FindByID(ctx context.Context, id uint64) (*models.TaskTemplate, error)

	// List retrieves templates with filtering and pagination
	List(ctx context.Context, filter TemplateFilter) ([]models.TaskTemplate, int64, error)

	// ListActive returns all active templates, for the scheduler tick
	ListActive(ctx context.Context) ([]models.TaskTemplate, error)

	// Update updates a template
	Update(ctx context.Context, tpl *models.TaskTemplate) error

	// Delete soft deletes a template
	Delete(ctx context.Context, id uint64) error

	// SetActive flips a template's active flag
	SetActive(ctx context.Context, id uint64, active bool) error

	// UpdateRunBookkeeping atomically records a completed run
	UpdateRunBookkeeping(ctx context.Context, id uint64, lastRunAt time.Time, nextRunAt *time.Time) error
}

// TemplateFilter holds filtering options for listing templates
type TemplateFilter struct {
	Active   *bool
	TaskType *models.TaskType
	Page     int
	PageSize int
}

// TaskRepository defines the interface for materialized task storage
type TaskRepository interface {
	// InsertIfAbsent inserts the tasks that do not yet exist under the
	// idempotency key and reports how many rows were actually created;
	// conflicting rows are silently skipped, never an error
	InsertIfAbsent(ctx context.Context, tasks []models.Task) (created int, err error)

	// List retrieves materialized tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)
}

// TaskFilter holds filtering options for listing materialized tasks
type TaskFilter struct {
	TemplateID *uint64
	PeriodKey  *string
	AssigneeID *uint64
	Status     *models.TaskStatus
	Page       int
	PageSize   int
}

// OrganizationRepository is the read-only view into the organizational
// hierarchy registry
type OrganizationRepository interface {
	// ListActiveMembersByOrganizations returns the active users of the
	// given organizations
	ListActiveMembersByOrganizations(ctx context.Context, orgIDs []uint64) ([]models.User, error)

	// ListActiveMembersByDepartments returns the active users of the
	// given departments
	ListActiveMembersByDepartments(ctx context.Context, deptIDs []uint64) ([]models.User, error)
}

// CollectionPointRepository is the read-only view into the collection-point
// registry and its ownership records
type CollectionPointRepository interface {
	// ListActivePoints returns active points, narrowed by explicit IDs
	// when ids is non-empty, else by point types when types is non-empty
	ListActivePoints(ctx context.Context, types []string, ids []uint64) ([]models.CollectionPoint, error)

	// ListOwners returns the current owning users of a point; an empty
	// result is a resolution gap, not an error
	ListOwners(ctx context.Context, pointID uint64) ([]models.User, error)
}
