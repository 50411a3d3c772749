package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ccnuzw/task-dispatch/internal/database"
	"github.com/ccnuzw/task-dispatch/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// InsertIfAbsent inserts the given tasks, skipping every row whose
// idempotency key (template, period, assignee, point) already exists.
// RowsAffected counts only the rows actually written, which is what makes
// re-running a tick safe under overlap.
func (r *GormTaskRepository) InsertIfAbsent(ctx context.Context, tasks []models.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "template_id"},
				{Name: "period_key"},
				{Name: "assignee_id"},
				{Name: "collection_point_id"},
			},
			DoNothing: true,
		}).
		Create(&tasks)
	if res.Error != nil {
		return 0, res.Error
	}

	return int(res.RowsAffected), nil
}

// List retrieves materialized tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})
	if filter.TemplateID != nil {
		query = query.Where("template_id = ?", *filter.TemplateID)
	}
	if filter.PeriodKey != nil {
		query = query.Where("period_key = ?", *filter.PeriodKey)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("due_at ASC, id ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Preload("Assignee").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}
