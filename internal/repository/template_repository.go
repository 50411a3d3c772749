package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ccnuzw/task-dispatch/internal/database"
	"github.com/ccnuzw/task-dispatch/internal/models"
)

// GormTemplateRepository is a GORM implementation of TemplateRepository
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &GormTemplateRepository{db: db}
}

// Create persists a new template
func (r *GormTemplateRepository) Create(ctx context.Context, tpl *models.TaskTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

// FindByID finds a template by ID
func (r *GormTemplateRepository) FindByID(ctx context.Context, id uint64) (*models.TaskTemplate, error) {
	var tpl models.TaskTemplate
	if err := r.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List retrieves templates with filtering and pagination
func (r *GormTemplateRepository) List(ctx context.Context, filter TemplateFilter) ([]models.TaskTemplate, int64, error) {
	var templates []models.TaskTemplate

	query := r.db.WithContext(ctx).Model(&models.TaskTemplate{})
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.TaskType != nil {
		query = query.Where("task_type = ?", *filter.TaskType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Find(&templates).Error; err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}

// ListActive returns all active templates, for the scheduler tick
func (r *GormTemplateRepository) ListActive(ctx context.Context) ([]models.TaskTemplate, error) {
	var templates []models.TaskTemplate
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Update updates a template
func (r *GormTemplateRepository) Update(ctx context.Context, tpl *models.TaskTemplate) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

// Delete soft deletes a template
func (r *GormTemplateRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.TaskTemplate{}, id).Error
}

// SetActive flips a template's active flag
func (r *GormTemplateRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.TaskTemplate{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// UpdateRunBookkeeping atomically records a completed run. A single UPDATE
// keeps lastRunAt/nextRunAt consistent even when ticks overlap.
func (r *GormTemplateRepository) UpdateRunBookkeeping(ctx context.Context, id uint64, lastRunAt time.Time, nextRunAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.TaskTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_at": lastRunAt,
			"next_run_at": nextRunAt,
		}).Error
}
