package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// GormCollectionPointRepository is a GORM implementation of CollectionPointRepository
type GormCollectionPointRepository struct {
	db *gorm.DB
}

// NewCollectionPointRepository creates a new CollectionPointRepository
func NewCollectionPointRepository(db *gorm.DB) CollectionPointRepository {
	return &GormCollectionPointRepository{db: db}
}

// ListActivePoints returns active points. Explicit IDs take precedence over
// a type filter; passing neither returns all active points.
func (r *GormCollectionPointRepository) ListActivePoints(ctx context.Context, types []string, ids []uint64) ([]models.CollectionPoint, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)

	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	} else if len(types) > 0 {
		query = query.Where("point_type IN ?", types)
	}

	var points []models.CollectionPoint
	if err := query.Order("id ASC").Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// ListOwners returns the current owning users of a point
func (r *GormCollectionPointRepository) ListOwners(ctx context.Context, pointID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN collection_point_owners ON users.id = collection_point_owners.user_id").
		Where("collection_point_owners.point_id = ?", pointID).
		Where("collection_point_owners.deleted_at IS NULL").
		Where("users.is_active = ?", true).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
