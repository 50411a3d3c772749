package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// ListActiveMembersByOrganizations returns the active users of the given organizations
func (r *GormOrganizationRepository) ListActiveMembersByOrganizations(ctx context.Context, orgIDs []uint64) ([]models.User, error) {
	if len(orgIDs) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("organization_id IN ? AND is_active = ?", orgIDs, true).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListActiveMembersByDepartments returns the active users of the given departments
func (r *GormOrganizationRepository) ListActiveMembersByDepartments(ctx context.Context, deptIDs []uint64) ([]models.User, error) {
	if len(deptIDs) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("department_id IN ? AND is_active = ?", deptIDs, true).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
