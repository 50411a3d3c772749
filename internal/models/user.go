package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a read model over the organizational hierarchy: the engine only
// resolves assignees from it, it never writes users.
type User struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DepartmentID   uint64         `gorm:"index" json:"department_id"`
	OrganizationID uint64         `gorm:"index" json:"organization_id"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
