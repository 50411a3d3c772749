package models

import (
	"time"

	"gorm.io/gorm"
)

// CollectionPointOwner links a collection point to one of its owning users.
// A point may have zero, one, or many owners; each owner receives a task
// when the point is in a distribution's scope.
type CollectionPointOwner struct {
	PointID   uint64         `gorm:"primarykey" json:"point_id"`
	UserID    uint64         `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Point CollectionPoint `gorm:"foreignKey:PointID" json:"point,omitempty"`
	User  User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
