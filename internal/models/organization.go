package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization is a read model: the engine expands BY_ORGANIZATION
// assignments to its active members.
type Organization struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Departments []Department `gorm:"foreignKey:OrganizationID" json:"departments,omitempty"`
	Members     []User       `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
}
