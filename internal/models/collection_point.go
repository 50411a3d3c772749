package models

import (
	"time"

	"gorm.io/gorm"
)

type PointType string

const (
	PointTypePort       PointType = "PORT"
	PointTypeEnterprise PointType = "ENTERPRISE"
	PointTypeMarket     PointType = "MARKET"
)

// CollectionPoint is a registry entity that may have zero or more owning
// assignees. Templates in POINT_DEFAULT schedule mode inherit the Default*
// cadence fields from their in-scope points.
type CollectionPoint struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	PointType PointType `gorm:"type:varchar(20);not null;index" json:"point_type"`

	DefaultCycleType   CycleType `gorm:"type:varchar(10);not null;default:'DAILY'" json:"default_cycle_type"`
	DefaultRunAtMinute int       `gorm:"not null;default:0" json:"default_run_at_minute"`
	// Weekday for WEEKLY defaults, day-of-month for MONTHLY defaults.
	DefaultRunDay int `gorm:"not null;default:1" json:"default_run_day"`

	IsActive  bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owners []CollectionPointOwner `gorm:"foreignKey:PointID" json:"owners,omitempty"`
}

// PointRef is the minimal point identity surfaced in previews and
// unassigned-point reports.
type PointRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Ref returns the point's preview reference.
func (p CollectionPoint) Ref() PointRef {
	return PointRef{ID: p.ID, Name: p.Name}
}
