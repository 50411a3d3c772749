package models

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusSubmitted TaskStatus = "SUBMITTED"
	TaskStatusOverdue   TaskStatus = "OVERDUE"
	TaskStatusReturned  TaskStatus = "RETURNED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Task is one materialized assignment for one occurrence of a template.
// The composite unique index is the idempotency key: re-running a tick that
// already materialized a period inserts nothing.
//
// CollectionPointID is 0 when the assignment has no point binding; a
// zero-able column (instead of NULL) keeps the unique index effective,
// since SQL treats NULLs as distinct.
//
// The engine only ever writes status PENDING; later transitions belong to
// the downstream execution workflow.
type Task struct {
	ID                uint64     `gorm:"primarykey" json:"id"`
	TemplateID        uint64     `gorm:"not null;uniqueIndex:idx_tasks_identity,priority:1" json:"template_id"`
	PeriodKey         string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_tasks_identity,priority:2" json:"period_key"`
	AssigneeID        uint64     `gorm:"not null;uniqueIndex:idx_tasks_identity,priority:3" json:"assignee_id"`
	CollectionPointID uint64     `gorm:"not null;default:0;uniqueIndex:idx_tasks_identity,priority:4" json:"collection_point_id"`
	DueAt             time.Time  `gorm:"not null;index" json:"due_at"`
	Status            TaskStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt         time.Time  `json:"created_at"`

	// Relations
	Template TaskTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Assignee User         `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}
