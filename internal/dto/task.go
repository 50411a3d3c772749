package dto

import (
	"time"

	"github.com/ccnuzw/task-dispatch/internal/models"
)

// UserDTO represents an assignee in API responses
type UserDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TaskDTO represents a materialized task in API responses
type TaskDTO struct {
	ID                uint64            `json:"id"`
	TemplateID        uint64            `json:"template_id"`
	PeriodKey         string            `json:"period_key"`
	AssigneeID        uint64            `json:"assignee_id"`
	CollectionPointID *uint64           `json:"collection_point_id"`
	DueAt             time.Time         `json:"due_at"`
	Status            models.TaskStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	Assignee          *UserDTO          `json:"assignee,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:         task.ID,
		TemplateID: task.TemplateID,
		PeriodKey:  task.PeriodKey,
		AssigneeID: task.AssigneeID,
		DueAt:      task.DueAt,
		Status:     task.Status,
		CreatedAt:  task.CreatedAt,
	}

	// Zero means no point binding; surface it as null.
	if task.CollectionPointID != 0 {
		pointID := task.CollectionPointID
		dto.CollectionPointID = &pointID
	}

	// Include assignee if preloaded
	if task.Assignee.ID != 0 {
		dto.Assignee = &UserDTO{ID: task.Assignee.ID, Name: task.Assignee.Name}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// PointDTO represents a collection point in API responses
type PointDTO struct {
	ID        uint64           `json:"id"`
	Name      string           `json:"name"`
	PointType models.PointType `json:"point_type"`
	IsActive  bool             `json:"is_active"`
}

// ToPointDTO converts a CollectionPoint model to PointDTO
func ToPointDTO(point models.CollectionPoint) PointDTO {
	return PointDTO{
		ID:        point.ID,
		Name:      point.Name,
		PointType: point.PointType,
		IsActive:  point.IsActive,
	}
}
