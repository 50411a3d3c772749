package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ccnuzw/task-dispatch/internal/dto"
	apierrors "github.com/ccnuzw/task-dispatch/internal/errors"
	"github.com/ccnuzw/task-dispatch/internal/models"
	"github.com/ccnuzw/task-dispatch/internal/repository"
	"github.com/ccnuzw/task-dispatch/internal/services"
	"github.com/ccnuzw/task-dispatch/internal/utils"
)

type TaskHandler struct {
	dist *services.DistributionService
}

func NewTaskHandler(dist *services.DistributionService) *TaskHandler {
	return &TaskHandler{dist: dist}
}

// ListTasks returns materialized tasks, filterable by template, period,
// assignee, and status
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.TaskFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if v := c.Query("template_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid template_id")
			return
		}
		filter.TemplateID = &id
	}
	if v := c.Query("assignee_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee_id")
			return
		}
		filter.AssigneeID = &id
	}
	if v := c.Query("period_key"); v != "" {
		filter.PeriodKey = &v
	}
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		filter.Status = &status
	}

	tasks, total, err := h.dist.ListTasks(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}
