package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccnuzw/task-dispatch/internal/dto"
	apierrors "github.com/ccnuzw/task-dispatch/internal/errors"
	"github.com/ccnuzw/task-dispatch/internal/repository"
	"github.com/ccnuzw/task-dispatch/internal/services"
	"github.com/ccnuzw/task-dispatch/internal/utils"
)

type TemplateHandler struct {
	templates *services.TemplateService
	dist      *services.DistributionService
}

func NewTemplateHandler(templates *services.TemplateService, dist *services.DistributionService) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		dist:      dist,
	}
}

// validationErrors are save-time rejections surfaced as 400s
var validationErrors = []error{
	services.ErrNameRequired,
	services.ErrUnknownTaskType,
	services.ErrUnknownCycleType,
	services.ErrUnknownScheduleMode,
	services.ErrUnknownAssigneeMode,
	services.ErrMinuteOutOfRange,
	services.ErrWeekdayOutOfRange,
	services.ErrMonthDayOutOfRange,
	services.ErrActiveWindowInverted,
	services.ErrNegativeBackfill,
	services.ErrNegativeDeadlineOffset,
	services.ErrManualAssigneesRequired,
	services.ErrPointScopeRequired,
	services.ErrPointScopeConflict,
	services.ErrDepartmentsRequired,
	services.ErrOrganizationsRequired,
	services.ErrPointBindingRequired,
}

func isValidationError(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func respondTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTemplateNotFound):
		apierrors.NotFound(c, "Template not found")
	case isValidationError(err):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		apierrors.ServiceUnavailable(c, "Registry lookup timed out")
	default:
		apierrors.InternalError(c, "")
	}
}

// ListTemplates returns templates, optionally filtered by active state
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.TemplateFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			apierrors.BadRequest(c, "Invalid active filter")
			return
		}
		filter.Active = &active
	}

	templates, total, err := h.templates.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list templates")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": dto.ToTemplateDTOs(templates),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// CreateTemplate validates and persists a new template
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), req.ToModel())
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTemplateDTO(*tpl))
}

// GetTemplate returns a template by ID
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	tpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateDTO(*tpl))
}

// UpdateTemplate replaces a template's schedule and assignment fields
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tpl, err := h.templates.Update(c.Request.Context(), id, req.ToModel())
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateDTO(*tpl))
}

// DeleteTemplate soft deletes a template
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}

// ActivateTemplate enables scheduling for a template
func (h *TemplateHandler) ActivateTemplate(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateTemplate disables scheduling for a template
func (h *TemplateHandler) DeactivateTemplate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *TemplateHandler) setActive(c *gin.Context, active bool) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	tpl, err := h.templates.SetActive(c.Request.Context(), id, active)
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTemplateDTO(*tpl))
}

// PreviewDistribution returns the side-effect-free resolution of the
// template's current occurrence
func (h *TemplateHandler) PreviewDistribution(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	preview, err := h.dist.Preview(c.Request.Context(), id, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrNoUpcomingOccurrence) {
			apierrors.Conflict(c, "Template has no upcoming occurrence")
			return
		}
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ExecuteDistribution materializes the current occurrence on demand
func (h *TemplateHandler) ExecuteDistribution(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	result, err := h.dist.Execute(c.Request.Context(), id, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrNoUpcomingOccurrence) {
			apierrors.Conflict(c, "Template has no upcoming occurrence")
			return
		}
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func templateID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid template ID")
		return 0, false
	}
	return id, true
}
