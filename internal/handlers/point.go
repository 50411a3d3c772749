package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ccnuzw/task-dispatch/internal/dto"
	apierrors "github.com/ccnuzw/task-dispatch/internal/errors"
	"github.com/ccnuzw/task-dispatch/internal/repository"
)

type PointHandler struct {
	points repository.CollectionPointRepository
}

func NewPointHandler(points repository.CollectionPointRepository) *PointHandler {
	return &PointHandler{points: points}
}

// ListPoints returns active collection points, optionally filtered by type.
// Operators use this to inspect the scope a point-mode template will
// resolve against.
func (h *PointHandler) ListPoints(c *gin.Context) {
	var types []string
	if v := c.Query("type"); v != "" {
		types = []string{v}
	}

	points, err := h.points.ListActivePoints(c.Request.Context(), types, nil)
	if err != nil {
		apierrors.InternalError(c, "Failed to list collection points")
		return
	}

	dtos := make([]dto.PointDTO, len(points))
	for i, p := range points {
		dtos[i] = dto.ToPointDTO(p)
	}

	c.JSON(http.StatusOK, gin.H{"points": dtos})
}
