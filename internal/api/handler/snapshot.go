package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/bqlens/internal/api/middleware"
	"github.com/timmy/bqlens/internal/service"
)

// SnapshotHandler exports and lists plan snapshots.
type SnapshotHandler struct {
	plans     *service.PlanService
	snapshots *service.SnapshotService
}

// NewSnapshotHandler creates a snapshot handler.
func NewSnapshotHandler(plans *service.PlanService, snapshots *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{plans: plans, snapshots: snapshots}
}

// Create handles POST /api/v1/projects/:project/jobs/:job/snapshots.
func (h *SnapshotHandler) Create(c *gin.Context) {
	if !h.snapshots.Enabled() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Snapshot storage is not configured"})
		return
	}

	plan, err := h.plans.GetPlan(c.Request.Context(), middleware.Token(c),
		c.Param("project"), c.Param("job"), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to load plan: " + err.Error(),
		})
		return
	}

	snap, err := h.snapshots.Create(c.Request.Context(), plan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to export snapshot: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, snap)
}

// List handles GET /api/v1/projects/:project/jobs/:job/snapshots.
func (h *SnapshotHandler) List(c *gin.Context) {
	if !h.snapshots.Enabled() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Snapshot storage is not configured"})
		return
	}

	infos, err := h.snapshots.List(c.Request.Context(), c.Param("project"), c.Param("job"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list snapshots: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": infos,
		"total":     len(infos),
	})
}
