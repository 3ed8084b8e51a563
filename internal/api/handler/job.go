package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/bqlens/internal/api/middleware"
	"github.com/timmy/bqlens/internal/service"
)

// JobHandler serves job lists, reconstructed plans, Gantt rows, and stage
// details.
type JobHandler struct {
	plans *service.PlanService
}

// NewJobHandler creates a job handler.
func NewJobHandler(plans *service.PlanService) *JobHandler {
	return &JobHandler{plans: plans}
}

// List handles GET /api/v1/projects/:project/jobs.
func (h *JobHandler) List(c *gin.Context) {
	maxResults := 0
	if raw := c.Query("max_results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			maxResults = n
		}
	}

	jobs, err := h.plans.ListJobs(c.Request.Context(), middleware.Token(c),
		c.Param("project"), c.Query("state"), maxResults)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to list jobs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetPlan handles GET /api/v1/projects/:project/jobs/:job/plan.
func (h *JobHandler) GetPlan(c *gin.Context) {
	resp, err := h.plans.GetPlan(c.Request.Context(), middleware.Token(c),
		c.Param("project"), c.Param("job"), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to load plan: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetGantt handles GET /api/v1/projects/:project/jobs/:job/gantt.
func (h *JobHandler) GetGantt(c *gin.Context) {
	resp, err := h.plans.GetPlan(c.Request.Context(), middleware.Token(c),
		c.Param("project"), c.Param("job"), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to load plan: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":     resp.Gantt,
		"is_valid": resp.IsValid,
	})
}

// GetStage handles GET /api/v1/projects/:project/jobs/:job/stages/:stage.
func (h *JobHandler) GetStage(c *gin.Context) {
	detail, err := h.plans.GetStage(c.Request.Context(), middleware.Token(c),
		c.Param("project"), c.Param("job"), c.Query("location"), c.Param("stage"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrStageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error": "Failed to load stage: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}
