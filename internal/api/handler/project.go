package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/bqlens/internal/api/middleware"
	"github.com/timmy/bqlens/internal/service"
)

// ProjectHandler serves the project list.
type ProjectHandler struct {
	plans *service.PlanService
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(plans *service.PlanService) *ProjectHandler {
	return &ProjectHandler{plans: plans}
}

// List handles GET /api/v1/projects.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.plans.ListProjects(c.Request.Context(), middleware.Token(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to list projects: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    len(projects),
	})
}
