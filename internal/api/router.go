package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timmy/bqlens/internal/api/handler"
	"github.com/timmy/bqlens/internal/api/middleware"
	"github.com/timmy/bqlens/internal/gcp"
	"github.com/timmy/bqlens/internal/repository"
	"github.com/timmy/bqlens/internal/service"
)

// RouterConfig bundles the collaborators the router wires into handlers.
type RouterConfig struct {
	Mode       string
	CORS       middleware.CORSConfig
	SessionTTL time.Duration

	OAuth     *gcp.OAuth
	Sessions  *repository.SessionRepository
	Plans     *service.PlanService
	Snapshots *service.SnapshotService
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(cfg.OAuth, cfg.Sessions, cfg.SessionTTL)
	projectHandler := handler.NewProjectHandler(cfg.Plans)
	jobHandler := handler.NewJobHandler(cfg.Plans)
	snapshotHandler := handler.NewSnapshotHandler(cfg.Plans, cfg.Snapshots)

	// Health check
	r.GET("/health", healthHandler.Health)

	// OAuth flow
	auth := r.Group("/auth")
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
		auth.POST("/logout", authHandler.Logout)
	}

	// API v1 routes, session-scoped
	v1 := r.Group("/api/v1")
	v1.Use(middleware.SessionAuth(cfg.Sessions, cfg.OAuth))
	{
		v1.GET("/projects", projectHandler.List)
		v1.GET("/projects/:project/jobs", jobHandler.List)
		v1.GET("/projects/:project/jobs/:job/plan", jobHandler.GetPlan)
		v1.GET("/projects/:project/jobs/:job/gantt", jobHandler.GetGantt)
		v1.GET("/projects/:project/jobs/:job/stages/:stage", jobHandler.GetStage)
		v1.POST("/projects/:project/jobs/:job/snapshots", snapshotHandler.Create)
		v1.GET("/projects/:project/jobs/:job/snapshots", snapshotHandler.List)
	}

	return r
}
