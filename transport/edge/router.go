package edge

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/log"
	"github.com/layer-3/taskchain/service"
)

// Config wires the edge to the client services
type Config struct {
	Auth      Authenticator
	Sessions  *service.SessionContext
	Gateway   *service.TaskGateway
	Refresher *service.Refresher
	PageSize  int
	Now       func() time.Time
	Logger    *slog.Logger
}

// SetupRouter sets up the Gin router of the local edge
func SetupRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = service.DefaultPageSize
	}

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(log.IntoContext(c.Request.Context(), logger))
		c.Next()
	})

	handlers := &Handlers{
		auth:      cfg.Auth,
		sessions:  cfg.Sessions,
		gateway:   cfg.Gateway,
		refresher: cfg.Refresher,
		pageSize:  pageSize,
		now:       now,
	}

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/login", handlers.Login)
		auth.POST("/logout", handlers.Logout)
	}

	// Session routes
	api := router.Group("/api")
	api.Use(SessionRequired(cfg.Sessions))
	{
		api.GET("/me", handlers.Me)
		api.GET("/tasks", handlers.ListTasks)
		api.POST("/tasks", handlers.CreateTask)
		api.GET("/tasks/view", handlers.View)
		api.PUT("/tasks/:id", handlers.UpdateTask)
		api.POST("/tasks/:id/complete", handlers.CompleteTask)
		api.DELETE("/tasks/:id", handlers.DeleteTask)
	}

	return router
}
