package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rivalscan/rivalscan/internal/logger"
)

// Handlers groups the handler set wired into the router.
type Handlers struct {
	Discovery *DiscoveryHandler
	Monitor   *MonitorHandler
	Tasks     *TasksHandler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h Handlers, log logger.Interface) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/discover", h.Discovery.Discover)
		v1.POST("/analyze", h.Discovery.Analyze)

		v1.POST("/monitor/prices", h.Monitor.MonitorPrices)
		v1.GET("/monitor/history", h.Monitor.PriceHistory)

		v1.POST("/tasks", h.Tasks.CreateTask)
		v1.GET("/tasks", h.Tasks.ListTasks)
		v1.GET("/tasks/:id", h.Tasks.GetTask)
		v1.PATCH("/tasks/:id", h.Tasks.UpdateTask)
		v1.DELETE("/tasks/:id", h.Tasks.DeleteTask)
	}

	return router
}

// requestLogger logs one line per handled request.
func requestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}
