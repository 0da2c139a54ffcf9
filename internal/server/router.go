package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/strivefit/strivefit-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName       string
	AllowOrigins      []string
	GoalHandler       *handlers.GoalHandler
	AdaptationHandler *handlers.AdaptationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Goals
		api.POST("/users/:id/goals", cfg.GoalHandler.CreateGoal)
		api.GET("/users/:id/goals", cfg.GoalHandler.ListGoals)
		api.GET("/goals/:id/progress", cfg.GoalHandler.GetProgress)
		api.POST("/goals/:id/measurements", cfg.GoalHandler.RecordMeasurement)
		// Adaptation
		api.POST("/users/:id/adaptation/assess", cfg.AdaptationHandler.Assess)
		api.POST("/users/:id/adaptation/apply", cfg.AdaptationHandler.Apply)
	}

	return router
}
