package app

import (
	"github.com/gin-gonic/gin"

	"github.com/strivefit/strivefit-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:       cfg.ServiceName,
		AllowOrigins:      cfg.AllowOrigins,
		GoalHandler:       handlerset.Goal,
		AdaptationHandler: handlerset.Adaptation,
	})
}
