package app

import (
	"github.com/strivefit/strivefit-backend/internal/handlers"
	"github.com/strivefit/strivefit-backend/internal/logger"
)

type Handlers struct {
	Goal       *handlers.GoalHandler
	Adaptation *handlers.AdaptationHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Goal:       handlers.NewGoalHandler(log, serviceset.Orchestrator, reposet.Goal),
		Adaptation: handlers.NewAdaptationHandler(log, serviceset.Orchestrator, serviceset.Adaptation),
	}
}
