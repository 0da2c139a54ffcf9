package app

import (
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/clients/redis"
	"github.com/strivefit/strivefit-backend/internal/coach"
	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/services"
)

type Services struct {
	Smart        services.SmartService
	Progress     services.ProgressService
	Milestone    services.MilestoneService
	Adaptation   services.AdaptationService
	Orchestrator services.OrchestratorService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, locker redis.GoalLocker) Services {
	log.Info("Wiring services...")
	smart := services.NewSmartService(log, cfg.Tuning)
	progress := services.NewProgressService(log, cfg.Tuning)
	milestone := services.NewMilestoneService(log, reposet.Milestone)
	adaptation := services.NewAdaptationService(log, cfg.Tuning, reposet.Plan, reposet.Workout)
	generator := coach.NewGenerator(log)
	orchestrator := services.NewOrchestratorService(
		db,
		log,
		cfg.Tuning,
		services.OrchestratorConfig{EnforceEntitlements: cfg.EnforceEntitlements},
		reposet.Goal,
		reposet.Milestone,
		reposet.Measurement,
		reposet.Plan,
		reposet.Workout,
		smart,
		progress,
		milestone,
		adaptation,
		generator,
		locker,
	)
	return Services{
		Smart:        smart,
		Progress:     progress,
		Milestone:    milestone,
		Adaptation:   adaptation,
		Orchestrator: orchestrator,
	}
}
