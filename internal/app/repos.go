package app

import (
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/repos"
)

type Repos struct {
	Goal        repos.GoalRepo
	Measurement repos.MeasurementRepo
	Milestone   repos.MilestoneRepo
	Plan        repos.PlanRepo
	Workout     repos.WorkoutRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Goal:        repos.NewGoalRepo(db, log),
		Measurement: repos.NewMeasurementRepo(db, log),
		Milestone:   repos.NewMilestoneRepo(db, log),
		Plan:        repos.NewPlanRepo(db, log),
		Workout:     repos.NewWorkoutRepo(db, log),
	}
}
