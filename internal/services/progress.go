package services

import (
	"time"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type Trajectory string

const (
	TrajectoryAhead   Trajectory = "ahead"
	TrajectoryOnTrack Trajectory = "on_track"
	TrajectoryBehind  Trajectory = "behind"
	TrajectoryAtRisk  Trajectory = "at_risk"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Snapshot is the computed progress state for one goal. ProgressPercent is
// unclamped in both directions: overshoot reads past 100 and regression
// reads negative.
type Snapshot struct {
	CurrentValue    float64    `json:"current_value"`
	TargetValue     float64    `json:"target_value"`
	ProgressPercent float64    `json:"progress_percent"`
	Trajectory      Trajectory `json:"trajectory"`
	RecentTrend     Trend      `json:"recent_trend"`
}

type ProgressService interface {
	Calculate(goal *types.Goal, measurements []*types.ProgressMeasurement) Snapshot
	CalculateAt(goal *types.Goal, measurements []*types.ProgressMeasurement, now time.Time) Snapshot
	// Percent converts a raw measured value into progress percent for the
	// goal. Shared with measurement recording so stored percents agree with
	// computed ones.
	Percent(goal *types.Goal, value float64) float64
}

type progressService struct {
	log    *logger.Logger
	tuning Tuning
}

func NewProgressService(baseLog *logger.Logger, tuning Tuning) ProgressService {
	return &progressService{log: baseLog.With("service", "ProgressService"), tuning: tuning}
}

func (s *progressService) Calculate(goal *types.Goal, measurements []*types.ProgressMeasurement) Snapshot {
	return s.CalculateAt(goal, measurements, time.Now().UTC())
}

func (s *progressService) CalculateAt(goal *types.Goal, measurements []*types.ProgressMeasurement, now time.Time) Snapshot {
	snap := Snapshot{
		CurrentValue: goal.BaselineValue,
		TargetValue:  goal.TargetValue,
		Trajectory:   TrajectoryOnTrack,
		RecentTrend:  TrendStable,
	}
	if len(measurements) > 0 {
		snap.CurrentValue = measurements[len(measurements)-1].Value
	}
	snap.ProgressPercent = s.Percent(goal, snap.CurrentValue)
	snap.Trajectory = s.classify(goal, snap.ProgressPercent, len(measurements), now)
	snap.RecentTrend = s.recentTrend(goal, measurements)
	return snap
}

func (s *progressService) Percent(goal *types.Goal, value float64) float64 {
	denom := goal.TargetValue - goal.BaselineValue
	if denom == 0 {
		return 0
	}
	return (value - goal.BaselineValue) / denom * 100
}

func (s *progressService) classify(goal *types.Goal, progressPct float64, measurementCount int, now time.Time) Trajectory {
	total := goal.Deadline.Sub(goal.StartDate)
	if total <= 0 {
		return TrajectoryAtRisk
	}

	if now.After(goal.Deadline) {
		if goal.Status == types.GoalStatusCompleted {
			return TrajectoryAhead
		}
		return TrajectoryAtRisk
	}

	elapsedPct := now.Sub(goal.StartDate).Hours() / total.Hours() * 100
	if elapsedPct < 0 {
		elapsedPct = 0
	}
	remainingFraction := goal.Deadline.Sub(now).Hours() / total.Hours()

	// The short-horizon check comes first and alone: a goal that is merely
	// behind with months left is not urgent, the same gap inside the final
	// stretch is.
	if remainingFraction <= s.tuning.AtRiskRemainingFraction && progressPct < elapsedPct {
		return TrajectoryAtRisk
	}

	// No data yet: nothing meaningful to compare, assume on track.
	if measurementCount == 0 {
		return TrajectoryOnTrack
	}

	diff := progressPct - elapsedPct
	switch {
	case diff > s.tuning.TrajectoryMarginPoints:
		return TrajectoryAhead
	case diff < -s.tuning.TrajectoryMarginPoints:
		return TrajectoryBehind
	default:
		return TrajectoryOnTrack
	}
}

// recentTrend fits a least-squares slope to progress percent over the last
// N measurements. Working in percent space folds in the goal's direction:
// a dropping race time still slopes upward.
func (s *progressService) recentTrend(goal *types.Goal, measurements []*types.ProgressMeasurement) Trend {
	window := s.tuning.TrendWindow
	if window < 2 {
		window = 2
	}
	if len(measurements) < 2 {
		return TrendStable
	}
	recent := measurements
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	first := recent[0].MeasuredAt
	n := float64(len(recent))
	var sumX, sumY, sumXY, sumXX float64
	for _, m := range recent {
		x := m.MeasuredAt.Sub(first).Hours() / 24
		y := s.Percent(goal, m.Value)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return TrendStable
	}
	slope := (n*sumXY - sumX*sumY) / denom

	switch {
	case slope > s.tuning.TrendNoisePointsPerDay:
		return TrendImproving
	case slope < -s.tuning.TrendNoisePointsPerDay:
		return TrendDeclining
	default:
		return TrendStable
	}
}
