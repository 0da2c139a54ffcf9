package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/repos"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type MilestoneService interface {
	// BuildSchedule materializes milestone rows from the goal's percentage
	// schedule. Target values are denormalized from the goal's range.
	BuildSchedule(goal *types.Goal) ([]*types.Milestone, error)
	// CheckAchievements marks every pending milestone whose target any
	// measurement has crossed, and returns the newly achieved ids.
	// Idempotent: a second run over the same inputs returns nothing.
	CheckAchievements(ctx context.Context, tx *gorm.DB, goal *types.Goal, milestones []*types.Milestone, measurements []*types.ProgressMeasurement) ([]uuid.UUID, error)
	// SweepMissed marks pending milestones whose scheduled date has passed
	// without an achievement. A milestone some measurement has already
	// crossed is never swept, even when its achieved write has not landed
	// yet: the next achievement check still owns it. Advisory: it feeds
	// the progress payload and never blocks the caller's read path.
	SweepMissed(ctx context.Context, tx *gorm.DB, goal *types.Goal, milestones []*types.Milestone, measurements []*types.ProgressMeasurement, now time.Time) ([]uuid.UUID, error)
}

type milestoneService struct {
	log        *logger.Logger
	milestones repos.MilestoneRepo
}

func NewMilestoneService(baseLog *logger.Logger, milestones repos.MilestoneRepo) MilestoneService {
	return &milestoneService{
		log:        baseLog.With("service", "MilestoneService"),
		milestones: milestones,
	}
}

func (s *milestoneService) BuildSchedule(goal *types.Goal) ([]*types.Milestone, error) {
	if goal == nil {
		return nil, fmt.Errorf("missing goal")
	}
	var schedule []int
	if len(goal.MilestoneSchedule) > 0 {
		if err := json.Unmarshal(goal.MilestoneSchedule, &schedule); err != nil {
			return nil, fmt.Errorf("decode milestone schedule: %w", err)
		}
	}
	sort.Ints(schedule)

	rows := make([]*types.Milestone, 0, len(schedule))
	for _, pct := range schedule {
		if pct <= 0 || pct > 100 {
			continue
		}
		rows = append(rows, &types.Milestone{
			GoalID:      goal.ID,
			Percent:     pct,
			TargetValue: goal.BaselineValue + float64(pct)/100*(goal.TargetValue-goal.BaselineValue),
			Status:      types.MilestonePending,
		})
	}
	return rows, nil
}

func (s *milestoneService) CheckAchievements(ctx context.Context, tx *gorm.DB, goal *types.Goal, milestones []*types.Milestone, measurements []*types.ProgressMeasurement) ([]uuid.UUID, error) {
	if goal == nil || len(milestones) == 0 || len(measurements) == 0 {
		return nil, nil
	}

	// Ascending target order so the earliest milestone claims the earliest
	// crossing measurement.
	ordered := append([]*types.Milestone{}, milestones...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Percent < ordered[j].Percent })

	descending := goal.Descending()
	var achieved []uuid.UUID
	for _, m := range ordered {
		if m.Status != types.MilestonePending {
			continue
		}
		crossedAt, ok := firstCrossing(m.TargetValue, descending, measurements)
		if !ok {
			continue
		}
		if err := s.milestones.MarkAchieved(ctx, tx, m.ID, crossedAt); err != nil {
			return achieved, fmt.Errorf("mark milestone %s achieved: %w", m.ID, err)
		}
		m.Status = types.MilestoneAchieved
		at := crossedAt
		m.AchievedAt = &at
		achieved = append(achieved, m.ID)
		s.log.Info("milestone achieved",
			"goal_id", goal.ID.String(),
			"milestone_id", m.ID.String(),
			"percent", m.Percent,
			"achieved_at", crossedAt,
		)
	}
	return achieved, nil
}

func (s *milestoneService) SweepMissed(ctx context.Context, tx *gorm.DB, goal *types.Goal, milestones []*types.Milestone, measurements []*types.ProgressMeasurement, now time.Time) ([]uuid.UUID, error) {
	if goal == nil || len(milestones) == 0 {
		return nil, nil
	}
	span := goal.Deadline.Sub(goal.StartDate)
	if span <= 0 {
		return nil, nil
	}

	descending := goal.Descending()
	var missed []uuid.UUID
	for _, m := range milestones {
		if m.Status != types.MilestonePending {
			continue
		}
		due := goal.StartDate.Add(time.Duration(float64(span) * float64(m.Percent) / 100))
		if !now.After(due) {
			continue
		}
		if _, crossed := firstCrossing(m.TargetValue, descending, measurements); crossed {
			continue
		}
		if err := s.milestones.MarkMissed(ctx, tx, m.ID); err != nil {
			return missed, fmt.Errorf("mark milestone %s missed: %w", m.ID, err)
		}
		m.Status = types.MilestoneMissed
		missed = append(missed, m.ID)
		s.log.Info("milestone missed",
			"goal_id", goal.ID.String(),
			"milestone_id", m.ID.String(),
			"percent", m.Percent,
			"due", due,
		)
	}
	return missed, nil
}

// firstCrossing finds the earliest measurement at or past the target in the
// goal's direction. Measurements arrive ordered by date.
func firstCrossing(target float64, descending bool, measurements []*types.ProgressMeasurement) (time.Time, bool) {
	for _, m := range measurements {
		if descending {
			if m.Value <= target {
				return m.MeasuredAt, true
			}
		} else if m.Value >= target {
			return m.MeasuredAt, true
		}
	}
	return time.Time{}, false
}
