package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/coach"
	"github.com/strivefit/strivefit-backend/internal/types"
)

// In-memory repo fakes. None of them inspect the tx argument: the
// orchestrator's transactional grouping is exercised separately against a
// real database.

type fakeGoalRepo struct {
	rows map[uuid.UUID]*types.Goal

	createErr error
	deleted   []uuid.UUID
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{rows: map[uuid.UUID]*types.Goal{}}
}

func (f *fakeGoalRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Goal) (*types.Goal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeGoalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error) {
	return f.rows[id], nil
}

func (f *fakeGoalRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("goal %s not found", id)
	}
	if v, ok := fields["plan_id"]; ok {
		planID := v.(uuid.UUID)
		row.PlanID = &planID
	}
	if v, ok := fields["status"]; ok {
		row.Status = v.(types.GoalStatus)
	}
	if v, ok := fields["current_value"]; ok {
		row.CurrentValue = v.(float64)
	}
	if v, ok := fields["progress_percent"]; ok {
		row.ProgressPercent = v.(float64)
	}
	return nil
}

func (f *fakeGoalRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGoalRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status *types.GoalStatus) ([]*types.Goal, error) {
	var out []*types.Goal
	for _, g := range f.rows {
		if g.UserID != userID {
			continue
		}
		if status != nil && g.Status != *status {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

type fakeMeasurementRepo struct {
	rows map[uuid.UUID][]*types.ProgressMeasurement
}

func newFakeMeasurementRepo() *fakeMeasurementRepo {
	return &fakeMeasurementRepo{rows: map[uuid.UUID][]*types.ProgressMeasurement{}}
}

func (f *fakeMeasurementRepo) Append(ctx context.Context, tx *gorm.DB, row *types.ProgressMeasurement) (*types.ProgressMeasurement, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows[row.GoalID] = append(f.rows[row.GoalID], row)
	return row, nil
}

func (f *fakeMeasurementRepo) ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.ProgressMeasurement, error) {
	out := append([]*types.ProgressMeasurement{}, f.rows[goalID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

func (f *fakeMeasurementRepo) DeleteByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error {
	delete(f.rows, goalID)
	return nil
}

type fakeMilestoneRepo struct {
	rows map[uuid.UUID]*types.Milestone

	markErr error
}

func newFakeMilestoneRepo() *fakeMilestoneRepo {
	return &fakeMilestoneRepo{rows: map[uuid.UUID]*types.Milestone{}}
}

func (f *fakeMilestoneRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Milestone) ([]*types.Milestone, error) {
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		f.rows[row.ID] = row
	}
	return rows, nil
}

func (f *fakeMilestoneRepo) ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Milestone, error) {
	var out []*types.Milestone
	for _, m := range f.rows {
		if m.GoalID == goalID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Percent < out[j].Percent })
	return out, nil
}

func (f *fakeMilestoneRepo) MarkAchieved(ctx context.Context, tx *gorm.DB, id uuid.UUID, achievedAt time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("milestone %s not found", id)
	}
	// Pending-only transition, same as the WHERE clause in the real repo.
	if row.Status != types.MilestonePending {
		return nil
	}
	row.Status = types.MilestoneAchieved
	at := achievedAt
	row.AchievedAt = &at
	return nil
}

func (f *fakeMilestoneRepo) MarkMissed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("milestone %s not found", id)
	}
	if row.Status == types.MilestonePending {
		row.Status = types.MilestoneMissed
	}
	return nil
}

func (f *fakeMilestoneRepo) DeleteByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error {
	for id, m := range f.rows {
		if m.GoalID == goalID {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakePlanRepo struct {
	rows map[uuid.UUID]*types.TrainingPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{rows: map[uuid.UUID]*types.TrainingPlan{}}
}

func (f *fakePlanRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlan) (*types.TrainingPlan, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakePlanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TrainingPlan, error) {
	return f.rows[id], nil
}

func (f *fakePlanRepo) GetActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.TrainingPlan, error) {
	for _, p := range f.rows {
		if p.UserID == userID && p.Status == types.PlanStatusActive {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePlanRepo) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("plan %s not found", id)
	}
	row.Status = types.PlanStatusActive
	return nil
}

func (f *fakePlanRepo) SupersedeActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	for _, p := range f.rows {
		if p.UserID == userID && p.Status == types.PlanStatusActive {
			p.Status = types.PlanStatusSuperseded
		}
	}
	return nil
}

func (f *fakePlanRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

type fakeWorkoutRepo struct {
	workouts    []*types.WorkoutSession
	loadHistory []float64
}

func (f *fakeWorkoutRepo) Create(ctx context.Context, tx *gorm.DB, row *types.WorkoutSession) (*types.WorkoutSession, error) {
	f.workouts = append(f.workouts, row)
	return row, nil
}

func (f *fakeWorkoutRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.WorkoutSession, error) {
	var out []*types.WorkoutSession
	for _, w := range f.workouts {
		if w.UserID == userID && !w.ScheduledFor.Before(since) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}

func (f *fakeWorkoutRepo) LoadHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, days int) ([]float64, error) {
	return f.loadHistory, nil
}

type fakeGenerator struct {
	plan  *types.TrainingPlan
	err   error
	delay time.Duration
	calls int
}

func (f *fakeGenerator) GeneratePlan(ctx context.Context, userID uuid.UUID, gctx coach.GoalContext) (*types.TrainingPlan, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.plan == nil {
		return nil, nil
	}
	plan := *f.plan
	plan.UserID = userID
	return &plan, nil
}
