package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/strivefit/strivefit-backend/internal/apierr"
	"github.com/strivefit/strivefit-backend/internal/clients/redis"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type orchestratorFixture struct {
	svc          OrchestratorService
	goals        *fakeGoalRepo
	measurements *fakeMeasurementRepo
	milestones   *fakeMilestoneRepo
	plans        *fakePlanRepo
	workouts     *fakeWorkoutRepo
	generator    *fakeGenerator
	locker       redis.GoalLocker
	tuning       Tuning
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func newOrchestratorFixture(t *testing.T, cfg OrchestratorConfig) *orchestratorFixture {
	t.Helper()
	log := testLogger(t)
	tuning := DefaultTuning()
	tuning.GenerationTimeout = 200 * time.Millisecond

	f := &orchestratorFixture{
		goals:        newFakeGoalRepo(),
		measurements: newFakeMeasurementRepo(),
		milestones:   newFakeMilestoneRepo(),
		plans:        newFakePlanRepo(),
		workouts:     &fakeWorkoutRepo{loadHistory: steadyLoad(28, 50)},
		generator:    &fakeGenerator{plan: &types.TrainingPlan{Status: types.PlanStatusDraft, Version: 1}},
		locker:       redis.NewMemoryLocker(),
		tuning:       tuning,
	}
	f.svc = NewOrchestratorService(
		openTestDB(t),
		log,
		tuning,
		cfg,
		f.goals,
		f.milestones,
		f.measurements,
		f.plans,
		f.workouts,
		NewSmartService(log, tuning),
		NewProgressService(log, tuning),
		NewMilestoneService(log, f.milestones),
		NewAdaptationService(log, tuning, f.plans, f.workouts),
		f.generator,
		f.locker,
	)
	return f
}

func TestCreateGoalHappyPath(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	now := time.Now().UTC()

	result, err := f.svc.CreateGoal(context.Background(), userID, validDraft(now))
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	goal := f.goals.rows[result.GoalID]
	if goal == nil {
		t.Fatal("goal not persisted")
	}
	if goal.Status != types.GoalStatusActive {
		t.Fatalf("goal status: want=%q got=%q", types.GoalStatusActive, goal.Status)
	}
	if goal.PlanID == nil {
		t.Fatal("goal not linked to a plan")
	}
	plan := f.plans.rows[*goal.PlanID]
	if plan == nil || plan.Status != types.PlanStatusActive {
		t.Fatalf("plan: want active, got=%+v", plan)
	}
	if plan.GoalID == nil || *plan.GoalID != goal.ID {
		t.Fatal("plan not linked back to the goal")
	}
	if len(result.Milestones) != 3 {
		t.Fatalf("milestones: want=3 got=%d", len(result.Milestones))
	}
	if result.Progress == nil {
		t.Fatal("expected an initial progress snapshot")
	}
	if result.Validation.SmartScore == 0 {
		t.Fatal("expected validation summary in the payload")
	}
}

func TestCreateGoalRejectsInvalidDraft(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	now := time.Now().UTC()
	draft := validDraft(now)
	draft.TargetValue = draft.BaselineValue

	_, err := f.svc.CreateGoal(context.Background(), uuid.New(), draft)

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != apierr.CodeValidationFailed {
		t.Fatalf("error: want 400/%s got %d/%s", apierr.CodeValidationFailed, apiErr.Status, apiErr.Code)
	}
	if len(f.goals.rows) != 0 {
		t.Fatal("nothing may be written for an invalid draft")
	}
	if f.generator.calls != 0 {
		t.Fatal("generator must not run for an invalid draft")
	}
}

func TestCreateGoalCompensatesWhenGeneratorReturnsNothing(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	f.generator.plan = nil
	now := time.Now().UTC()

	_, err := f.svc.CreateGoal(context.Background(), uuid.New(), validDraft(now))

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != apierr.CodeGenerationFailed {
		t.Fatalf("error: want 422/%s got %d/%s", apierr.CodeGenerationFailed, apiErr.Status, apiErr.Code)
	}
	if len(f.goals.rows) != 0 {
		t.Fatal("goal must be deleted when generation fails")
	}
	if len(f.goals.deleted) != 1 {
		t.Fatalf("compensating delete: want=1 got=%d", len(f.goals.deleted))
	}
	if len(f.milestones.rows) != 0 {
		t.Fatal("milestones must be deleted with the goal")
	}
	if len(f.plans.rows) != 0 {
		t.Fatal("no plan may survive a rolled back creation")
	}
}

func TestCreateGoalCompensatesOnGeneratorTimeout(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	f.generator.delay = time.Second
	now := time.Now().UTC()

	_, err := f.svc.CreateGoal(context.Background(), uuid.New(), validDraft(now))

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Code != apierr.CodeGenerationFailed {
		t.Fatalf("code: want=%s got=%s", apierr.CodeGenerationFailed, apiErr.Code)
	}
	if len(f.goals.rows) != 0 {
		t.Fatal("goal must be deleted when generation times out")
	}
}

func TestRecordMeasurementUpdatesGoalAndMilestones(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	now := time.Now().UTC()

	created, err := f.svc.CreateGoal(context.Background(), userID, validDraft(now))
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	// validDraft runs 54 down to 49.5; 52 is almost halfway.
	result, err := f.svc.RecordMeasurement(context.Background(), created.GoalID, MeasurementInput{
		Value:      52,
		MeasuredAt: now.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("record measurement: %v", err)
	}

	if result.Goal.CurrentValue != 52 {
		t.Fatalf("current value: want=52 got=%v", result.Goal.CurrentValue)
	}
	if len(result.AchievedMilestones) != 1 {
		t.Fatalf("achieved milestones: want=1 got=%d", len(result.AchievedMilestones))
	}
	if result.Goal.Status != types.GoalStatusActive {
		t.Fatalf("goal status: want active got=%q", result.Goal.Status)
	}
}

func TestRecordMeasurementCompletesGoalAtTarget(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	now := time.Now().UTC()

	created, err := f.svc.CreateGoal(context.Background(), userID, validDraft(now))
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	result, err := f.svc.RecordMeasurement(context.Background(), created.GoalID, MeasurementInput{
		Value:      49.5,
		MeasuredAt: now.AddDate(0, 0, 30),
	})
	if err != nil {
		t.Fatalf("record measurement: %v", err)
	}

	if result.Goal.Status != types.GoalStatusCompleted {
		t.Fatalf("goal status: want=%q got=%q", types.GoalStatusCompleted, result.Goal.Status)
	}
	if len(result.AchievedMilestones) != 3 {
		t.Fatalf("achieved milestones: want=3 got=%d", len(result.AchievedMilestones))
	}
}

func TestRecordMeasurementUnknownGoal(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})

	_, err := f.svc.RecordMeasurement(context.Background(), uuid.New(), MeasurementInput{Value: 5})

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != apierr.CodeNotFound {
		t.Fatalf("error: want 404/%s got %d/%s", apierr.CodeNotFound, apiErr.Status, apiErr.Code)
	}
}

func TestGetProgressReturnsSnapshot(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	now := time.Now().UTC()

	created, err := f.svc.CreateGoal(context.Background(), userID, validDraft(now))
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	result, err := f.svc.GetProgress(context.Background(), created.GoalID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if result.Goal.ID != created.GoalID {
		t.Fatalf("goal id: want=%s got=%s", created.GoalID, result.Goal.ID)
	}
	if result.Progress.CurrentValue != 54 {
		t.Fatalf("current value: want baseline 54 got=%v", result.Progress.CurrentValue)
	}
}

func regressiveEvidence(f *orchestratorFixture, userID uuid.UUID) {
	f.workouts.workouts = []*types.WorkoutSession{
		workout(userID, 10, types.WorkoutCompleted, 60, 60),
		workout(userID, 6, types.WorkoutMissed, 60, 0),
		workout(userID, 4, types.WorkoutMissed, 45, 0),
		workout(userID, 2, types.WorkoutMissed, 60, 0),
	}
}

func TestAdaptBelowConfidenceDoesNothing(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	activePlanFor(f.plans, userID)

	result, err := f.svc.Adapt(context.Background(), userID, AdaptOptions{Entitled: true})
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}
	if result.Applied {
		t.Fatal("nothing to adapt, no plan change expected")
	}
	if f.generator.calls != 0 {
		t.Fatal("generator must not run below the confidence gate")
	}
}

func TestAdaptRequiresEntitlement(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{EnforceEntitlements: true})
	userID := uuid.New()
	activePlanFor(f.plans, userID)
	regressiveEvidence(f, userID)

	_, err := f.svc.Adapt(context.Background(), userID, AdaptOptions{Entitled: false})

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Status != http.StatusPaymentRequired {
		t.Fatalf("status: want=402 got=%d", apiErr.Status)
	}
}

func TestAdaptAppliesRegeneratedPlan(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{EnforceEntitlements: true})
	userID := uuid.New()
	now := time.Now().UTC()

	created, err := f.svc.CreateGoal(context.Background(), userID, validDraft(now))
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	firstPlanID := *f.goals.rows[created.GoalID].PlanID
	regressiveEvidence(f, userID)

	result, err := f.svc.Adapt(context.Background(), userID, AdaptOptions{Entitled: true})
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}

	if !result.Applied || result.Plan == nil {
		t.Fatal("expected an applied plan change")
	}
	if result.Assessment.AdaptationType != AdaptRegressive {
		t.Fatalf("adaptation type: want=%q got=%q", AdaptRegressive, result.Assessment.AdaptationType)
	}
	if result.Plan.Version != 2 {
		t.Fatalf("plan version: want=2 got=%d", result.Plan.Version)
	}
	if result.Plan.ID == firstPlanID {
		t.Fatal("adaptation must create a new plan, not mutate the old one")
	}
	old := f.plans.rows[firstPlanID]
	if old == nil {
		t.Fatal("previous plan must survive adaptation")
	}
	if old.Status != types.PlanStatusSuperseded {
		t.Fatalf("previous plan status: want=%q got=%q", types.PlanStatusSuperseded, old.Status)
	}
	goal := f.goals.rows[created.GoalID]
	if goal.PlanID == nil || *goal.PlanID != result.Plan.ID {
		t.Fatal("goal must point at the new plan")
	}
}

func TestCreateGoalRefusedWhileCreationInFlight(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	now := time.Now().UTC()

	release, ok, err := f.locker.TryLock(context.Background(), "create:"+userID.String(), time.Minute)
	if err != nil || !ok {
		t.Fatalf("pre-acquire creation lock: ok=%v err=%v", ok, err)
	}
	defer release(context.Background())

	_, err = f.svc.CreateGoal(context.Background(), userID, validDraft(now))

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != apierr.CodeConflict {
		t.Fatalf("error: want 409/%s got %d/%s", apierr.CodeConflict, apiErr.Status, apiErr.Code)
	}
	if len(f.goals.rows) != 0 {
		t.Fatal("nothing may be written while another creation holds the lock")
	}
	if f.generator.calls != 0 {
		t.Fatalf("generator calls: want=0 got=%d", f.generator.calls)
	}
}

func TestRecordMeasurementRefusedWhileWorkflowInFlight(t *testing.T) {
	f := newOrchestratorFixture(t, OrchestratorConfig{})
	userID := uuid.New()
	now := time.Now().UTC()

	result, err := f.svc.CreateGoal(context.Background(), userID, validDraft(now))
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	release, ok, err := f.locker.TryLock(context.Background(), result.GoalID.String(), time.Minute)
	if err != nil || !ok {
		t.Fatalf("pre-acquire goal lock: ok=%v err=%v", ok, err)
	}
	defer release(context.Background())

	_, err = f.svc.RecordMeasurement(context.Background(), result.GoalID, MeasurementInput{Value: 52})

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got=%T", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != apierr.CodeConflict {
		t.Fatalf("error: want 409/%s got %d/%s", apierr.CodeConflict, apiErr.Status, apiErr.Code)
	}
	if rows := f.measurements.rows[result.GoalID]; len(rows) != 0 {
		t.Fatalf("measurements: want=0 got=%d", len(rows))
	}
}
