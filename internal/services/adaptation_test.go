package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/strivefit/strivefit-backend/internal/types"
)

func activePlanFor(plans *fakePlanRepo, userID uuid.UUID) {
	plans.rows[uuid.New()] = &types.TrainingPlan{
		ID:     uuid.New(),
		UserID: userID,
		Status: types.PlanStatusActive,
	}
}

func workout(userID uuid.UUID, daysAgo int, status types.WorkoutStatus, targetMin, actualMin int) *types.WorkoutSession {
	return &types.WorkoutSession{
		ID:                uuid.New(),
		UserID:            userID,
		ScheduledFor:      time.Now().UTC().AddDate(0, 0, -daysAgo),
		Status:            status,
		TargetDurationMin: targetMin,
		ActualDurationMin: actualMin,
		LoadUnits:         50,
	}
}

func steadyLoad(days int, units float64) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = units
	}
	return out
}

func TestShouldAdaptNoActivePlan(t *testing.T) {
	plans := newFakePlanRepo()
	workouts := &fakeWorkoutRepo{}
	svc := NewAdaptationService(testLogger(t), DefaultTuning(), plans, workouts)

	got, err := svc.ShouldAdapt(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}
	if got.ShouldAdapt {
		t.Fatal("expected no adaptation without an active plan")
	}
	if got.AdaptationType != AdaptMaintenance || got.Confidence != 0 {
		t.Fatalf("assessment: got type=%q confidence=%v", got.AdaptationType, got.Confidence)
	}
}

func TestShouldAdaptRegressiveOnMissedStreak(t *testing.T) {
	userID := uuid.New()
	plans := newFakePlanRepo()
	activePlanFor(plans, userID)
	workouts := &fakeWorkoutRepo{
		workouts: []*types.WorkoutSession{
			workout(userID, 10, types.WorkoutCompleted, 60, 60),
			workout(userID, 6, types.WorkoutMissed, 60, 0),
			workout(userID, 4, types.WorkoutMissed, 45, 0),
			workout(userID, 2, types.WorkoutMissed, 60, 0),
		},
		loadHistory: steadyLoad(28, 50),
	}
	svc := NewAdaptationService(testLogger(t), DefaultTuning(), plans, workouts)

	got, err := svc.ShouldAdapt(context.Background(), userID)
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}
	if !got.ShouldAdapt {
		t.Fatal("expected adaptation recommendation")
	}
	if got.AdaptationType != AdaptRegressive {
		t.Fatalf("type: want=%q got=%q", AdaptRegressive, got.AdaptationType)
	}
	if got.Confidence < DefaultTuning().AdaptationConfidenceThreshold {
		t.Fatalf("confidence: want>=%v got=%v", DefaultTuning().AdaptationConfidenceThreshold, got.Confidence)
	}
	if got.Reason == "" {
		t.Fatal("expected a human-readable reason")
	}
}

func TestShouldAdaptProgressiveOnOverperformance(t *testing.T) {
	userID := uuid.New()
	plans := newFakePlanRepo()
	activePlanFor(plans, userID)
	// Every completed session runs well past its target duration.
	workouts := &fakeWorkoutRepo{
		workouts: []*types.WorkoutSession{
			workout(userID, 12, types.WorkoutCompleted, 45, 55),
			workout(userID, 9, types.WorkoutCompleted, 60, 72),
			workout(userID, 5, types.WorkoutCompleted, 50, 60),
			workout(userID, 2, types.WorkoutCompleted, 60, 70),
		},
		loadHistory: steadyLoad(28, 50),
	}
	svc := NewAdaptationService(testLogger(t), DefaultTuning(), plans, workouts)

	got, err := svc.ShouldAdapt(context.Background(), userID)
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}
	if !got.ShouldAdapt || got.AdaptationType != AdaptProgressive {
		t.Fatalf("assessment: got adapt=%v type=%q", got.ShouldAdapt, got.AdaptationType)
	}
}

func TestShouldAdaptMaintenanceWhenConsistent(t *testing.T) {
	userID := uuid.New()
	plans := newFakePlanRepo()
	activePlanFor(plans, userID)
	workouts := &fakeWorkoutRepo{
		workouts: []*types.WorkoutSession{
			workout(userID, 10, types.WorkoutCompleted, 60, 62),
			workout(userID, 7, types.WorkoutCompleted, 45, 44),
			workout(userID, 4, types.WorkoutCompleted, 60, 58),
			workout(userID, 1, types.WorkoutCompleted, 50, 51),
		},
		loadHistory: steadyLoad(28, 50),
	}
	svc := NewAdaptationService(testLogger(t), DefaultTuning(), plans, workouts)

	got, err := svc.ShouldAdapt(context.Background(), userID)
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}
	if got.ShouldAdapt {
		t.Fatalf("expected maintenance, got %q with reason %q", got.AdaptationType, got.Reason)
	}
	if got.AdaptationType != AdaptMaintenance {
		t.Fatalf("type: want=%q got=%q", AdaptMaintenance, got.AdaptationType)
	}
}

func TestShouldAdaptConflictingSignalsLowerConfidence(t *testing.T) {
	userID := uuid.New()
	plans := newFakePlanRepo()
	activePlanFor(plans, userID)
	// Overperforming when completing, but with a trailing missed streak.
	workouts := &fakeWorkoutRepo{
		workouts: []*types.WorkoutSession{
			workout(userID, 14, types.WorkoutCompleted, 45, 55),
			workout(userID, 11, types.WorkoutCompleted, 60, 72),
			workout(userID, 9, types.WorkoutCompleted, 50, 60),
			workout(userID, 6, types.WorkoutMissed, 60, 0),
			workout(userID, 4, types.WorkoutMissed, 45, 0),
			workout(userID, 2, types.WorkoutMissed, 60, 0),
		},
		loadHistory: steadyLoad(28, 50),
	}
	svc := NewAdaptationService(testLogger(t), DefaultTuning(), plans, workouts)
	conflicted, err := svc.ShouldAdapt(context.Background(), userID)
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}

	// Same missed streak with no opposing signal.
	workouts.workouts = []*types.WorkoutSession{
		workout(userID, 14, types.WorkoutCompleted, 45, 46),
		workout(userID, 11, types.WorkoutCompleted, 60, 59),
		workout(userID, 9, types.WorkoutCompleted, 50, 50),
		workout(userID, 6, types.WorkoutMissed, 60, 0),
		workout(userID, 4, types.WorkoutMissed, 45, 0),
		workout(userID, 2, types.WorkoutMissed, 60, 0),
	}
	clean, err := svc.ShouldAdapt(context.Background(), userID)
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}

	if conflicted.Confidence >= clean.Confidence {
		t.Fatalf("conflicting evidence must lower confidence: conflicted=%v clean=%v",
			conflicted.Confidence, clean.Confidence)
	}
}

func TestShouldAdaptRegressiveOnLoadSpike(t *testing.T) {
	userID := uuid.New()
	plans := newFakePlanRepo()
	activePlanFor(plans, userID)
	// Chronic base of 30 units/day with the last week tripled.
	history := steadyLoad(28, 30)
	for i := 21; i < 28; i++ {
		history[i] = 90
	}
	workouts := &fakeWorkoutRepo{
		workouts: []*types.WorkoutSession{
			workout(userID, 8, types.WorkoutCompleted, 60, 61),
			workout(userID, 5, types.WorkoutCompleted, 60, 60),
			workout(userID, 2, types.WorkoutCompleted, 60, 62),
		},
		loadHistory: history,
	}
	svc := NewAdaptationService(testLogger(t), DefaultTuning(), plans, workouts)

	got, err := svc.ShouldAdapt(context.Background(), userID)
	if err != nil {
		t.Fatalf("should adapt: %v", err)
	}
	if !got.ShouldAdapt || got.AdaptationType != AdaptRegressive {
		t.Fatalf("assessment: got adapt=%v type=%q reason=%q", got.ShouldAdapt, got.AdaptationType, got.Reason)
	}
}
