package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/apierr"
	"github.com/strivefit/strivefit-backend/internal/clients/redis"
	"github.com/strivefit/strivefit-backend/internal/coach"
	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/repos"
	"github.com/strivefit/strivefit-backend/internal/types"
)

// Goal-creation workflow states, recorded on the saga log lines.
const (
	SagaStateValidating     = "validating"
	SagaStatePersistingGoal = "persisting_goal"
	SagaStateGeneratingPlan = "generating_plan"
	SagaStateLinking        = "linking"
	SagaStateDone           = "done"
	SagaStateRolledBack     = "rolled_back"
)

// PlanGenerator is the external generation contract. A (nil, nil) return
// means the generator cannot produce a usable plan; only infrastructure
// problems surface as errors.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, userID uuid.UUID, gctx coach.GoalContext) (*types.TrainingPlan, error)
}

type ValidationSummary struct {
	SmartScore  float64  `json:"smart_score"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// CreateGoalResult is the payload handed back to the UI layer after a
// successful creation. Progress and Milestones are best-effort: nil when
// the post-commit computation failed.
type CreateGoalResult struct {
	GoalID     uuid.UUID          `json:"goal_id"`
	Goal       *types.Goal        `json:"goal"`
	Progress   *Snapshot          `json:"progress,omitempty"`
	Milestones []*types.Milestone `json:"milestones,omitempty"`
	Validation ValidationSummary  `json:"validation"`
}

type MeasurementInput struct {
	Value      float64
	MeasuredAt time.Time
	Source     types.MeasurementSource
	Note       string
	WorkoutID  *uuid.UUID
}

type RecordResult struct {
	Goal               *types.Goal        `json:"goal"`
	Progress           Snapshot           `json:"progress"`
	AchievedMilestones []uuid.UUID        `json:"achieved_milestones"`
	Milestones         []*types.Milestone `json:"milestones"`
}

type AdaptOptions struct {
	// Entitled is resolved by the caller (billing is outside this engine).
	// Checked only when entitlement enforcement is on.
	Entitled bool
}

type AdaptResult struct {
	Assessment Assessment          `json:"assessment"`
	Applied    bool                `json:"applied"`
	Plan       *types.TrainingPlan `json:"plan,omitempty"`
}

type OrchestratorConfig struct {
	EnforceEntitlements bool
}

type OrchestratorService interface {
	CreateGoal(ctx context.Context, userID uuid.UUID, draft types.GoalDraft) (*CreateGoalResult, error)
	RecordMeasurement(ctx context.Context, goalID uuid.UUID, input MeasurementInput) (*RecordResult, error)
	GetProgress(ctx context.Context, goalID uuid.UUID) (*RecordResult, error)
	Adapt(ctx context.Context, userID uuid.UUID, opts AdaptOptions) (*AdaptResult, error)
}

type orchestratorService struct {
	db     *gorm.DB
	log    *logger.Logger
	tuning Tuning
	cfg    OrchestratorConfig

	goals        repos.GoalRepo
	milestones   repos.MilestoneRepo
	measurements repos.MeasurementRepo
	plans        repos.PlanRepo
	workouts     repos.WorkoutRepo

	smart        SmartService
	progress     ProgressService
	milestoneSvc MilestoneService
	assessor     AdaptationService
	generator    PlanGenerator
	locker       redis.GoalLocker

	tracer trace.Tracer
}

func NewOrchestratorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tuning Tuning,
	cfg OrchestratorConfig,
	goals repos.GoalRepo,
	milestones repos.MilestoneRepo,
	measurements repos.MeasurementRepo,
	plans repos.PlanRepo,
	workouts repos.WorkoutRepo,
	smart SmartService,
	progress ProgressService,
	milestoneSvc MilestoneService,
	assessor AdaptationService,
	generator PlanGenerator,
	locker redis.GoalLocker,
) OrchestratorService {
	return &orchestratorService{
		db:           db,
		log:          baseLog.With("service", "OrchestratorService"),
		tuning:       tuning,
		cfg:          cfg,
		goals:        goals,
		milestones:   milestones,
		measurements: measurements,
		plans:        plans,
		workouts:     workouts,
		smart:        smart,
		progress:     progress,
		milestoneSvc: milestoneSvc,
		assessor:     assessor,
		generator:    generator,
		locker:       locker,
		tracer:       otel.Tracer("orchestrator"),
	}
}

// CreateGoal runs the goal-creation saga. Goal and plan live in separate
// stores with no shared transaction, so the workflow compensates: a goal
// whose plan generation fails is deleted, never left dangling.
func (s *orchestratorService) CreateGoal(ctx context.Context, userID uuid.UUID, draft types.GoalDraft) (*CreateGoalResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("missing user id"))
	}
	ctx, span := s.tracer.Start(ctx, "goal.create",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	// Step 1: validate. Blocking errors abort before any write.
	state := SagaStateValidating
	now := time.Now().UTC()
	draft = s.smart.AutoComplete(draft)
	verdict := s.smart.Validate(draft, now)
	if !verdict.IsValid {
		s.log.Info("goal rejected by SMART validation",
			"user_id", userID.String(),
			"errors", verdict.Errors,
			"smart_score", verdict.SmartScore,
		)
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidationFailed,
			fmt.Errorf("goal failed SMART validation: %v", verdict.Errors))
	}

	// One in-flight creation per user; the goal id does not exist yet.
	release, ok, err := s.locker.TryLock(ctx, "create:"+userID.String(), 2*s.tuning.GenerationTimeout)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if !ok {
		return nil, apierr.New(http.StatusConflict, apierr.CodeConflict,
			fmt.Errorf("another goal creation is already in flight"))
	}
	defer release(context.WithoutCancel(ctx))

	// Step 2: persist goal + milestone batch atomically.
	state = SagaStatePersistingGoal
	goal := goalFromDraft(userID, draft)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.goals.Create(ctx, tx, goal); err != nil {
			return err
		}
		schedule, err := s.milestoneSvc.BuildSchedule(goal)
		if err != nil {
			return err
		}
		_, err = s.milestones.CreateBatch(ctx, tx, schedule)
		return err
	})
	if err != nil {
		s.log.Error("goal persistence failed", "user_id", userID.String(), "state", state, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}

	// Step 3: generate the plan, bounded. A timeout is a generation
	// failure, not a special case.
	state = SagaStateGeneratingPlan
	plan, genErr := s.generatePlan(ctx, userID, goal)
	if genErr != nil || plan == nil {
		s.compensateCreation(ctx, goal, nil)
		reason := "plan generator could not produce a plan"
		if genErr != nil {
			reason = genErr.Error()
		}
		s.log.Warn("goal creation rolled back",
			"user_id", userID.String(),
			"goal_id", goal.ID.String(),
			"state", SagaStateRolledBack,
			"trigger_state", state,
			"reason", reason,
		)
		return nil, apierr.New(http.StatusUnprocessableEntity, apierr.CodeGenerationFailed,
			fmt.Errorf("no training plan could be generated for %q (target %.2f %s by %s); the goal was not saved",
				goal.Title, goal.TargetValue, goal.TargetUnit, goal.Deadline.Format("2006-01-02")))
	}

	// Step 4: persist plan, enforce single-active, link the goal.
	state = SagaStateLinking
	goalID := goal.ID
	plan.GoalID = &goalID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.plans.Create(ctx, tx, plan); err != nil {
			return err
		}
		if err := s.plans.SupersedeActiveForUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.plans.SetActive(ctx, tx, plan.ID); err != nil {
			return err
		}
		return s.goals.UpdateFields(ctx, tx, goal.ID, map[string]interface{}{
			"plan_id": plan.ID,
			"status":  types.GoalStatusActive,
		})
	})
	if err != nil {
		s.compensateCreation(ctx, goal, plan)
		s.log.Error("goal-plan linking failed",
			"user_id", userID.String(),
			"goal_id", goal.ID.String(),
			"state", SagaStateRolledBack,
			"trigger_state", state,
			"error", err,
		)
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	planID := plan.ID
	goal.PlanID = &planID
	goal.Status = types.GoalStatusActive

	state = SagaStateDone
	span.SetAttributes(attribute.String("saga.state", state))
	s.log.Info("goal created",
		"user_id", userID.String(),
		"goal_id", goal.ID.String(),
		"plan_id", plan.ID.String(),
		"smart_score", verdict.SmartScore,
	)

	result := &CreateGoalResult{
		GoalID: goal.ID,
		Goal:   goal,
		Validation: ValidationSummary{
			SmartScore:  verdict.SmartScore,
			Warnings:    verdict.Warnings,
			Suggestions: verdict.Suggestions,
		},
	}

	// Step 5: best-effort response extras. Failures here degrade the
	// payload, never the committed goal+plan.
	g, gctx := errgroup.WithContext(ctx)
	var snap Snapshot
	var milestones []*types.Milestone
	g.Go(func() error {
		measurements, err := s.measurements.ListByGoal(gctx, nil, goal.ID)
		if err != nil {
			return err
		}
		snap = s.progress.Calculate(goal, measurements)
		return nil
	})
	g.Go(func() error {
		var err error
		milestones, err = s.milestones.ListByGoal(gctx, nil, goal.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("initial progress computation failed, returning partial payload",
			"goal_id", goal.ID.String(), "error", err)
	} else {
		result.Progress = &snap
		result.Milestones = milestones
	}
	return result, nil
}

func (s *orchestratorService) generatePlan(ctx context.Context, userID uuid.UUID, goal *types.Goal) (*types.TrainingPlan, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.tuning.GenerationTimeout)
	defer cancel()

	genCtx, span := s.tracer.Start(genCtx, "plan.generate",
		trace.WithAttributes(attribute.String("goal_id", goal.ID.String())))
	defer span.End()

	loadHistory, err := s.workouts.LoadHistory(genCtx, nil, userID, 28)
	if err != nil {
		// Missing history degrades the plan, it does not block generation.
		s.log.Warn("load history unavailable for generation", "user_id", userID.String(), "error", err)
		loadHistory = nil
	}
	return s.generator.GeneratePlan(genCtx, userID, coach.GoalContext{
		Goal:        goal,
		LoadHistory: loadHistory,
	})
}

// compensateCreation deletes everything the creation saga wrote, children
// first. Each action and each compensation failure is logged distinctly
// from the failure that triggered it, for audit.
func (s *orchestratorService) compensateCreation(ctx context.Context, goal *types.Goal, plan *types.TrainingPlan) {
	// Detach from the request: compensation must run even when the caller
	// context is already cancelled or timed out.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	compLog := s.log.With("saga", "goal_creation", "goal_id", goal.ID.String())
	if plan != nil {
		compLog.Info("compensation action", "action", "delete_plan", "plan_id", plan.ID.String())
		if err := s.plans.DeleteByID(cctx, nil, plan.ID); err != nil {
			compLog.Error("compensation failed", "action", "delete_plan", "error", err)
		}
	}
	compLog.Info("compensation action", "action", "delete_measurements")
	if err := s.measurements.DeleteByGoal(cctx, nil, goal.ID); err != nil {
		compLog.Error("compensation failed", "action", "delete_measurements", "error", err)
	}
	compLog.Info("compensation action", "action", "delete_milestones")
	if err := s.milestones.DeleteByGoal(cctx, nil, goal.ID); err != nil {
		compLog.Error("compensation failed", "action", "delete_milestones", "error", err)
	}
	compLog.Info("compensation action", "action", "delete_goal")
	if err := s.goals.DeleteByID(cctx, nil, goal.ID); err != nil {
		compLog.Error("compensation failed", "action", "delete_goal", "error", err)
	}
}

// RecordMeasurement appends a measurement, recomputes progress, runs the
// milestone scan, and refreshes the goal's denormalized progress state.
func (s *orchestratorService) RecordMeasurement(ctx context.Context, goalID uuid.UUID, input MeasurementInput) (*RecordResult, error) {
	if goalID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("missing goal id"))
	}

	// Milestone transitions race under concurrent scans of the same goal.
	release, ok, err := s.locker.TryLock(ctx, goalID.String(), 30*time.Second)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if !ok {
		return nil, apierr.New(http.StatusConflict, apierr.CodeConflict,
			fmt.Errorf("goal %s has another workflow in flight", goalID))
	}
	defer release(context.WithoutCancel(ctx))

	goal, err := s.goals.GetByID(ctx, nil, goalID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if goal == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("goal %s not found", goalID))
	}

	measuredAt := input.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = time.Now().UTC()
	}
	source := input.Source
	if source == "" {
		source = types.SourceManual
	}
	row := &types.ProgressMeasurement{
		GoalID:          goalID,
		MeasuredAt:      measuredAt,
		Value:           input.Value,
		ProgressPercent: s.progress.Percent(goal, input.Value),
		WorkoutID:       input.WorkoutID,
		Source:          source,
		Note:            input.Note,
	}
	if _, err := s.measurements.Append(ctx, nil, row); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}

	measurements, err := s.measurements.ListByGoal(ctx, nil, goalID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	snap := s.progress.Calculate(goal, measurements)

	milestones, err := s.milestones.ListByGoal(ctx, nil, goalID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	achieved, err := s.milestoneSvc.CheckAchievements(ctx, nil, goal, milestones, measurements)
	if err != nil {
		// Achievement bookkeeping is not worth failing the measurement for.
		s.log.Warn("milestone check failed", "goal_id", goalID.String(), "error", err)
	}

	fields := map[string]interface{}{
		"current_value":    snap.CurrentValue,
		"progress_percent": snap.ProgressPercent,
	}
	if snap.ProgressPercent >= 100 && goal.Status == types.GoalStatusActive {
		fields["status"] = types.GoalStatusCompleted
		goal.Status = types.GoalStatusCompleted
	}
	if err := s.goals.UpdateFields(ctx, nil, goalID, fields); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	goal.CurrentValue = snap.CurrentValue
	goal.ProgressPercent = snap.ProgressPercent

	return &RecordResult{
		Goal:               goal,
		Progress:           snap,
		AchievedMilestones: achieved,
		Milestones:         milestones,
	}, nil
}

func (s *orchestratorService) GetProgress(ctx context.Context, goalID uuid.UUID) (*RecordResult, error) {
	goal, err := s.goals.GetByID(ctx, nil, goalID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if goal == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("goal %s not found", goalID))
	}
	measurements, err := s.measurements.ListByGoal(ctx, nil, goalID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	milestones, err := s.milestones.ListByGoal(ctx, nil, goalID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if _, err := s.milestoneSvc.SweepMissed(ctx, nil, goal, milestones, measurements, time.Now()); err != nil {
		s.log.Warn("milestone missed-sweep failed", "goal_id", goalID.String(), "error", err)
	}
	snap := s.progress.Calculate(goal, measurements)
	return &RecordResult{Goal: goal, Progress: snap, Milestones: milestones}, nil
}

// Adapt re-runs assessment and, when it clears the confidence gate,
// regenerates the active plan for the user's primary goal. Unlike
// creation-time failures, adaptation failures are reported and leave the
// goal untouched.
func (s *orchestratorService) Adapt(ctx context.Context, userID uuid.UUID, opts AdaptOptions) (*AdaptResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("missing user id"))
	}
	ctx, span := s.tracer.Start(ctx, "plan.adapt",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	assessment, err := s.assessor.ShouldAdapt(ctx, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	result := &AdaptResult{Assessment: assessment}
	if !assessment.ShouldAdapt || assessment.Confidence < s.tuning.AdaptationConfidenceThreshold {
		return result, nil
	}
	if s.cfg.EnforceEntitlements && !opts.Entitled {
		return nil, apierr.New(http.StatusPaymentRequired, apierr.CodeEntitlement,
			fmt.Errorf("plan adaptation requires an active subscription"))
	}

	status := types.GoalStatusActive
	goals, err := s.goals.ListByUser(ctx, nil, userID, &status)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if len(goals) == 0 {
		result.Assessment.Reason += "; no active goal to adapt against"
		return result, nil
	}
	goal := pickPrimaryGoal(goals)

	release, ok, err := s.locker.TryLock(ctx, goal.ID.String(), 2*s.tuning.GenerationTimeout)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if !ok {
		return nil, apierr.New(http.StatusConflict, apierr.CodeConflict,
			fmt.Errorf("goal %s has another workflow in flight", goal.ID))
	}
	defer release(context.WithoutCancel(ctx))

	plan, genErr := s.generatePlan(ctx, userID, goal)
	if genErr != nil || plan == nil {
		reason := "plan generator could not produce a plan"
		if genErr != nil {
			reason = genErr.Error()
		}
		s.log.Warn("adaptation regeneration failed, goal untouched",
			"user_id", userID.String(), "goal_id", goal.ID.String(), "reason", reason)
		return nil, apierr.New(http.StatusUnprocessableEntity, apierr.CodeGenerationFailed,
			fmt.Errorf("plan regeneration failed: %s", reason))
	}

	prev, err := s.plans.GetActiveForUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	if prev != nil {
		plan.Version = prev.Version + 1
	}
	adaptGoalID := goal.ID
	plan.GoalID = &adaptGoalID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.plans.Create(ctx, tx, plan); err != nil {
			return err
		}
		if err := s.plans.SupersedeActiveForUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.plans.SetActive(ctx, tx, plan.ID); err != nil {
			return err
		}
		return s.goals.UpdateFields(ctx, tx, goal.ID, map[string]interface{}{"plan_id": plan.ID})
	})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailed, err)
	}
	plan.Status = types.PlanStatusActive

	s.log.Info("plan adapted",
		"user_id", userID.String(),
		"goal_id", goal.ID.String(),
		"plan_id", plan.ID.String(),
		"adaptation_type", string(assessment.AdaptationType),
		"confidence", assessment.Confidence,
	)
	result.Applied = true
	result.Plan = plan
	return result, nil
}

func pickPrimaryGoal(goals []*types.Goal) *types.Goal {
	primary := goals[0]
	for _, g := range goals[1:] {
		if g.Priority < primary.Priority {
			primary = g
		}
	}
	return primary
}

// mustJSON marshals values whose encoding cannot fail (string and int
// slices from validated drafts).
func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func goalFromDraft(userID uuid.UUID, draft types.GoalDraft) *types.Goal {
	feasibility := 0.0
	if draft.FeasibilityScore != nil {
		feasibility = *draft.FeasibilityScore
	}
	return &types.Goal{
		UserID:                userID,
		Title:                 draft.Title,
		Description:           draft.Description,
		GoalType:              draft.GoalType,
		Category:              draft.Category,
		Priority:              draft.Priority,
		TargetMetric:          draft.TargetMetric,
		TargetUnit:            draft.TargetUnit,
		MeasurableMetrics:     mustJSON(draft.MeasurableMetrics),
		CurrentLevel:          draft.CurrentLevel,
		TargetLevel:           draft.TargetLevel,
		FeasibilityScore:      feasibility,
		AdjustmentSuggestions: mustJSON(draft.AdjustmentSuggestions),
		RelevanceNote:         draft.RelevanceNote,
		StartDate:             draft.StartDate,
		Deadline:              draft.Deadline,
		DurationDays:          draft.DurationDays,
		MilestoneSchedule:     mustJSON(draft.MilestoneSchedule),
		BaselineValue:         draft.BaselineValue,
		CurrentValue:          draft.BaselineValue,
		TargetValue:           draft.TargetValue,
		Status:                types.GoalStatusActive,
	}
}
