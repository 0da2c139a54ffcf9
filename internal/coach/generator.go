package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

// UserProfile carries the athlete attributes the generator needs. The user
// entity itself lives outside this engine; callers fill what they know and
// the generator defaults the rest.
type UserProfile struct {
	Age           int
	WeightKg      float64
	MaxHR         int
	RestingHR     int
	TrainingLevel string // novice | intermediate | advanced
	InjuryFlag    bool
}

// GoalContext is everything the generator reads for one plan.
type GoalContext struct {
	Goal                *types.Goal
	Profile             UserProfile
	LoadHistory         []float64 // trailing daily load units, oldest first
	Readiness           ReadinessInputs
	HasReadiness        bool
	AvailabilityMinutes int // per-day budget; 0 means unconstrained
}

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Weekly template rotations by goal category. Hard days alternate with
// recovery; consistency/health rotations stay aerobic.
var weeklyRotations = map[types.GoalCategory][]string{
	types.CategorySpeed:       {TemplateRest, TemplateVO2Intervals, TemplateRecovery, TemplateThreshold, TemplateRecovery, TemplateLongRun, TemplateRecovery},
	types.CategoryEndurance:   {TemplateRest, TemplateThreshold, TemplateRecovery, TemplateDoubleThreshold, TemplateRecovery, TemplateLongRun, TemplateRecovery},
	types.CategoryConsistency: {TemplateRest, TemplateRecovery, TemplateRecovery, TemplateThreshold, TemplateRecovery, TemplateLongRun, TemplateRecovery},
	types.CategoryHealth:      {TemplateRest, TemplateRecovery, TemplateRest, TemplateRecovery, TemplateRecovery, TemplateLongRun, TemplateRecovery},
	types.CategoryStrength:    {TemplateRest, TemplateThreshold, TemplateRecovery, TemplateVO2Intervals, TemplateRecovery, TemplateLongRun, TemplateRecovery},
}

type Generator struct {
	log *logger.Logger
}

func NewGenerator(baseLog *logger.Logger) *Generator {
	return &Generator{log: baseLog.With("service", "PlanGenerator")}
}

// GeneratePlan builds one weekly microcycle for the goal. A nil plan with a
// nil error means the generator cannot produce a usable plan for this goal;
// that is an answer, not a fault.
func (g *Generator) GeneratePlan(ctx context.Context, userID uuid.UUID, gctx GoalContext) (*types.TrainingPlan, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	goal := gctx.Goal
	if goal == nil {
		return nil, nil
	}
	if strings.TrimSpace(goal.TargetMetric) == "" {
		g.log.Info("no target metric on goal, declining to generate", "goal_id", goal.ID.String())
		return nil, nil
	}
	rotation, ok := weeklyRotations[goal.Category]
	if !ok {
		g.log.Info("no rotation for category, declining to generate", "category", string(goal.Category))
		return nil, nil
	}

	profile := gctx.Profile
	adaptations := []string{}
	if profile.MaxHR <= 0 {
		adaptations = append(adaptations, "Missing max_hr; defaulting to 190 bpm for zone calc.")
		profile.MaxHR = defaultMaxHR
	}
	if profile.WeightKg <= 0 {
		profile.WeightKg = 70
	}
	zones, err := HeartRateZones(profile.MaxHR, profile.RestingHR)
	if err != nil {
		return nil, fmt.Errorf("derive zones: %w", err)
	}

	phase := phaseForDeadline(goal.Deadline)
	loadRisk := LoadReport(gctx.LoadHistory)

	readiness := gctx.Readiness
	if !gctx.HasReadiness {
		// Neutral mid-scale inputs when the athlete logged nothing today.
		readiness = ReadinessInputs{SleepHours: 7.5, SleepQuality: 7, Soreness: 3, Stress: 3, MentalEnergy: 5}
	}
	readinessScore, readinessTier := ReadinessScore(readiness, profile, loadRisk.Zone)

	days := make([]types.PlanDay, 0, len(rotation))
	for i, requested := range rotation {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dayAdaptations := append([]string{}, adaptations...)
		final := adaptTemplate(requested, readinessTier, loadRisk.Zone, profile, &dayAdaptations)

		session := buildSession(final, gctx.AvailabilityMinutes, phase, zones)
		if readinessTier == ReadinessModerate && final != TemplateRest && final != TemplateRecovery {
			session = trimVolume(session, 0.85, &dayAdaptations, "Moderate readiness; trimmed volume by 15%.")
		}
		if gctx.AvailabilityMinutes > 0 && session.DurationMinutes > gctx.AvailabilityMinutes {
			session = trimToAvailability(session, gctx.AvailabilityMinutes, &dayAdaptations)
		}
		session.EstimatedLoad = estimateLoad(session.Segments)

		days = append(days, types.PlanDay{
			DayIndex:          i,
			DayName:           dayNames[i%len(dayNames)],
			TemplateRequested: requested,
			TemplateFinal:     final,
			Session:           session,
			Nutrition:         BuildNutrition(session, profile),
			Recovery:          buildRecovery(readinessTier, loadRisk.Zone, profile),
			LoadRisk:          loadRisk,
			ReadinessScore:    round1(readinessScore),
			ReadinessTier:     readinessTier,
			Adaptations:       dayAdaptations,
		})
	}

	raw, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("marshal plan days: %w", err)
	}
	goalID := goal.ID
	return &types.TrainingPlan{
		UserID:     userID,
		GoalID:     &goalID,
		Status:     types.PlanStatusDraft,
		Version:    1,
		FocusEvent: goal.Title,
		Phase:      phase,
		Days:       datatypes.JSON(raw),
	}, nil
}

// adaptTemplate applies the downgrade chain: injury first, then low
// readiness (with high ACWR forcing full rest), then ACWR alone.
func adaptTemplate(template, readinessTier, acwrZone string, profile UserProfile, adaptations *[]string) string {
	adjusted := template
	if profile.InjuryFlag && template != TemplateRest && template != TemplateRecovery {
		adjusted = TemplateRecovery
		*adaptations = append(*adaptations, "Injury flag set; downgrading to Recovery.")
	}

	switch {
	case readinessTier == ReadinessLow:
		if template != TemplateRest && template != TemplateRecovery {
			adjusted = TemplateRecovery
			*adaptations = append(*adaptations, "Low readiness detected; replaced hard session with Recovery.")
		}
		if acwrZone == LoadZoneHigh {
			adjusted = TemplateRest
			*adaptations = append(*adaptations, "High ACWR + low readiness; prescribing Rest.")
		}
	case acwrZone == LoadZoneHigh:
		if template == TemplateVO2Intervals || template == TemplateDoubleThreshold {
			adjusted = TemplateThreshold
			*adaptations = append(*adaptations, "High ACWR; downgrading from very hard to Threshold.")
		}
	case acwrZone == LoadZoneElevated:
		if template == TemplateVO2Intervals || template == TemplateDoubleThreshold {
			adjusted = TemplateThreshold
			*adaptations = append(*adaptations, "Elevated ACWR; shifting to Threshold focus.")
		}
	}
	return adjusted
}

func buildRecovery(readinessTier, acwrZone string, profile UserProfile) types.RecoveryProtocol {
	actions, monitoring := RecoveryActions(readinessTier, acwrZone, profile)
	return types.RecoveryProtocol{Actions: actions, Monitoring: monitoring}
}

func phaseForDeadline(deadline time.Time) string {
	weeks := int(time.Until(deadline).Hours() / (24 * 7))
	switch {
	case weeks <= 1:
		return "taper"
	case weeks <= 3:
		return "peak"
	case weeks <= 8:
		return "build"
	default:
		return "base"
	}
}
