package services

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

// Verdict is the SMART validation result. Errors block goal creation;
// warnings and suggestions ride along in the response payload.
type Verdict struct {
	IsValid      bool     `json:"is_valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	Suggestions  []string `json:"suggestions"`
	SmartScore   float64  `json:"smart_score"`
	Completeness float64  `json:"completeness"`
}

type SmartService interface {
	// AutoComplete fills reasonable defaults for absent optional fields so
	// Validate stays pure and total.
	AutoComplete(draft types.GoalDraft) types.GoalDraft
	Validate(draft types.GoalDraft, now time.Time) Verdict
}

type smartService struct {
	log    *logger.Logger
	tuning Tuning
}

func NewSmartService(baseLog *logger.Logger, tuning Tuning) SmartService {
	return &smartService{log: baseLog.With("service", "SmartService"), tuning: tuning}
}

var defaultMilestoneSchedule = []int{25, 50, 75}

var defaultMetricsByType = map[types.GoalType][]string{
	types.GoalTypeTimeImprovement:     {"pace_min_per_km", "race_time_minutes"},
	types.GoalTypeDistanceAchievement: {"distance_km", "weekly_distance_km"},
	types.GoalTypeFrequency:           {"sessions_per_week"},
	types.GoalTypeRaceCompletion:      {"distance_km", "race_time_minutes"},
	types.GoalTypeConsistency:         {"sessions_per_week", "streak_days"},
	types.GoalTypeHealth:              {"resting_hr_bpm", "weight_kg"},
}

// Goal types whose progress is meaningless without a tracked metric list.
var metricsRequiredByType = map[types.GoalType]bool{
	types.GoalTypeTimeImprovement:     true,
	types.GoalTypeDistanceAchievement: true,
	types.GoalTypeFrequency:           true,
	types.GoalTypeConsistency:         true,
}

func (s *smartService) AutoComplete(draft types.GoalDraft) types.GoalDraft {
	if len(draft.MilestoneSchedule) == 0 {
		draft.MilestoneSchedule = append([]int{}, defaultMilestoneSchedule...)
	}
	if len(draft.MeasurableMetrics) == 0 {
		if defaults, ok := defaultMetricsByType[draft.GoalType]; ok {
			draft.MeasurableMetrics = append([]string{}, defaults...)
		}
	}
	if draft.StartDate.IsZero() {
		draft.StartDate = time.Now().UTC()
	}
	if draft.DurationDays <= 0 && draft.Deadline.After(draft.StartDate) {
		draft.DurationDays = int(draft.Deadline.Sub(draft.StartDate).Hours() / 24)
	}
	if draft.Deadline.IsZero() && draft.DurationDays > 0 {
		draft.Deadline = draft.StartDate.AddDate(0, 0, draft.DurationDays)
	}
	if draft.Priority < 1 || draft.Priority > 3 {
		draft.Priority = 2
	}
	if draft.FeasibilityScore == nil {
		f := estimateFeasibility(draft.BaselineValue, draft.TargetValue)
		draft.FeasibilityScore = &f
	}
	return draft
}

// estimateFeasibility scores the relative size of the jump from baseline to
// target: the bigger the relative change, the lower the score.
func estimateFeasibility(baseline, target float64) float64 {
	base := baseline
	if base < 0 {
		base = -base
	}
	if base < 1 {
		base = 1
	}
	change := target - baseline
	if change < 0 {
		change = -change
	}
	score := 100 - (change/base)*60
	if score < 10 {
		score = 10
	}
	if score > 95 {
		score = 95
	}
	return score
}

func (s *smartService) Validate(draft types.GoalDraft, now time.Time) Verdict {
	v := Verdict{
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
	}

	// Blocking errors.
	if utf8.RuneCountInString(draft.Title) < s.tuning.MinTitleLength {
		v.Errors = append(v.Errors, fmt.Sprintf("title must be at least %d characters", s.tuning.MinTitleLength))
	}
	if draft.TargetValue == 0 {
		v.Errors = append(v.Errors, "target value must be non-zero")
	}
	if draft.TargetValue == draft.BaselineValue {
		v.Errors = append(v.Errors, "target value must differ from baseline, progress would be undefined")
	}
	if !draft.Deadline.After(now) {
		v.Errors = append(v.Errors, "deadline must be in the future")
		v.Suggestions = append(v.Suggestions, "adjust your timeline: pick a deadline after today")
	}
	if draft.DurationDays <= 0 {
		v.Errors = append(v.Errors, "goal duration must be positive")
	}
	if metricsRequiredByType[draft.GoalType] && len(draft.MeasurableMetrics) == 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("goal type %q requires at least one measurable metric", draft.GoalType))
	}

	// Non-blocking warnings.
	feasibility := 0.0
	if draft.FeasibilityScore != nil {
		feasibility = *draft.FeasibilityScore
	}
	if draft.FeasibilityScore != nil && feasibility < s.tuning.FeasibilityWarnBelow {
		v.Warnings = append(v.Warnings, fmt.Sprintf("feasibility score %.0f is low, consider a smaller target", feasibility))
		v.Suggestions = append(v.Suggestions, "split the goal into a nearer intermediate target")
	}
	if len(draft.MilestoneSchedule) == 0 {
		v.Warnings = append(v.Warnings, "no milestone schedule set")
		v.Suggestions = append(v.Suggestions, "add milestones at 25/50/75% to track intermediate progress")
	}
	if draft.RelevanceNote == "" {
		v.Warnings = append(v.Warnings, "no relevance note: say why this goal matters to you")
	}

	v.SmartScore = s.smartScore(draft, now, feasibility)
	v.Completeness = completeness(draft)
	v.IsValid = len(v.Errors) == 0
	return v
}

// smartScore weighs the five SMART dimensions at 20 points each, with
// partial credit inside a dimension.
func (s *smartService) smartScore(draft types.GoalDraft, now time.Time, feasibility float64) float64 {
	score := 0.0

	// Specific: concrete metric and unit.
	if draft.TargetMetric != "" {
		score += 10
	}
	if draft.TargetUnit != "" {
		score += 10
	}

	// Measurable: tracked metric list.
	if len(draft.MeasurableMetrics) >= 1 {
		score += 10
	}
	if len(draft.MeasurableMetrics) >= 2 {
		score += 10
	}

	// Achievable: feasibility assessed, and assessed as plausible.
	if draft.FeasibilityScore != nil {
		score += 10
		if feasibility >= s.tuning.FeasibilityWarnBelow {
			score += 10
		}
	}

	// Relevant: narrative context.
	if draft.RelevanceNote != "" {
		score += 20
	} else if draft.Description != "" {
		score += 10
	}

	// Time-bound: future deadline and a duration consistent with it.
	if draft.Deadline.After(now) {
		score += 10
		if draft.DurationDays > 0 && durationMatchesDates(draft) {
			score += 10
		}
	}

	return score
}

func durationMatchesDates(draft types.GoalDraft) bool {
	if draft.StartDate.IsZero() || draft.Deadline.IsZero() {
		return false
	}
	implied := draft.Deadline.Sub(draft.StartDate).Hours() / 24
	diff := implied - float64(draft.DurationDays)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1.5
}

func completeness(draft types.GoalDraft) float64 {
	filled, total := 0, 7
	if draft.Description != "" {
		filled++
	}
	if draft.TargetUnit != "" {
		filled++
	}
	if len(draft.MeasurableMetrics) > 0 {
		filled++
	}
	if draft.FeasibilityScore != nil {
		filled++
	}
	if draft.RelevanceNote != "" {
		filled++
	}
	if len(draft.MilestoneSchedule) > 0 {
		filled++
	}
	if draft.CurrentLevel != "" && draft.TargetLevel != "" {
		filled++
	}
	return float64(filled) / float64(total) * 100
}
