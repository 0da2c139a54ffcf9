package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GoalType string

const (
	GoalTypeTimeImprovement     GoalType = "time_improvement"
	GoalTypeDistanceAchievement GoalType = "distance_achievement"
	GoalTypeFrequency           GoalType = "frequency"
	GoalTypeRaceCompletion      GoalType = "race_completion"
	GoalTypeConsistency         GoalType = "consistency"
	GoalTypeHealth              GoalType = "health"
)

type GoalCategory string

const (
	CategorySpeed       GoalCategory = "speed"
	CategoryEndurance   GoalCategory = "endurance"
	CategoryConsistency GoalCategory = "consistency"
	CategoryHealth      GoalCategory = "health"
	CategoryStrength    GoalCategory = "strength"
)

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
)

type Goal struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title       string       `gorm:"column:title;not null" json:"title"`
	Description string       `gorm:"column:description" json:"description"`
	GoalType    GoalType     `gorm:"column:goal_type;not null" json:"goal_type"`
	Category    GoalCategory `gorm:"column:category;not null" json:"category"`
	Priority    int          `gorm:"column:priority;not null;default:2" json:"priority"`

	TargetMetric      string         `gorm:"column:target_metric;not null" json:"target_metric"`
	TargetUnit        string         `gorm:"column:target_unit" json:"target_unit"`
	MeasurableMetrics datatypes.JSON `gorm:"column:measurable_metrics;type:jsonb" json:"measurable_metrics"`

	CurrentLevel          string         `gorm:"column:current_level" json:"current_level"`
	TargetLevel           string         `gorm:"column:target_level" json:"target_level"`
	FeasibilityScore      float64        `gorm:"column:feasibility_score;not null;default:0" json:"feasibility_score"`
	AdjustmentSuggestions datatypes.JSON `gorm:"column:adjustment_suggestions;type:jsonb" json:"adjustment_suggestions,omitempty"`

	RelevanceNote string `gorm:"column:relevance_note" json:"relevance_note"`

	StartDate         time.Time      `gorm:"column:start_date;not null" json:"start_date"`
	Deadline          time.Time      `gorm:"column:deadline;not null" json:"deadline"`
	DurationDays      int            `gorm:"column:duration_days;not null" json:"duration_days"`
	MilestoneSchedule datatypes.JSON `gorm:"column:milestone_schedule;type:jsonb" json:"milestone_schedule"`

	BaselineValue   float64    `gorm:"column:baseline_value;not null" json:"baseline_value"`
	CurrentValue    float64    `gorm:"column:current_value;not null" json:"current_value"`
	TargetValue     float64    `gorm:"column:target_value;not null" json:"target_value"`
	ProgressPercent float64    `gorm:"column:progress_percent;not null;default:0" json:"progress_percent"`
	Status          GoalStatus `gorm:"column:status;not null;default:'active';index" json:"status"`
	PlanID          *uuid.UUID `gorm:"column:plan_id;type:uuid" json:"plan_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Goal) TableName() string { return "goal" }

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Descending reports whether improvement moves the metric downward
// (race times, resting heart rate). The progress formula is sign-agnostic
// but milestone crossing and trend direction need to know.
func (g *Goal) Descending() bool {
	return g.TargetValue < g.BaselineValue
}

// GoalDraft is the engine-facing creation payload. Optional fields are
// filled by auto-completion before validation so validation stays total.
type GoalDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	GoalType    GoalType     `json:"goal_type"`
	Category    GoalCategory `json:"category"`
	Priority    int          `json:"priority"`

	TargetMetric      string   `json:"target_metric"`
	TargetUnit        string   `json:"target_unit"`
	MeasurableMetrics []string `json:"measurable_metrics"`

	CurrentLevel          string   `json:"current_level"`
	TargetLevel           string   `json:"target_level"`
	FeasibilityScore      *float64 `json:"feasibility_score,omitempty"`
	AdjustmentSuggestions []string `json:"adjustment_suggestions,omitempty"`

	RelevanceNote string `json:"relevance_note"`

	StartDate         time.Time `json:"start_date"`
	Deadline          time.Time `json:"deadline"`
	DurationDays      int       `json:"duration_days"`
	MilestoneSchedule []int     `json:"milestone_schedule"`

	BaselineValue float64 `json:"baseline_value"`
	TargetValue   float64 `json:"target_value"`
}
