package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlanStatus string

const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusActive     PlanStatus = "active"
	PlanStatusSuperseded PlanStatus = "superseded"
)

// TrainingPlan holds one generated weekly microcycle. At most one plan per
// user is active; the orchestrator supersedes the previous one before
// activating a replacement.
type TrainingPlan struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	GoalID *uuid.UUID `gorm:"column:goal_id;type:uuid;index" json:"goal_id,omitempty"`

	Status     PlanStatus     `gorm:"column:status;not null;default:'draft';index" json:"status"`
	Version    int            `gorm:"column:version;not null;default:1" json:"version"`
	FocusEvent string         `gorm:"column:focus_event" json:"focus_event"`
	Phase      string         `gorm:"column:phase" json:"phase"`
	Days       datatypes.JSON `gorm:"column:days;type:jsonb" json:"days"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TrainingPlan) TableName() string { return "training_plan" }

func (p *TrainingPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PlanDay and its children are the generator's output, stored serialized in
// TrainingPlan.Days.
type PlanDay struct {
	DayIndex          int              `json:"day_index"`
	DayName           string           `json:"day_name"`
	TemplateRequested string           `json:"template_requested"`
	TemplateFinal     string           `json:"template_final"`
	Session           TrainingSession  `json:"training_session"`
	Nutrition         NutritionPlan    `json:"nutrition"`
	Recovery          RecoveryProtocol `json:"recovery"`
	LoadRisk          LoadReport       `json:"load_risk"`
	ReadinessScore    float64          `json:"readiness_score"`
	ReadinessTier     string           `json:"readiness_tier"`
	Adaptations       []string         `json:"adaptations"`
}

type TrainingSession struct {
	Type            string           `json:"type"`
	DurationMinutes int              `json:"duration_minutes"`
	Segments        []SessionSegment `json:"segments"`
	PrimaryZone     string           `json:"primary_zone"`
	Template        string           `json:"template"`
	EstimatedLoad   float64          `json:"estimated_load"`
	Notes           string           `json:"notes"`
}

type SessionSegment struct {
	Label           string `json:"label"`
	DurationMinutes int    `json:"duration_minutes"`
	TargetZone      string `json:"target_zone"`
	HRLowBPM        int    `json:"hr_low_bpm"`
	HRHighBPM       int    `json:"hr_high_bpm"`
	Notes           string `json:"notes,omitempty"`
}

type NutritionPlan struct {
	PreRunCarbsG       float64 `json:"pre_run_carbs_g"`
	PreRunNotes        string  `json:"pre_run_notes"`
	IntraCarbsGPerHour float64 `json:"intra_carbs_g_per_hour"`
	IntraFluids        string  `json:"intra_fluids"`
	ElectrolytesMgPerL int     `json:"electrolytes_mg_per_l"`
	IntraNotes         string  `json:"intra_notes"`
	PostProteinG       float64 `json:"post_protein_g"`
	PostCarbsG         float64 `json:"post_carbs_g"`
	PostNotes          string  `json:"post_notes"`
	FluidsMlPerHour    string  `json:"fluids_ml_per_hour"`
	SodiumMgPerL       string  `json:"sodium_mg_per_l"`
}

type RecoveryProtocol struct {
	Actions    []string `json:"actions"`
	Monitoring []string `json:"monitoring"`
}

type LoadReport struct {
	AcuteLoad      float64 `json:"acute_load"`
	ChronicLoad    float64 `json:"chronic_load"`
	ACWR           float64 `json:"acwr"`
	Zone           string  `json:"zone"`
	Recommendation string  `json:"recommendation"`
}
