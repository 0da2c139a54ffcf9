package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkoutStatus string

const (
	WorkoutScheduled WorkoutStatus = "scheduled"
	WorkoutCompleted WorkoutStatus = "completed"
	WorkoutMissed    WorkoutStatus = "missed"
	WorkoutSkipped   WorkoutStatus = "skipped"
)

// WorkoutSession is the performance record the adaptation assessor reads:
// scheduled vs actual duration/distance, plus the load units that feed the
// acute:chronic workload ratio.
type WorkoutSession struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID *uuid.UUID `gorm:"column:plan_id;type:uuid;index" json:"plan_id,omitempty"`

	ScheduledFor time.Time     `gorm:"column:scheduled_for;not null;index" json:"scheduled_for"`
	CompletedAt  *time.Time    `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Status       WorkoutStatus `gorm:"column:status;not null;default:'scheduled'" json:"status"`
	Template     string        `gorm:"column:template" json:"template"`

	TargetDurationMin int     `gorm:"column:target_duration_min" json:"target_duration_min"`
	ActualDurationMin int     `gorm:"column:actual_duration_min" json:"actual_duration_min"`
	TargetDistanceKm  float64 `gorm:"column:target_distance_km" json:"target_distance_km"`
	ActualDistanceKm  float64 `gorm:"column:actual_distance_km" json:"actual_distance_km"`
	LoadUnits         float64 `gorm:"column:load_units" json:"load_units"`
	ReadinessScore    float64 `gorm:"column:readiness_score" json:"readiness_score"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (WorkoutSession) TableName() string { return "workout_session" }

func (w *WorkoutSession) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
