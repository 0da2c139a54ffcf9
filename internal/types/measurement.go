package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeasurementSource string

const (
	SourceManual    MeasurementSource = "manual"
	SourceAutomatic MeasurementSource = "automatic"
)

// ProgressMeasurement is append-only: rows are never mutated after creation.
type ProgressMeasurement struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID uuid.UUID `gorm:"type:uuid;not null;index" json:"goal_id"`
	Goal   *Goal     `gorm:"constraint:OnDelete:CASCADE;foreignKey:GoalID;references:ID" json:"goal,omitempty"`

	MeasuredAt      time.Time         `gorm:"column:measured_at;not null;index" json:"measured_at"`
	Value           float64           `gorm:"column:value;not null" json:"value"`
	ProgressPercent float64           `gorm:"column:progress_percent;not null" json:"progress_percent"`
	WorkoutID       *uuid.UUID        `gorm:"column:workout_id;type:uuid" json:"workout_id,omitempty"`
	Source          MeasurementSource `gorm:"column:source;not null;default:'manual'" json:"source"`
	Note            string            `gorm:"column:note" json:"note"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ProgressMeasurement) TableName() string { return "progress_measurement" }

func (m *ProgressMeasurement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
