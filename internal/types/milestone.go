package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MilestoneStatus string

const (
	MilestonePending  MilestoneStatus = "pending"
	MilestoneAchieved MilestoneStatus = "achieved"
	MilestoneMissed   MilestoneStatus = "missed"
)

type Milestone struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID uuid.UUID `gorm:"type:uuid;not null;index" json:"goal_id"`
	Goal   *Goal     `gorm:"constraint:OnDelete:CASCADE;foreignKey:GoalID;references:ID" json:"goal,omitempty"`

	Percent     int             `gorm:"column:percent;not null" json:"percent"`
	TargetValue float64         `gorm:"column:target_value;not null" json:"target_value"`
	Status      MilestoneStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	AchievedAt  *time.Time      `gorm:"column:achieved_at" json:"achieved_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Milestone) TableName() string { return "milestone" }

func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
