package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type MilestoneRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Milestone) ([]*types.Milestone, error)
	ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Milestone, error)
	MarkAchieved(ctx context.Context, tx *gorm.DB, id uuid.UUID, achievedAt time.Time) error
	MarkMissed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error
}

type milestoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneRepo {
	return &milestoneRepo{db: db, log: baseLog.With("repo", "MilestoneRepo")}
}

func (r *milestoneRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Milestone) ([]*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Milestone{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByGoal returns milestones in ascending target-percent order, the
// order the achievement scan expects.
func (r *milestoneRepo) ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Milestone, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Milestone
	if goalID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("percent ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkAchieved transitions pending->achieved only; re-marking an achieved
// milestone is a no-op at the row level, which keeps the tracker idempotent
// under races.
func (r *milestoneRepo) MarkAchieved(ctx context.Context, tx *gorm.DB, id uuid.UUID, achievedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Milestone{}).
		Where("id = ? AND status = ?", id, types.MilestonePending).
		Updates(map[string]interface{}{
			"status":      types.MilestoneAchieved,
			"achieved_at": achievedAt,
		}).Error
}

func (r *milestoneRepo) MarkMissed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Milestone{}).
		Where("id = ? AND status = ?", id, types.MilestonePending).
		Update("status", types.MilestoneMissed).Error
}

func (r *milestoneRepo) DeleteByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if goalID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Delete(&types.Milestone{}).Error
}
