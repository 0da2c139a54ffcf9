package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type MeasurementRepo interface {
	Append(ctx context.Context, tx *gorm.DB, row *types.ProgressMeasurement) (*types.ProgressMeasurement, error)
	ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.ProgressMeasurement, error)
	DeleteByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error
}

type measurementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasurementRepo(db *gorm.DB, baseLog *logger.Logger) MeasurementRepo {
	return &measurementRepo{db: db, log: baseLog.With("repo", "MeasurementRepo")}
}

func (r *measurementRepo) Append(ctx context.Context, tx *gorm.DB, row *types.ProgressMeasurement) (*types.ProgressMeasurement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListByGoal returns measurements ordered by measurement date ascending,
// which is the order trend analysis expects.
func (r *measurementRepo) ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.ProgressMeasurement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProgressMeasurement
	if goalID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("measured_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *measurementRepo) DeleteByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if goalID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Delete(&types.ProgressMeasurement{}).Error
}
