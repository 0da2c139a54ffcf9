package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type GoalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Goal) (*types.Goal, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status *types.GoalStatus) ([]*types.Goal, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (r *goalRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Goal) (*types.Goal, error) {
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

func (r *goalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Goal
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *goalRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Goal{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// DeleteByID is a hard delete. It is the compensation path: a goal without a
// backing plan must not persist, soft-deleted or otherwise.
func (r *goalRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&types.Goal{}).Error
}

func (r *goalRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status *types.GoalStatus) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Goal
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
