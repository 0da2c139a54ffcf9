package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type PlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlan) (*types.TrainingPlan, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TrainingPlan, error)
	GetActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.TrainingPlan, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SupersedeActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlan) (*types.TrainingPlan, error) {
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

func (r *planRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TrainingPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.TrainingPlan
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

func (r *planRepo) GetActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.TrainingPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.TrainingPlan
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.PlanStatusActive).
		Order("version DESC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *planRepo) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.TrainingPlan{}).
		Where("id = ?", id).
		Update("status", types.PlanStatusActive).Error
}

func (r *planRepo) SupersedeActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.TrainingPlan{}).
		Where("user_id = ? AND status = ?", userID, types.PlanStatusActive).
		Update("status", types.PlanStatusSuperseded).Error
}

func (r *planRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
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
		Delete(&types.TrainingPlan{}).Error
}
