package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type WorkoutRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.WorkoutSession) (*types.WorkoutSession, error)
	ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.WorkoutSession, error)
	LoadHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, days int) ([]float64, error)
}

type workoutRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkoutRepo(db *gorm.DB, baseLog *logger.Logger) WorkoutRepo {
	return &workoutRepo{db: db, log: baseLog.With("repo", "WorkoutRepo")}
}

func (r *workoutRepo) Create(ctx context.Context, tx *gorm.DB, row *types.WorkoutSession) (*types.WorkoutSession, error) {
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

// ListRecentByUser returns sessions scheduled since the cutoff, oldest
// first, so streak scans read in calendar order.
func (r *workoutRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.WorkoutSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.WorkoutSession
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND scheduled_for >= ?", userID, since).
		Order("scheduled_for ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// LoadHistory returns per-day completed load units for the trailing window,
// zero-filled for days without a completed session. Day buckets are UTC.
func (r *workoutRepo) LoadHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, days int) ([]float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || days <= 0 {
		return nil, nil
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	var rows []*types.WorkoutSession
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ? AND scheduled_for >= ?", userID, types.WorkoutCompleted, since).
		Order("scheduled_for ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	history := make([]float64, days)
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	for _, w := range rows {
		idx := int(w.ScheduledFor.UTC().Truncate(24 * time.Hour).Sub(start).Hours() / 24)
		if idx >= 0 && idx < days {
			history[idx] += w.LoadUnits
		}
	}
	return history, nil
}
