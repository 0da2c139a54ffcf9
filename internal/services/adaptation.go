package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strivefit/strivefit-backend/internal/coach"
	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/repos"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type AdaptationType string

const (
	AdaptProgressive AdaptationType = "progressive"
	AdaptRegressive  AdaptationType = "regressive"
	AdaptMaintenance AdaptationType = "maintenance"
)

// Assessment is a recommendation only. The assessor never acts on it and
// never applies the confidence threshold; that gate belongs to the caller.
type Assessment struct {
	ShouldAdapt    bool           `json:"should_adapt"`
	AdaptationType AdaptationType `json:"adaptation_type"`
	Confidence     float64        `json:"confidence"`
	Reason         string         `json:"reason"`
}

type AdaptationService interface {
	ShouldAdapt(ctx context.Context, userID uuid.UUID) (Assessment, error)
}

type adaptationService struct {
	log      *logger.Logger
	tuning   Tuning
	plans    repos.PlanRepo
	workouts repos.WorkoutRepo
}

func NewAdaptationService(baseLog *logger.Logger, tuning Tuning, plans repos.PlanRepo, workouts repos.WorkoutRepo) AdaptationService {
	return &adaptationService{
		log:      baseLog.With("service", "AdaptationService"),
		tuning:   tuning,
		plans:    plans,
		workouts: workouts,
	}
}

func (s *adaptationService) ShouldAdapt(ctx context.Context, userID uuid.UUID) (Assessment, error) {
	if userID == uuid.Nil {
		return Assessment{}, fmt.Errorf("missing user id")
	}

	plan, err := s.plans.GetActiveForUser(ctx, nil, userID)
	if err != nil {
		return Assessment{}, fmt.Errorf("load active plan: %w", err)
	}
	if plan == nil {
		return Assessment{
			ShouldAdapt:    false,
			AdaptationType: AdaptMaintenance,
			Confidence:     0,
			Reason:         "no active plan to adapt",
		}, nil
	}

	since := time.Now().UTC().AddDate(0, 0, -s.tuning.AssessmentWindowDays)
	workouts, err := s.workouts.ListRecentByUser(ctx, nil, userID, since)
	if err != nil {
		return Assessment{}, fmt.Errorf("load recent workouts: %w", err)
	}
	loadHistory, err := s.workouts.LoadHistory(ctx, nil, userID, 28)
	if err != nil {
		return Assessment{}, fmt.Errorf("load history: %w", err)
	}
	loadReport := coach.LoadReport(loadHistory)

	ev := s.collectEvidence(workouts, loadReport)
	assessment := s.weigh(ev)
	s.log.Debug("adaptation assessed",
		"user_id", userID.String(),
		"type", string(assessment.AdaptationType),
		"confidence", assessment.Confidence,
		"reason", assessment.Reason,
	)
	return assessment, nil
}

type evidence struct {
	consecutiveMissed int
	completed         int
	total             int
	overperformed     int
	loadZone          string
}

func (s *adaptationService) collectEvidence(workouts []*types.WorkoutSession, loadReport types.LoadReport) evidence {
	ev := evidence{loadZone: loadReport.Zone}

	// Trailing missed streak, read from the most recent backwards.
	for i := len(workouts) - 1; i >= 0; i-- {
		if workouts[i].Status == types.WorkoutScheduled {
			continue
		}
		if workouts[i].Status != types.WorkoutMissed {
			break
		}
		ev.consecutiveMissed++
	}

	for _, w := range workouts {
		if w.Status == types.WorkoutScheduled {
			continue
		}
		ev.total++
		if w.Status != types.WorkoutCompleted {
			continue
		}
		ev.completed++
		if s.overperformed(w) {
			ev.overperformed++
		}
	}
	return ev
}

func (s *adaptationService) overperformed(w *types.WorkoutSession) bool {
	if w.TargetDurationMin > 0 && float64(w.ActualDurationMin) >= float64(w.TargetDurationMin)*s.tuning.OverperformRatio {
		return true
	}
	if w.TargetDistanceKm > 0 && w.ActualDistanceKm >= w.TargetDistanceKm*s.tuning.OverperformRatio {
		return true
	}
	return false
}

// weigh combines the signals: none is a hard gate, each shifts the balance
// and feeds confidence.
func (s *adaptationService) weigh(ev evidence) Assessment {
	var regressive, progressive float64
	var reasons []string

	if ev.consecutiveMissed >= s.tuning.MissedSessionThreshold {
		regressive += 40 + 5*float64(ev.consecutiveMissed-s.tuning.MissedSessionThreshold)
		reasons = append(reasons, fmt.Sprintf("%d consecutive sessions missed", ev.consecutiveMissed))
	}
	if ev.total >= 3 {
		completionRate := float64(ev.completed) / float64(ev.total)
		if completionRate < 0.5 {
			regressive += 20
			reasons = append(reasons, fmt.Sprintf("completion rate %.0f%% over recent sessions", completionRate*100))
		}
	}
	if ev.completed >= 3 {
		overShare := float64(ev.overperformed) / float64(ev.completed)
		if overShare >= s.tuning.OverperformShare {
			progressive += 45
			reasons = append(reasons, fmt.Sprintf("overperformed targets in %.0f%% of completed sessions", overShare*100))
		}
	}
	switch ev.loadZone {
	case coach.LoadZoneHigh:
		regressive += 25
		reasons = append(reasons, "acute load well above chronic baseline")
	case coach.LoadZoneElevated:
		regressive += 10
	case coach.LoadZoneUnderload:
		progressive += 15
		reasons = append(reasons, "training load below chronic baseline")
	}

	if regressive == 0 && progressive == 0 {
		return Assessment{
			ShouldAdapt:    false,
			AdaptationType: AdaptMaintenance,
			Confidence:     25,
			Reason:         "performance consistent with plan targets",
		}
	}

	adaptType := AdaptProgressive
	dominant, opposing := progressive, regressive
	if regressive > progressive {
		adaptType = AdaptRegressive
		dominant, opposing = regressive, progressive
	}

	// Conflicting evidence caps confidence: consistent signals score high,
	// mixed ones do not.
	confidence := dominant - opposing/2 + 30
	if confidence > 95 {
		confidence = 95
	}
	if confidence < 0 {
		confidence = 0
	}

	return Assessment{
		ShouldAdapt:    true,
		AdaptationType: adaptType,
		Confidence:     confidence,
		Reason:         strings.Join(reasons, "; "),
	}
}
