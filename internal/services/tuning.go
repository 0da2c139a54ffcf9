package services

import "time"

// Tuning collects the engine's empirically chosen thresholds. The defaults
// mirror the product's observed behavior; operators override via the yaml
// tuning file or env.
type Tuning struct {
	// Trajectory classification.
	TrajectoryMarginPoints  float64 `yaml:"trajectory_margin_points"`
	AtRiskRemainingFraction float64 `yaml:"at_risk_remaining_fraction"`
	TrendWindow             int     `yaml:"trend_window"`
	TrendNoisePointsPerDay  float64 `yaml:"trend_noise_points_per_day"`

	// SMART validation.
	MinTitleLength       int     `yaml:"min_title_length"`
	FeasibilityWarnBelow float64 `yaml:"feasibility_warn_below"`

	// Adaptation assessment.
	MissedSessionThreshold        int     `yaml:"missed_session_threshold"`
	OverperformRatio              float64 `yaml:"overperform_ratio"`
	OverperformShare              float64 `yaml:"overperform_share"`
	AdaptationConfidenceThreshold float64 `yaml:"adaptation_confidence_threshold"`
	AssessmentWindowDays          int     `yaml:"assessment_window_days"`

	// Orchestration.
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
}

func DefaultTuning() Tuning {
	return Tuning{
		TrajectoryMarginPoints:        15,
		AtRiskRemainingFraction:       0.20,
		TrendWindow:                   5,
		TrendNoisePointsPerDay:        0.5,
		MinTitleLength:                4,
		FeasibilityWarnBelow:          40,
		MissedSessionThreshold:        3,
		OverperformRatio:              1.10,
		OverperformShare:              0.60,
		AdaptationConfidenceThreshold: 70,
		AssessmentWindowDays:          14,
		GenerationTimeout:             30 * time.Second,
	}
}
