package coach

const (
	readinessModerateFloor = 50.0
	readinessHighFloor     = 75.0
	mastersAge             = 40
)

const (
	ReadinessLow      = "low"
	ReadinessModerate = "moderate"
	ReadinessHigh     = "high"
)

// ReadinessInputs are the athlete's daily subjective and wearable signals.
type ReadinessInputs struct {
	SleepHours   float64
	SleepQuality int // 1-10
	Soreness     int // 1-10
	Stress       int // 1-10
	MentalEnergy int // 1-10
	RestingHR    int
	HRVChangeMs  float64
	HasHRVChange bool
}

// ReadinessScore starts at 100 and applies sleep, soreness, stress, energy,
// resting-HR drift, HRV drop, load-zone and injury penalties. Returns the
// clamped score and its tier.
func ReadinessScore(in ReadinessInputs, profile UserProfile, loadZone string) (float64, string) {
	score := 100.0
	if in.SleepHours < 7.5 {
		score -= (7.5 - in.SleepHours) * 5.0
	}
	score += float64(in.SleepQuality-7) * 3.0
	score -= float64(in.Soreness-3) * 4.0
	score -= float64(in.Stress-3) * 3.0
	score += float64(in.MentalEnergy-5) * 2.5

	if in.RestingHR > 0 && profile.RestingHR > 0 {
		delta := in.RestingHR - profile.RestingHR
		if delta > 0 {
			score -= float64(delta) * 1.2
		}
	}
	if in.HasHRVChange && in.HRVChangeMs < 0 {
		score += in.HRVChangeMs * 0.6
	}

	if loadZone == LoadZoneElevated || loadZone == LoadZoneHigh {
		score -= 8
	}
	if profile.InjuryFlag {
		score -= 10
	}

	score = clamp(score, 0, 100)
	tier := ReadinessLow
	if score >= readinessHighFloor {
		tier = ReadinessHigh
	} else if score >= readinessModerateFloor {
		tier = ReadinessModerate
	}
	return score, tier
}

// RecoveryActions builds the day's recovery block from readiness tier and
// load zone, with age/level/injury additions.
func RecoveryActions(readinessTier, acwrZone string, profile UserProfile) ([]string, []string) {
	actions := []string{
		"7-9h sleep, consistent bedtime",
		"Protein with every meal; colorful carbs and healthy fats",
	}
	monitoring := []string{
		"Subjective check-in (mood/soreness)",
		"Resting HR on waking",
	}

	switch {
	case readinessTier == ReadinessLow || acwrZone == LoadZoneHigh:
		actions = append(actions,
			"Active recovery: 20-40 min easy walk/ride",
			"10-15 min mobility + light band work",
			"Early night; reduce stimulants",
		)
		monitoring = append(monitoring, "Delay intensity until readiness improves")
	case readinessTier == ReadinessModerate || acwrZone == LoadZoneElevated:
		actions = append(actions,
			"Keep intensity at or below Z2 today",
			"Add 5-10 min of post-run mobility",
			"Extra 20-30 g carbs in evening meal",
		)
	default:
		actions = append(actions,
			"Proceed with planned intensity; keep warmup thorough",
			"Short strides to maintain neuromuscular readiness",
		)
	}

	if profile.Age >= mastersAge {
		actions = append(actions, "Include extra calf/hip stability 2-3x/week; extend cooldown by 5 min")
	}
	if profile.TrainingLevel == "novice" {
		actions = append(actions, "Prefer soft surfaces; focus on relaxed form cues")
	}
	if profile.InjuryFlag {
		actions = append(actions, "Prioritize pain-free movement; skip plyometrics and downhill stress")
	}

	return actions, monitoring
}

func clamp(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
