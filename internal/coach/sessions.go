package coach

import (
	"fmt"
	"math"

	"github.com/strivefit/strivefit-backend/internal/types"
)

const (
	TemplateRest            = "Rest"
	TemplateRecovery        = "Recovery"
	TemplateLongRun         = "Long Run"
	TemplateThreshold       = "Threshold"
	TemplateVO2Intervals    = "VO2_Intervals"
	TemplateDoubleThreshold = "Double_Threshold"
)

func segment(label string, minutes int, zone string, zones map[string]HRZone) types.SessionSegment {
	z := zones[zone]
	return types.SessionSegment{
		Label:           label,
		DurationMinutes: minutes,
		TargetZone:      zone,
		HRLowBPM:        z.Low,
		HRHighBPM:       z.High,
	}
}

func buildSession(template string, availabilityMinutes int, phase string, zones map[string]HRZone) types.TrainingSession {
	var s types.TrainingSession
	switch template {
	case TemplateRest:
		s = restDay()
	case TemplateLongRun:
		s = longRun(availabilityMinutes, phase, zones)
	case TemplateThreshold:
		s = thresholdRun(availabilityMinutes, phase, zones)
	case TemplateVO2Intervals:
		s = vo2Intervals(availabilityMinutes, phase, zones)
	case TemplateDoubleThreshold:
		s = doubleThreshold(availabilityMinutes, phase, zones)
	default:
		s = recoveryRun(availabilityMinutes, zones)
	}
	s.Template = template
	if s.PrimaryZone == "" {
		s.PrimaryZone = "Z1"
	}
	s.EstimatedLoad = estimateLoad(s.Segments)
	return s
}

func restDay() types.TrainingSession {
	return types.TrainingSession{
		Type:            "Rest",
		DurationMinutes: 0,
		Segments:        []types.SessionSegment{},
		PrimaryZone:     "Z1",
		Notes:           "Full rest or light 20-30 min walk if desired.",
	}
}

func recoveryRun(availabilityMinutes int, zones map[string]HRZone) types.TrainingSession {
	duration := availabilityMinutes
	if duration > 40 {
		duration = 40
	}
	if duration < 20 {
		duration = 20
	}
	return types.TrainingSession{
		Type:            "Recovery",
		DurationMinutes: duration,
		Segments: []types.SessionSegment{
			segment("Easy", duration, "Z1", zones),
		},
		PrimaryZone: "Z1",
		Notes:       "Keep cadence relaxed; nasal breathing. Optional 3-4x10s strides if feeling fresh.",
	}
}

func longRun(availabilityMinutes int, phase string, zones map[string]HRZone) types.TrainingSession {
	targetDuration := availabilityMinutes
	if targetDuration < 75 {
		targetDuration = 75
	}
	if targetDuration > 120 {
		targetDuration = 120
	}
	warmup, cooldown, surgeBlock := 10, 10, 8
	steady := targetDuration - (warmup + cooldown + surgeBlock)
	if steady < 40 {
		steady = 40
	}
	total := warmup + steady + surgeBlock + cooldown
	if total > targetDuration {
		surplus := total - targetDuration
		steady -= surplus
		if steady < 40 {
			steady = 40
		}
		total = warmup + steady + surgeBlock + cooldown
	}
	segments := []types.SessionSegment{
		segment("Warm-up", warmup, "Z1", zones),
		segment("Steady", steady, "Z2", zones),
	}
	surge := segment("Optional Surges", surgeBlock, "Z3", zones)
	surge.Notes = "4x2 min uptempo with 3 min easy jogs"
	segments = append(segments, surge)
	segments = append(segments, segment("Cool-down", cooldown, "Z1", zones))
	return types.TrainingSession{
		Type:            "Endurance",
		DurationMinutes: total,
		Segments:        segments,
		PrimaryZone:     "Z2",
		Notes:           fmt.Sprintf("Macrocycle phase: %s. Keep fueling steady; avoid racing the long run.", phase),
	}
}

func thresholdRun(availabilityMinutes int, phase string, zones map[string]HRZone) types.TrainingSession {
	reps, repDuration, recovery := 3, 10, 3
	totalMain := reps*repDuration + (reps-1)*recovery
	total := 15 + totalMain + 10
	if availabilityMinutes > 0 && total > availabilityMinutes {
		factor := float64(availabilityMinutes) / float64(total)
		repDuration = int(math.Round(float64(repDuration) * factor))
		if repDuration < 8 {
			repDuration = 8
		}
		reps--
		if reps < 2 {
			reps = 2
		}
		totalMain = reps*repDuration + (reps-1)*recovery
		total = 15 + totalMain + 10
	}
	segments := []types.SessionSegment{segment("Warm-up", 15, "Z1", zones)}
	for i := 0; i < reps; i++ {
		segments = append(segments, segment(fmt.Sprintf("Threshold rep %d", i+1), repDuration, "Z3", zones))
		if i < reps-1 {
			segments = append(segments, segment(fmt.Sprintf("Recovery jog %d", i+1), recovery, "Z1", zones))
		}
	}
	segments = append(segments, segment("Cool-down", 10, "Z1", zones))
	return types.TrainingSession{
		Type:            "Lactate Threshold",
		DurationMinutes: total,
		Segments:        segments,
		PrimaryZone:     "Z3",
		Notes:           fmt.Sprintf("Stay controlled; avoid drifting into VO2. Phase: %s.", phase),
	}
}

func vo2Intervals(availabilityMinutes int, phase string, zones map[string]HRZone) types.TrainingSession {
	reps, repDuration, recovery := 5, 3, 2
	totalMain := reps*repDuration + (reps-1)*recovery
	total := 15 + totalMain + 10
	if availabilityMinutes > 0 && total > availabilityMinutes {
		reps--
		if reps < 4 {
			reps = 4
		}
		totalMain = reps*repDuration + (reps-1)*recovery
		total = 15 + totalMain + 10
	}
	segments := []types.SessionSegment{segment("Warm-up", 15, "Z1", zones)}
	for i := 0; i < reps; i++ {
		segments = append(segments, segment(fmt.Sprintf("VO2 rep %d", i+1), repDuration, "Z4", zones))
		if i < reps-1 {
			segments = append(segments, segment(fmt.Sprintf("Recovery jog %d", i+1), recovery, "Z1", zones))
		}
	}
	segments = append(segments, segment("Cool-down", 10, "Z1", zones))
	return types.TrainingSession{
		Type:            "VO2 Max Intervals",
		DurationMinutes: total,
		Segments:        segments,
		PrimaryZone:     "Z4",
		Notes:           fmt.Sprintf("Target fast-but-controlled reps; stop early if form breaks. Phase: %s.", phase),
	}
}

func doubleThreshold(availabilityMinutes int, phase string, zones map[string]HRZone) types.TrainingSession {
	warmup, cooldown := 10, 10
	amBlock, pmBlock, easyBetween := 25, 30, 10
	plannedTotal := warmup + amBlock + easyBetween + pmBlock + cooldown
	targetTotal := availabilityMinutes
	if targetTotal > 90 || targetTotal <= 0 {
		targetTotal = 90
	}
	if plannedTotal > targetTotal {
		factor := float64(targetTotal) / float64(plannedTotal)
		amBlock = scaledMin(amBlock, factor, 15)
		pmBlock = scaledMin(pmBlock, factor, 20)
		easyBetween = scaledMin(easyBetween, factor, 5)
	}
	total := warmup + amBlock + easyBetween + pmBlock + cooldown
	return types.TrainingSession{
		Type:            "Double Threshold (conservative)",
		DurationMinutes: total,
		Segments: []types.SessionSegment{
			segment("Warm-up", warmup, "Z1", zones),
			segment("AM Tempo", amBlock, "Z3", zones),
			segment("Recovery jog", easyBetween, "Z1", zones),
			segment("PM Steady", pmBlock, "Z2", zones),
			segment("Cool-down", cooldown, "Z1", zones),
		},
		PrimaryZone: "Z3",
		Notes:       fmt.Sprintf("Keep conservative intensity; cut second block if fatigue rises. Phase: %s.", phase),
	}
}

func scaledMin(v int, factor float64, floor int) int {
	scaled := int(math.Round(float64(v) * factor))
	if scaled < floor {
		return floor
	}
	return scaled
}

// trimVolume scales the session and its segments in place, recording why.
func trimVolume(s types.TrainingSession, factor float64, adaptations *[]string, reason string) types.TrainingSession {
	s.DurationMinutes = int(math.Round(float64(s.DurationMinutes) * factor))
	if s.DurationMinutes < 0 {
		s.DurationMinutes = 0
	}
	trimmed := make([]types.SessionSegment, 0, len(s.Segments))
	for _, seg := range s.Segments {
		seg.DurationMinutes = int(math.Round(float64(seg.DurationMinutes) * factor))
		if seg.DurationMinutes < 0 {
			seg.DurationMinutes = 0
		}
		trimmed = append(trimmed, seg)
	}
	s.Segments = trimmed
	*adaptations = append(*adaptations, reason)
	return s
}

func trimToAvailability(s types.TrainingSession, available int, adaptations *[]string) types.TrainingSession {
	if s.DurationMinutes == 0 || available <= 0 {
		return s
	}
	factor := float64(available) / float64(s.DurationMinutes)
	return trimVolume(s, factor, adaptations, fmt.Sprintf("Duration capped to availability (%d min).", available))
}

func estimateLoad(segments []types.SessionSegment) float64 {
	var total float64
	for _, seg := range segments {
		factor, ok := intensityFactors[seg.TargetZone]
		if !ok {
			factor = 1.0
		}
		total += float64(seg.DurationMinutes) * factor
	}
	return math.Round(total*10) / 10
}
