package coach

import (
	"math"

	"github.com/strivefit/strivefit-backend/internal/types"
)

const (
	preRunCarbsEasyGPerKg       = 0.5
	preRunCarbsLongOrHardGPerKg = 1.0
	postRunProteinGPerKg        = 0.27 // within 0.25-0.30 g/kg guidance
)

var postRunCarbGPerKg = struct {
	short, medium, long float64
}{0.6, 0.8, 1.0}

type intraCarbRule struct {
	minMinutes         int
	maxMinutes         int
	carbsGPerHour      float64
	fluids             string
	electrolytesMgPerL int
}

var intraCarbRules = []intraCarbRule{
	{0, 59, 0, "Water", 300},
	{60, 89, 30, "Water + electrolytes", 400},
	{90, 180, 60, "Carb mix (glucose/fructose) + electrolytes", 500},
	{181, 300, 90, "High-carb mix + electrolytes", 600},
}

var hardTemplates = map[string]bool{
	TemplateLongRun:         true,
	TemplateThreshold:       true,
	TemplateVO2Intervals:    true,
	TemplateDoubleThreshold: true,
}

// NutritionPlan builds pre/intra/post fueling and hydration for a session.
func BuildNutrition(session types.TrainingSession, profile UserProfile) types.NutritionPlan {
	duration := float64(session.DurationMinutes)
	isLongOrHard := hardTemplates[session.Template]

	preRate := preRunCarbsEasyGPerKg
	preNotes := "Small carb snack 30-60 min pre-run."
	if isLongOrHard {
		preRate = preRunCarbsLongOrHardGPerKg
		preNotes = "Aim for low-fiber carbs 2-3h pre-run; add 500 ml fluids."
	}

	rule := intraCarbRules[0]
	for _, candidate := range intraCarbRules {
		if duration >= float64(candidate.minMinutes) && duration <= float64(candidate.maxMinutes) {
			rule = candidate
			break
		}
	}
	carbs := rule.carbsGPerHour
	if (session.PrimaryZone == "Z4" || session.PrimaryZone == "Z5") && duration >= 90 {
		carbs = math.Max(carbs, 70)
	}
	intraNotes := "Water as thirst dictates; add electrolytes in heat."
	if carbs > 0 {
		intraNotes = "Use glucose+fructose mix for >60 g/h; sip steadily every 10-15 min."
	}

	carbRate := postRunCarbGPerKg.short
	if duration >= 90 {
		carbRate = postRunCarbGPerKg.long
	} else if duration >= 46 {
		carbRate = postRunCarbGPerKg.medium
	}

	needsElectrolytes := duration >= 60 || session.PrimaryZone == "Z3" || session.PrimaryZone == "Z4" || session.PrimaryZone == "Z5"
	sodium := "Lightly salted foods suffice for short easy days."
	if needsElectrolytes {
		sodium = "400-800"
	}

	return types.NutritionPlan{
		PreRunCarbsG:       round1(profile.WeightKg * preRate),
		PreRunNotes:        preNotes,
		IntraCarbsGPerHour: carbs,
		IntraFluids:        rule.fluids,
		ElectrolytesMgPerL: rule.electrolytesMgPerL,
		IntraNotes:         intraNotes,
		PostProteinG:       round1(profile.WeightKg * postRunProteinGPerKg),
		PostCarbsG:         round1(profile.WeightKg * carbRate),
		PostNotes:          "Refuel within 60 min with carbs + 20-30 g protein; add a second carb meal if double day.",
		FluidsMlPerHour:    "500-750",
		SodiumMgPerL:       sodium,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
