package coach

import (
	"math"

	"github.com/strivefit/strivefit-backend/internal/types"
)

// ACWR band edges. Acute = trailing 7-day mean, chronic = trailing 28-day
// mean; the 0.8-1.3 band is the conventional sweet spot.
const (
	acwrUnder        = 0.8
	acwrOptimalHigh  = 1.3
	acwrElevatedHigh = 1.5
)

const (
	LoadZoneUnderload = "underload"
	LoadZoneOptimal   = "optimal"
	LoadZoneElevated  = "elevated"
	LoadZoneHigh      = "high"
)

func acuteChronic(loadHistory []float64) (float64, float64) {
	if len(loadHistory) == 0 {
		return 0, 0
	}
	acuteWindow := loadHistory
	if len(loadHistory) > 7 {
		acuteWindow = loadHistory[len(loadHistory)-7:]
	}
	chronicWindow := loadHistory
	if len(loadHistory) > 28 {
		chronicWindow = loadHistory[len(loadHistory)-28:]
	}
	return mean(acuteWindow), mean(chronicWindow)
}

func computeACWR(acute, chronic float64) float64 {
	if chronic <= 0 {
		if acute > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return acute / chronic
}

func classifyACWR(acwr float64) string {
	switch {
	case acwr < acwrUnder:
		return LoadZoneUnderload
	case acwr <= acwrOptimalHigh:
		return LoadZoneOptimal
	case acwr <= acwrElevatedHigh:
		return LoadZoneElevated
	default:
		return LoadZoneHigh
	}
}

// LoadReport summarizes recent training stress and the acute:chronic ratio.
func LoadReport(loadHistory []float64) types.LoadReport {
	acute, chronic := acuteChronic(loadHistory)
	acwr := computeACWR(acute, chronic)
	zone := classifyACWR(acwr)

	recommendation := "Maintain progressive overload."
	switch zone {
	case LoadZoneUnderload:
		recommendation = "Increase load gradually (5-10%) to avoid detraining."
	case LoadZoneElevated:
		recommendation = "Hold or slightly reduce load; avoid stacking hard days."
	case LoadZoneHigh:
		recommendation = "Prioritize recovery; cap intensity until ACWR is back in range."
	}

	reported := acwr
	if !math.IsInf(acwr, 1) {
		reported = round2(acwr)
	}
	return types.LoadReport{
		AcuteLoad:      round2(acute),
		ChronicLoad:    round2(chronic),
		ACWR:           reported,
		Zone:           zone,
		Recommendation: recommendation,
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
