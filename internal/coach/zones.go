package coach

import (
	"fmt"
	"math"
)

// HRZone is an inclusive heart-rate band in bpm.
type HRZone struct {
	Low  int
	High int
}

const (
	defaultMaxHR     = 190
	defaultRestingHR = 60
)

var zoneOrder = []string{"Z1", "Z2", "Z3", "Z4", "Z5"}

var zoneReserveBounds = map[string][2]float64{
	"Z1": {0.55, 0.72},
	"Z2": {0.72, 0.82},
	"Z3": {0.82, 0.89},
	"Z4": {0.89, 0.95},
	"Z5": {0.95, 1.00},
}

// Effort cost per minute by zone, used for session load estimates.
var intensityFactors = map[string]float64{
	"Z1": 1.0,
	"Z2": 1.3,
	"Z3": 1.6,
	"Z4": 1.9,
	"Z5": 2.3,
}

// HeartRateZones derives Karvonen zones from heart-rate reserve.
func HeartRateZones(maxHR, restingHR int) (map[string]HRZone, error) {
	if maxHR <= 0 {
		return nil, fmt.Errorf("max_hr is required to derive zones")
	}
	rhr := restingHR
	if rhr <= 0 {
		rhr = defaultRestingHR
	}
	reserve := maxHR - rhr
	if reserve < 1 {
		reserve = 1
	}
	zones := make(map[string]HRZone, len(zoneReserveBounds))
	for name, bounds := range zoneReserveBounds {
		zones[name] = HRZone{
			Low:  int(math.Round(float64(rhr) + float64(reserve)*bounds[0])),
			High: int(math.Round(float64(rhr) + float64(reserve)*bounds[1])),
		}
	}
	return zones, nil
}

func ZoneRPE(zone string) string {
	switch zone {
	case "Z1":
		return "RPE 2-3"
	case "Z2":
		return "RPE 3-4"
	case "Z3":
		return "RPE 5-6"
	case "Z4":
		return "RPE 7-8"
	case "Z5":
		return "RPE 9+"
	default:
		return ""
	}
}
