package coach

import "testing"

func TestHeartRateZonesKarvonen(t *testing.T) {
	zones, err := HeartRateZones(190, 60)
	if err != nil {
		t.Fatalf("derive zones: %v", err)
	}

	// Reserve 130: Z2 spans 72-82% of reserve above resting.
	z2 := zones["Z2"]
	if z2.Low != 154 || z2.High != 167 {
		t.Fatalf("Z2: want=154-167 got=%d-%d", z2.Low, z2.High)
	}
	z5 := zones["Z5"]
	if z5.High != 190 {
		t.Fatalf("Z5 high: want=190 got=%d", z5.High)
	}
	if len(zones) != 5 {
		t.Fatalf("zones: want=5 got=%d", len(zones))
	}
}

func TestHeartRateZonesDefaultsRestingHR(t *testing.T) {
	withDefault, err := HeartRateZones(190, 0)
	if err != nil {
		t.Fatalf("derive zones: %v", err)
	}
	explicit, _ := HeartRateZones(190, 60)
	if withDefault["Z3"] != explicit["Z3"] {
		t.Fatalf("default resting HR: want=%+v got=%+v", explicit["Z3"], withDefault["Z3"])
	}
}

func TestHeartRateZonesRequiresMaxHR(t *testing.T) {
	if _, err := HeartRateZones(0, 60); err == nil {
		t.Fatal("expected error without max HR")
	}
}

func TestZonesAreContiguous(t *testing.T) {
	zones, err := HeartRateZones(185, 55)
	if err != nil {
		t.Fatalf("derive zones: %v", err)
	}
	for i := 1; i < len(zoneOrder); i++ {
		prev, cur := zones[zoneOrder[i-1]], zones[zoneOrder[i]]
		if cur.Low != prev.High {
			t.Fatalf("%s/%s boundary: %d != %d", zoneOrder[i-1], zoneOrder[i], prev.High, cur.Low)
		}
	}
}
