package main

import (
	"testing"
)

func testModel(t *testing.T) *SpeedModel {
	t.Helper()
	m, err := newSpeedModel(DutyCurveLinear, defaultDutyMin, defaultDutyMax, defaultSpeedSyncTable(), defaultMinRevTimeMS)
	if err != nil {
		t.Fatalf("newSpeedModel failed: %v", err)
	}
	return m
}

func TestDutyFor_ZeroAndNegativeMeansOff(t *testing.T) {
	m := testModel(t)
	if d := m.DutyFor(0); d != 0 {
		t.Errorf("DutyFor(0) = %d, want 0", d)
	}
	if d := m.DutyFor(-50); d != 0 {
		t.Errorf("DutyFor(-50) = %d, want 0", d)
	}
}

func TestDutyFor_DeadZoneCompensation(t *testing.T) {
	m := testModel(t)

	// The lowest nonzero speed must already clear the dead zone.
	if d := m.DutyFor(1); d != defaultDutyMin {
		t.Errorf("DutyFor(1) = %d, want %d", d, defaultDutyMin)
	}
	if d := m.DutyFor(logicalSpeedMax); d != defaultDutyMax {
		t.Errorf("DutyFor(%d) = %d, want %d", logicalSpeedMax, d, defaultDutyMax)
	}
	// Above-range speeds clamp to full duty.
	if d := m.DutyFor(logicalSpeedMax + 500); d != defaultDutyMax {
		t.Errorf("DutyFor(%d) = %d, want %d", logicalSpeedMax+500, d, defaultDutyMax)
	}
}

func TestDutyFor_MonotonicAcrossRange(t *testing.T) {
	m := testModel(t)
	prev := 0
	for speed := 1; speed <= logicalSpeedMax; speed++ {
		d := m.DutyFor(speed)
		if d < prev {
			t.Fatalf("duty decreased at speed %d: %d -> %d", speed, prev, d)
		}
		if d < defaultDutyMin || d > defaultDutyMax {
			t.Fatalf("duty %d at speed %d outside [%d..%d]", d, speed, defaultDutyMin, defaultDutyMax)
		}
		prev = d
	}
}

func TestDutyFor_QuadraticCurve(t *testing.T) {
	m, err := newSpeedModel(DutyCurveQuadratic, defaultDutyMin, defaultDutyMax, defaultSpeedSyncTable(), defaultMinRevTimeMS)
	if err != nil {
		t.Fatalf("newSpeedModel failed: %v", err)
	}
	if d := m.DutyFor(logicalSpeedMax); d != defaultDutyMax {
		t.Errorf("quadratic DutyFor(max) = %d, want %d", d, defaultDutyMax)
	}
	// Half speed yields a quarter of the span above the dead zone.
	span := defaultDutyMax - defaultDutyMin
	want := defaultDutyMin + span/4
	got := m.DutyFor(logicalSpeedMax / 2)
	if got < want-1 || got > want+1 {
		t.Errorf("quadratic DutyFor(500) = %d, want about %d", got, want)
	}
}

func TestRevolutionTimeFor_TablePointsAndInterpolation(t *testing.T) {
	m := testModel(t)

	// Exact table points.
	if rev := m.RevolutionTimeFor(100); rev != 8000 {
		t.Errorf("RevolutionTimeFor(100) = %d, want 8000", rev)
	}
	if rev := m.RevolutionTimeFor(1000); rev != 1650 {
		t.Errorf("RevolutionTimeFor(1000) = %d, want 1650", rev)
	}

	// Midpoint of the 100->200 segment.
	if rev := m.RevolutionTimeFor(150); rev != 6800 {
		t.Errorf("RevolutionTimeFor(150) = %d, want 6800", rev)
	}
}

func TestRevolutionTimeFor_ExtrapolatesBeyondTable(t *testing.T) {
	m := testModel(t)

	// Below the table: slope of the first segment continues downward in
	// speed, so the estimate keeps growing instead of freezing at 8000.
	if rev := m.RevolutionTimeFor(50); rev != 9200 {
		t.Errorf("RevolutionTimeFor(50) = %d, want 9200", rev)
	}

	// Above the table: last segment slope is -1.5 ms per speed unit.
	if rev := m.RevolutionTimeFor(1100); rev != 1500 {
		t.Errorf("RevolutionTimeFor(1100) = %d, want 1500", rev)
	}
}

func TestRevolutionTimeFor_FloorsAtMinimum(t *testing.T) {
	m := testModel(t)
	// Extrapolating far enough would go below the floor (or negative).
	if rev := m.RevolutionTimeFor(5000); rev != defaultMinRevTimeMS {
		t.Errorf("RevolutionTimeFor(5000) = %d, want floor %d", rev, defaultMinRevTimeMS)
	}
}

func TestNewSpeedModel_RejectsBadTables(t *testing.T) {
	cases := []struct {
		name  string
		table []SpeedSyncPair
	}{
		{"too short", []SpeedSyncPair{{Speed: 100, RevTimeMS: 8000}}},
		{"unsorted", []SpeedSyncPair{{Speed: 500, RevTimeMS: 3000}, {Speed: 100, RevTimeMS: 8000}}},
		{"duplicate", []SpeedSyncPair{{Speed: 100, RevTimeMS: 8000}, {Speed: 100, RevTimeMS: 7000}}},
	}
	for _, tc := range cases {
		if _, err := newSpeedModel(DutyCurveLinear, 70, 255, tc.table, 500); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestNewSpeedModel_RejectsBadDutyRange(t *testing.T) {
	if _, err := newSpeedModel(DutyCurveLinear, 0, 255, defaultSpeedSyncTable(), 500); err == nil {
		t.Error("expected error for zero duty min")
	}
	if _, err := newSpeedModel(DutyCurveLinear, 200, 100, defaultSpeedSyncTable(), 500); err == nil {
		t.Error("expected error for inverted duty range")
	}
	if _, err := newSpeedModel("cubic", 70, 255, defaultSpeedSyncTable(), 500); err == nil {
		t.Error("expected error for unknown curve")
	}
}
