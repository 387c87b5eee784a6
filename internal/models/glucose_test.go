package models

import (
	"testing"
	"time"
)

func reading(value float64, at time.Time) GlucoseReading {
	return GlucoseReading{
		PatientID:       "p1",
		ReadingType:     ReadingRandom,
		GlucoseValue:    value,
		ReadingDatetime: NewTimestamp(at),
	}
}

func TestGlucoseReading_ValueMmolL(t *testing.T) {
	tests := []struct {
		name     string
		mgdl     float64
		expected float64
	}{
		{"100 mg/dL", 100, 5.55},
		{"180 mg/dL", 180, 9.99},
		{"70 mg/dL", 70, 3.89},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &GlucoseReading{GlucoseValue: tt.mgdl}
			result := r.ValueMmolL()
			if result < tt.expected-0.1 || result > tt.expected+0.1 {
				t.Errorf("ValueMmolL() = %f, want approximately %f", result, tt.expected)
			}
		})
	}
}

func TestGlucoseReading_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		reading GlucoseReading
		wantErr bool
	}{
		{"valid", reading(120, now), false},
		{"too high", reading(601, now), true},
		{"zero", reading(0, now), true},
		{"missing time", reading(120, time.Time{}), true},
		{"bad type", GlucoseReading{PatientID: "p1", ReadingType: "lunch", GlucoseValue: 100, ReadingDatetime: NewTimestamp(now)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reading.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLatestStatus(t *testing.T) {
	settings := DefaultSettings()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	readings := []GlucoseReading{
		reading(260, now.Add(-10*time.Minute)),
		reading(150, now.Add(-40*time.Minute)),
	}

	status, ok := LatestStatus(readings, settings, now)
	if !ok {
		t.Fatal("LatestStatus() ok = false, want true")
	}
	if status.Value != 260 {
		t.Errorf("Value = %v, want 260", status.Value)
	}
	if status.Delta != 110 {
		t.Errorf("Delta = %v, want 110", status.Delta)
	}
	if status.Status != GlucoseUrgentHigh {
		t.Errorf("Status = %s, want urgent_high", status.Status)
	}
	if status.StaleMinutes != 10 {
		t.Errorf("StaleMinutes = %d, want 10", status.StaleMinutes)
	}

	if _, ok := LatestStatus(nil, settings, now); ok {
		t.Error("LatestStatus(nil) ok = true, want false")
	}
}

func TestBuildChart_MmolL(t *testing.T) {
	settings := DefaultSettings()
	settings.Unit = UnitMmolL
	now := time.Now()

	chart := BuildChart([]GlucoseReading{
		reading(180, now),
		reading(90, now.Add(-time.Hour)),
	}, settings)

	if len(chart.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(chart.Entries))
	}
	if chart.Entries[0].ValueMg != 90 {
		t.Errorf("first entry = %v, want oldest reading 90", chart.Entries[0].ValueMg)
	}
	if chart.Entries[1].Value > 10.1 || chart.Entries[1].Value < 9.9 {
		t.Errorf("mmol value = %v, want about 10", chart.Entries[1].Value)
	}
	if chart.Unit != UnitMmolL {
		t.Errorf("Unit = %s, want mmol/L", chart.Unit)
	}
}
