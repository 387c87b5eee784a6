package models

import (
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.Unit != UnitMgDL {
		t.Errorf("Default unit = %s, want mg/dL", settings.Unit)
	}
	if settings.DefaultAppointmentMinutes != 30 {
		t.Errorf("Default appointment minutes = %d, want 30", settings.DefaultAppointmentMinutes)
	}
	if settings.TargetLow != 70 {
		t.Errorf("Default target low = %d, want 70", settings.TargetLow)
	}
	if settings.TargetHigh != 180 {
		t.Errorf("Default target high = %d, want 180", settings.TargetHigh)
	}
	if settings.UrgentLow != 55 {
		t.Errorf("Default urgent low = %d, want 55", settings.UrgentLow)
	}
	if settings.UrgentHigh != 250 {
		t.Errorf("Default urgent high = %d, want 250", settings.UrgentHigh)
	}
}

func TestSettings_GetGlucoseStatus(t *testing.T) {
	settings := DefaultSettings()

	tests := []struct {
		name     string
		mgdl     float64
		expected string
	}{
		{"Urgent low", 50, GlucoseUrgentLow},
		{"Low", 60, GlucoseLow},
		{"Normal low boundary", 70, GlucoseLow},
		{"Normal", 120, GlucoseNormal},
		{"Normal high boundary", 180, GlucoseHigh},
		{"High", 200, GlucoseHigh},
		{"Urgent high", 260, GlucoseUrgentHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := settings.GetGlucoseStatus(tt.mgdl)
			if result != tt.expected {
				t.Errorf("GetGlucoseStatus(%v) = %s, want %s", tt.mgdl, result, tt.expected)
			}
		})
	}
}

func TestSettings_Clone(t *testing.T) {
	original := DefaultSettings()
	original.APIURL = "https://clinic.example.com"

	clone := original.Clone()

	if clone.APIURL != original.APIURL {
		t.Error("Clone did not copy APIURL")
	}

	clone.APIURL = "https://modified.example.com"
	if original.APIURL == clone.APIURL {
		t.Error("Modifying clone affected original")
	}
}

func TestSettings_ResolveAPIURL(t *testing.T) {
	settings := DefaultSettings()

	if got := settings.ResolveAPIURL("http://localhost:8000"); got != "http://localhost:8000" {
		t.Errorf("ResolveAPIURL() = %s, want fallback", got)
	}

	settings.APIURL = "https://clinic.example.com"
	if got := settings.ResolveAPIURL("http://localhost:8000"); got != "https://clinic.example.com" {
		t.Errorf("ResolveAPIURL() = %s, want override", got)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	t.Setenv("DASHBOARD_CONFIG_DIR", t.TempDir())

	settings := DefaultSettings()
	settings.Unit = UnitMmolL
	settings.RepeatAlertMinutes = 5
	if err := settings.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := &Settings{}
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Unit != UnitMmolL {
		t.Errorf("Unit = %s, want mmol/L", loaded.Unit)
	}
	if loaded.RepeatAlertMinutes != 5 {
		t.Errorf("RepeatAlertMinutes = %d, want 5", loaded.RepeatAlertMinutes)
	}
}

func TestSettings_LoadMissingUsesDefaults(t *testing.T) {
	t.Setenv("DASHBOARD_CONFIG_DIR", t.TempDir())

	loaded := &Settings{}
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.TargetHigh != 180 {
		t.Errorf("TargetHigh = %d, want 180", loaded.TargetHigh)
	}
}
