package notifications

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Test constants
const (
	testUrgentLow = "urgent_low"
	testMmolUnit  = "mmol/L"
)

type sent struct {
	title   string
	message string
}

// newTestManager returns a manager that records instead of notifying
func newTestManager(settings *models.Settings) (*Manager, *[]sent, *time.Time) {
	m := NewManager(settings)
	var out []sent
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	m.Notify = func(title, message string) error {
		out = append(out, sent{title, message})
		return nil
	}
	m.now = func() time.Time { return now }
	return m, &out, &now
}

func reading(value float64) models.GlucoseReading {
	return models.GlucoseReading{PatientID: "p1", ReadingType: models.ReadingRandom, GlucoseValue: value}
}

func TestShouldAlert(t *testing.T) {
	settings := models.DefaultSettings()

	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"Urgent low enabled", "urgent_low", "urgent_low"},
		{"Low enabled", "low", "low"},
		{"High enabled", "high", "high"},
		{"Urgent high enabled", "urgent_high", "urgent_high"},
		{"Normal", "normal", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldAlert(settings, tt.status)
			if result != tt.expected {
				t.Errorf("shouldAlert() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestShouldAlert_Disabled(t *testing.T) {
	settings := models.DefaultSettings()
	settings.EnableLowAlert = false
	settings.EnableHighAlert = false

	if result := shouldAlert(settings, "low"); result != "" {
		t.Errorf("shouldAlert() = %s, want empty (disabled)", result)
	}
	if result := shouldAlert(settings, "high"); result != "" {
		t.Errorf("shouldAlert() = %s, want empty (disabled)", result)
	}
	if result := shouldAlert(settings, testUrgentLow); result != testUrgentLow {
		t.Errorf("shouldAlert() = %s, want %s", result, testUrgentLow)
	}
}

func TestFormatNotification(t *testing.T) {
	settings := models.DefaultSettings()

	tests := []struct {
		alertType     string
		expectedTitle string
	}{
		{"urgent_low", "⚠️ URGENT LOW GLUCOSE"},
		{"low", "⬇️ Low Glucose"},
		{"high", "⬆️ High Glucose"},
		{"urgent_high", "⚠️ URGENT HIGH GLUCOSE"},
	}

	r := reading(120)
	for _, tt := range tests {
		t.Run(tt.alertType, func(t *testing.T) {
			title, message := formatNotification(settings, &r, "Jane Roe", tt.alertType)
			if title != tt.expectedTitle {
				t.Errorf("title = %s, want %s", title, tt.expectedTitle)
			}
			if !strings.Contains(message, "Jane Roe") || !strings.Contains(message, "120 mg/dL") {
				t.Errorf("message = %q", message)
			}
		})
	}
}

func TestFormatNotification_Mmol(t *testing.T) {
	settings := models.DefaultSettings()
	settings.Unit = testMmolUnit

	r := reading(54.0546)
	_, message := formatNotification(settings, &r, "", testUrgentLow)
	if !strings.Contains(message, "3.0 mmol/L") {
		t.Errorf("message = %q, want mmol value", message)
	}
	if !strings.HasPrefix(message, "Patient ") {
		t.Errorf("message = %q, want placeholder name", message)
	}
}

func TestCheckReading_RepeatWindow(t *testing.T) {
	m, out, now := newTestManager(models.DefaultSettings())

	if err := m.CheckReading(reading(45), "Jane Roe"); err != nil {
		t.Fatal(err)
	}
	if err := m.CheckReading(reading(48), "Jane Roe"); err != nil {
		t.Fatal(err)
	}
	if len(*out) != 1 {
		t.Fatalf("sent %d, want 1 inside the repeat window", len(*out))
	}

	*now = now.Add(15 * time.Minute)
	if err := m.CheckReading(reading(48), "Jane Roe"); err != nil {
		t.Fatal(err)
	}
	if len(*out) != 2 {
		t.Errorf("sent %d, want 2 after the repeat window", len(*out))
	}
}

func TestCheckReading_NormalIsSilent(t *testing.T) {
	m, out, _ := newTestManager(models.DefaultSettings())
	if err := m.CheckReading(reading(110), ""); err != nil {
		t.Fatal(err)
	}
	if len(*out) != 0 {
		t.Errorf("sent %d, want 0", len(*out))
	}
}

func TestCheckReading_NoRepeatFiresOnce(t *testing.T) {
	settings := models.DefaultSettings()
	settings.RepeatAlertMinutes = 0
	m, out, now := newTestManager(settings)

	_ = m.CheckReading(reading(300), "")
	*now = now.Add(24 * time.Hour)
	_ = m.CheckReading(reading(300), "")
	if len(*out) != 1 {
		t.Fatalf("sent %d, want 1", len(*out))
	}

	m.ClearAlertState("")
	_ = m.CheckReading(reading(300), "")
	if len(*out) != 2 {
		t.Errorf("sent %d, want 2 after clearing", len(*out))
	}
}

func TestCheckAlerts(t *testing.T) {
	m, out, _ := newTestManager(models.DefaultSettings())
	alerts := []models.Alert{
		{ID: "a1", Severity: models.SeverityCritical, Title: "Glucose 42 mg/dL", Message: "Urgent low"},
		{ID: "a2", Severity: models.SeverityWarning, Title: "Dose missed"},
		{ID: "a3", Severity: models.SeverityCritical, Acknowledged: true, Title: "Handled"},
	}

	n, err := m.CheckAlerts(alerts)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || len(*out) != 1 {
		t.Fatalf("sent %d, want 1", n)
	}
	if (*out)[0].title != "⚠️ Glucose 42 mg/dL" {
		t.Errorf("title = %q", (*out)[0].title)
	}

	n, _ = m.CheckAlerts(alerts)
	if n != 0 {
		t.Errorf("sent %d on second pass, want 0", n)
	}
}

func TestCheckAlerts_Disabled(t *testing.T) {
	settings := models.DefaultSettings()
	settings.EnableCriticalAlerts = false
	m, out, _ := newTestManager(settings)

	n, _ := m.CheckAlerts([]models.Alert{{ID: "a1", Severity: models.SeverityCritical}})
	if n != 0 || len(*out) != 0 {
		t.Errorf("sent %d, want 0", n)
	}
}

func TestCheckAlerts_NotifierError(t *testing.T) {
	m := NewManager(models.DefaultSettings())
	m.Notify = func(string, string) error { return errors.New("no dbus") }

	n, err := m.CheckAlerts([]models.Alert{{ID: "a1", Severity: models.SeverityCritical}})
	if err == nil || n != 0 {
		t.Errorf("CheckAlerts() = %d, %v; want 0 and an error", n, err)
	}

	// A failed send is retried on the next pass
	m.Notify = func(string, string) error { return nil }
	if n, _ := m.CheckAlerts([]models.Alert{{ID: "a1", Severity: models.SeverityCritical}}); n != 1 {
		t.Errorf("retry sent %d, want 1", n)
	}
}

func TestNotifySessionExpired(t *testing.T) {
	m, out, _ := newTestManager(models.DefaultSettings())
	if err := m.NotifySessionExpired(); err != nil {
		t.Fatal(err)
	}
	if len(*out) != 1 || (*out)[0].title != "Session expired" {
		t.Errorf("sent %+v", *out)
	}

	settings := models.DefaultSettings()
	settings.EnableSessionNotice = false
	m.UpdateSettings(settings)
	_ = m.NotifySessionExpired()
	if len(*out) != 1 {
		t.Errorf("sent %d, want no notice when disabled", len(*out))
	}
}
