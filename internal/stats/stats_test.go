package stats

import (
	"testing"
	"time"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

func flagged(v float64) models.Prediction {
	return models.Prediction{Prediction: models.RiskFlag{Value: v, Set: true}}
}

func appt(status models.AppointmentStatus) models.Appointment {
	return models.Appointment{Status: status}
}

func TestRiskPercentage(t *testing.T) {
	tests := []struct {
		name  string
		preds []models.Prediction
		want  int
	}{
		{"empty", nil, 0},
		{"only unflagged", []models.Prediction{{}, {}}, 0},
		{"all high", []models.Prediction{flagged(1), flagged(1)}, 100},
		{"one of three", []models.Prediction{flagged(1), flagged(0), flagged(0)}, 33},
		{"two of three", []models.Prediction{flagged(1), flagged(1), flagged(0)}, 67},
		{"unflagged ignored", []models.Prediction{flagged(1), flagged(0), {}}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskPercentage(tt.preds); got != tt.want {
				t.Errorf("RiskPercentage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name  string
		appts []models.Appointment
		want  int
	}{
		{"empty", nil, 0},
		{"none completed", []models.Appointment{appt(models.AppointmentScheduled)}, 0},
		{"half", []models.Appointment{appt(models.AppointmentCompleted), appt(models.AppointmentCancelled)}, 50},
		{"rounds", []models.Appointment{
			appt(models.AppointmentCompleted),
			appt(models.AppointmentCompleted),
			appt(models.AppointmentScheduled),
		}, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionRate(tt.appts); got != tt.want {
				t.Errorf("CompletionRate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAverageAge(t *testing.T) {
	tests := []struct {
		name     string
		patients []models.Patient
		want     int
	}{
		{"empty", nil, 0},
		{"missing counts as zero", []models.Patient{
			{Age: models.IntPtr(20)},
			{Age: models.IntPtr(40)},
			{},
		}, 20},
		{"rounds half up", []models.Patient{{Age: models.IntPtr(30)}, {Age: models.IntPtr(31)}}, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageAge(tt.patients); got != tt.want {
				t.Errorf("AverageAge() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGenderDistribution(t *testing.T) {
	got := GenderDistribution([]models.Patient{
		{Gender: "Male"},
		{Gender: "Female"},
		{Gender: "Female"},
		{},
	})
	want := map[string]int{"Male": 1, "Female": 2, "Other": 1}
	if len(got) != len(want) {
		t.Fatalf("GenderDistribution() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("GenderDistribution()[%s] = %d, want %d", k, got[k], v)
		}
	}
}

func TestGenderDistribution_FoldsUnknown(t *testing.T) {
	got := GenderDistribution([]models.Patient{{Gender: "male"}, {Gender: "Non-binary"}})
	if got["Other"] != 2 || got["Male"] != 0 {
		t.Errorf("GenderDistribution() = %v", got)
	}
}

func TestRecentPredictions(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	preds := make([]models.Prediction, 5)
	for i := range preds {
		preds[i] = models.Prediction{ID: string(rune('a' + i)), CreatedAt: models.NewTimestamp(base.Add(time.Duration(i) * time.Hour))}
	}

	got := RecentPredictions(preds, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, id := range []string{"e", "d", "c"} {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if preds[0].ID != "a" {
		t.Error("input was reordered")
	}

	if all := RecentPredictions(preds, 10); len(all) != 5 {
		t.Errorf("len = %d, want 5", len(all))
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(
		[]models.Patient{{Age: models.IntPtr(50), Gender: "Male"}, {Age: models.IntPtr(60), Gender: "Female"}},
		[]models.Prediction{flagged(1), flagged(0), flagged(0), flagged(0)},
		[]models.Appointment{
			appt(models.AppointmentCompleted),
			appt(models.AppointmentScheduled),
			appt(models.AppointmentCancelled),
			appt(models.AppointmentNoShow),
		},
	)

	if s.TotalPatients != 2 || s.TotalPredictions != 4 || s.TotalAppointments != 4 {
		t.Errorf("totals = %d/%d/%d", s.TotalPatients, s.TotalPredictions, s.TotalAppointments)
	}
	if s.HighRisk != 1 || s.LowRisk != 3 {
		t.Errorf("risk counts = %d/%d", s.HighRisk, s.LowRisk)
	}
	if s.RiskPercentage != 25 {
		t.Errorf("RiskPercentage = %d, want 25", s.RiskPercentage)
	}
	if s.CompletionRate != 25 {
		t.Errorf("CompletionRate = %d, want 25", s.CompletionRate)
	}
	if s.Scheduled != 1 || s.Cancelled != 1 || s.NoShow != 1 {
		t.Errorf("status counts = %+v", s.Counts)
	}
	if s.AverageAge != 55 {
		t.Errorf("AverageAge = %d, want 55", s.AverageAge)
	}
	if len(s.RecentPredictions) != 4 {
		t.Errorf("RecentPredictions = %d, want 4", len(s.RecentPredictions))
	}
}

func TestRecentPatients(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	patients := []models.Patient{
		{ID: "old", CreatedAt: models.NewTimestamp(base)},
		{ID: "new", CreatedAt: models.NewTimestamp(base.Add(48 * time.Hour))},
		{ID: "mid", CreatedAt: models.NewTimestamp(base.Add(24 * time.Hour))},
	}

	got := RecentPatients(patients, 2)
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Errorf("RecentPatients() = %v", got)
	}
	if len(RecentPatients(nil, 3)) != 0 {
		t.Error("RecentPatients(nil) should be empty")
	}
}
