package resources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/apitest"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// seedHighRiskPatient gives a patient a very high HbA1c and a positive
// model result, which together grade as high risk
func seedHighRiskPatient(backend *apitest.Backend) models.Patient {
	now := time.Now()
	p := backend.SeedPatient("D123", models.Patient{Name: "Ann"})
	backend.SeedHbA1c(models.HbA1cReading{
		PatientID:  p.ID,
		HbA1cValue: 9.5,
		TestDate:   models.NewTimestamp(now.AddDate(0, 0, -10)),
	})
	backend.SeedPrediction(models.Prediction{
		PatientID:  p.ID,
		DoctorID:   "D123",
		Prediction: models.RiskFlag{Value: 1, Set: true},
		Confidence: 0.87,
	})
	for i, v := range []float64{100, 150} {
		backend.SeedReading(models.GlucoseReading{
			PatientID:       p.ID,
			ReadingType:     models.ReadingFasting,
			GlucoseValue:    v,
			ReadingDatetime: models.NewTimestamp(now.Add(time.Duration(i-2) * time.Hour)),
		})
	}
	backend.SeedAdherence(models.MedicationAdherence{
		PatientID:         p.ID,
		MedicationID:      "m1",
		ScheduledDatetime: models.NewTimestamp(now.Add(-3 * time.Hour)),
		Taken:             true,
	})
	backend.SeedAlert(models.Alert{
		PatientID: p.ID,
		DoctorID:  "D123",
		AlertType: models.AlertCriticalGlucose,
		Severity:  models.SeverityCritical,
		Title:     "Low",
		Message:   "Low",
	})
	return p
}

func TestAnalytics_PatientOverview(t *testing.T) {
	backend, client := newClient(t)
	p := seedHighRiskPatient(backend)
	path := "/api/analytics/patient/" + p.ID + "/overview"

	o, err := NewAnalytics(client).PatientOverview(context.Background(), p.ID, 14)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Requests(path))
	assert.Equal(t, "14", backend.LastQuery(path).Get("days"))
	assert.Equal(t, p.ID, o.PatientID)
	assert.Equal(t, 14, o.PeriodDays)
	assert.Equal(t, 2, o.Glucose.TotalReadings)
	assert.InDelta(t, 125, o.Glucose.Average, 0.001)
	require.NotNil(t, o.HbA1c.LatestValue)
	assert.InDelta(t, 9.5, *o.HbA1c.LatestValue, 0.001)
	require.NotNil(t, o.HbA1c.TestDate)
	assert.InDelta(t, 100, o.MedicationAdherence.Rate, 0.001)
	assert.Equal(t, 1, o.MedicationAdherence.TotalScheduled)
	assert.Equal(t, 1, o.Alerts.CriticalUnacknowledged)
}

func TestAnalytics_RiskStratification(t *testing.T) {
	backend, client := newClient(t)
	analytics := NewAnalytics(client)
	p := seedHighRiskPatient(backend)

	risk, err := analytics.RiskStratification(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Requests("/api/analytics/patient/"+p.ID+"/risk-stratification"))
	assert.Equal(t, "high", risk.RiskLevel)
	assert.Equal(t, 7, risk.RiskScore)
	assert.Contains(t, risk.RiskFactors, "Very high HbA1c (>9%)")
	assert.NotEmpty(t, risk.Recommendations)

	_, err = analytics.RiskStratification(context.Background(), "missing")
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestAnalytics_Trends(t *testing.T) {
	backend, client := newClient(t)
	p := seedHighRiskPatient(backend)
	path := "/api/analytics/patient/" + p.ID + "/trends"

	trends, err := NewAnalytics(client).Trends(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.False(t, backend.LastQuery(path).Has("days"))
	assert.Equal(t, 90, trends.PeriodDays)
	require.Len(t, trends.GlucoseTrend, 2)
	// oldest first for charting
	assert.InDelta(t, 100, trends.GlucoseTrend[0].Value, 0.001)
	assert.Equal(t, string(models.ReadingFasting), trends.GlucoseTrend[0].Type)
	require.Len(t, trends.HbA1cTrend, 1)
	assert.InDelta(t, 9.5, trends.HbA1cTrend[0].Value, 0.001)

	_, err = NewAnalytics(client).Trends(context.Background(), p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "7", backend.LastQuery(path).Get("days"))
}

func TestAnalytics_PopulationHealth(t *testing.T) {
	backend, client := newClient(t)
	seedHighRiskPatient(backend)
	backend.SeedPatient("D123", models.Patient{Name: "Ben"})
	backend.SeedPatient("D999", models.Patient{Name: "Cid"})

	health, err := NewAnalytics(client).PopulationHealth(context.Background(), "D123")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Requests("/api/analytics/doctor/D123/population-health"))
	assert.EqualValues(t, 2, health["total_patients"])

	risk := health.Section("risk_stratification")
	require.NotNil(t, risk)
	assert.EqualValues(t, 1, risk["high"])
	assert.EqualValues(t, 1, risk["low"])
	assert.EqualValues(t, 50, risk["high_risk_percentage"])

	assert.EqualValues(t, 1, health.Section("alerts")["critical_unacknowledged"])
	assert.Nil(t, health.Section("screenings"))
}
