package resources

import (
	"context"
	"net/url"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Analytics reads server-computed summaries
type Analytics struct {
	client *api.Client
}

// NewAnalytics creates the analytics service
func NewAnalytics(client *api.Client) *Analytics {
	return &Analytics{client: client}
}

// PatientOverview rolls up a patient's metrics over the last days
func (a *Analytics) PatientOverview(ctx context.Context, patientID string, days int) (*models.PatientOverview, error) {
	return get[models.PatientOverview](ctx, a.client,
		"/api/analytics/patient/"+url.PathEscape(patientID)+"/overview", daysQuery(days))
}

// PopulationHealth summarises all of a doctor's patients
func (a *Analytics) PopulationHealth(ctx context.Context, doctorID string) (models.PopulationHealth, error) {
	out, err := get[models.PopulationHealth](ctx, a.client,
		"/api/analytics/doctor/"+url.PathEscape(doctorID)+"/population-health", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// RiskStratification grades a patient's risk
func (a *Analytics) RiskStratification(ctx context.Context, patientID string) (*models.RiskStratification, error) {
	return get[models.RiskStratification](ctx, a.client,
		"/api/analytics/patient/"+url.PathEscape(patientID)+"/risk-stratification", nil)
}

// Trends returns the chart series over the last days
func (a *Analytics) Trends(ctx context.Context, patientID string, days int) (*models.PatientTrends, error) {
	return get[models.PatientTrends](ctx, a.client,
		"/api/analytics/patient/"+url.PathEscape(patientID)+"/trends", daysQuery(days))
}
