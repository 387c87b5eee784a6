package resources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// AlertFilter maps to the patient alert list query
type AlertFilter struct {
	Acknowledged *bool
	Severity     models.Severity
}

func (f AlertFilter) query() url.Values {
	q := url.Values{}
	if f.Acknowledged != nil {
		q.Set("acknowledged", strconv.FormatBool(*f.Acknowledged))
	}
	if f.Severity != "" {
		q.Set("severity", string(f.Severity))
	}
	return q
}

// Alerts reads and acknowledges clinical alerts
type Alerts struct {
	client *api.Client
}

// NewAlerts creates the alert service
func NewAlerts(client *api.Client) *Alerts {
	return &Alerts{client: client}
}

func alertPath(id string) string {
	return "/api/alerts/" + url.PathEscape(id)
}

// Raise validates and creates an alert
func (a *Alerts) Raise(ctx context.Context, alert models.Alert) (*models.Alert, error) {
	if err := api.Validate(&alert); err != nil {
		return nil, err
	}
	return postEnveloped[models.Alert](ctx, a.client, "/api/alerts", alert, "alert")
}

// ForPatient lists a patient's alerts
func (a *Alerts) ForPatient(ctx context.Context, patientID string, f AlertFilter) ([]models.Alert, error) {
	return list[models.Alert](ctx, a.client, "/api/alerts/patient/"+url.PathEscape(patientID), f.query())
}

// ForDoctor lists every alert for a doctor's patients
func (a *Alerts) ForDoctor(ctx context.Context, doctorID string) ([]models.Alert, error) {
	return list[models.Alert](ctx, a.client, "/api/alerts/doctor/"+url.PathEscape(doctorID), nil)
}

// Get fetches one alert
func (a *Alerts) Get(ctx context.Context, id string) (*models.Alert, error) {
	return get[models.Alert](ctx, a.client, alertPath(id), nil)
}

// Acknowledge marks an alert as handled
func (a *Alerts) Acknowledge(ctx context.Context, id, by, actionTaken string) (*models.Alert, error) {
	q := url.Values{"acknowledged_by": {by}}
	if actionTaken != "" {
		q.Set("action_taken", actionTaken)
	}
	return enveloped[models.Alert](ctx, a.client, http.MethodPut, alertPath(id)+"/acknowledge",
		api.RequestOptions{Query: q}, "alert")
}

// Delete removes an alert
func (a *Alerts) Delete(ctx context.Context, id string) error {
	return a.client.Delete(ctx, alertPath(id), nil)
}

// Critical lists a patient's unacknowledged critical alerts
func (a *Alerts) Critical(ctx context.Context, patientID string) ([]models.Alert, error) {
	return list[models.Alert](ctx, a.client, "/api/alerts/patient/"+url.PathEscape(patientID)+"/critical", nil)
}

// Summary counts a doctor's alerts
func (a *Alerts) Summary(ctx context.Context, doctorID string) (*models.AlertSummary, error) {
	return get[models.AlertSummary](ctx, a.client, "/api/alerts/doctor/"+url.PathEscape(doctorID)+"/summary", nil)
}
