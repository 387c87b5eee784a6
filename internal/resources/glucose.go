package resources

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// ReadingFilter narrows a patient's glucose readings
type ReadingFilter struct {
	Start time.Time
	End   time.Time
	Type  models.ReadingType
}

func (f ReadingFilter) query() url.Values {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("start_date", f.Start.UTC().Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		q.Set("end_date", f.End.UTC().Format(time.RFC3339))
	}
	if f.Type != "" {
		q.Set("reading_type", string(f.Type))
	}
	return q
}

// LastDays returns a filter covering the last n days up to now
func LastDays(n int, now time.Time) ReadingFilter {
	return ReadingFilter{Start: now.AddDate(0, 0, -n)}
}

func daysQuery(days int) url.Values {
	if days <= 0 {
		return nil
	}
	return url.Values{"days": {strconv.Itoa(days)}}
}

// Glucose records glucose and HbA1c readings
type Glucose struct {
	client *api.Client
}

// NewGlucose creates the glucose service
func NewGlucose(client *api.Client) *Glucose {
	return &Glucose{client: client}
}

// Record validates and stores a glucose reading
func (g *Glucose) Record(ctx context.Context, r models.GlucoseReading) (*models.GlucoseReading, error) {
	if err := api.Validate(&r); err != nil {
		return nil, err
	}
	return postEnveloped[models.GlucoseReading](ctx, g.client, "/api/glucose/readings", r, "reading")
}

// ForPatient lists readings, newest first as the server orders them
func (g *Glucose) ForPatient(ctx context.Context, patientID string, f ReadingFilter) ([]models.GlucoseReading, error) {
	return list[models.GlucoseReading](ctx, g.client, "/api/glucose/readings/patient/"+url.PathEscape(patientID), f.query())
}

// Get fetches one reading
func (g *Glucose) Get(ctx context.Context, id string) (*models.GlucoseReading, error) {
	return get[models.GlucoseReading](ctx, g.client, "/api/glucose/readings/"+url.PathEscape(id), nil)
}

// Delete removes a reading
func (g *Glucose) Delete(ctx context.Context, id string) error {
	return g.client.Delete(ctx, "/api/glucose/readings/"+url.PathEscape(id), nil)
}

// Statistics returns the server's summary over the last days
func (g *Glucose) Statistics(ctx context.Context, patientID string, days int) (*models.GlucoseStatistics, error) {
	return get[models.GlucoseStatistics](ctx, g.client,
		"/api/glucose/readings/patient/"+url.PathEscape(patientID)+"/statistics", daysQuery(days))
}

// RecordHbA1c validates and stores a lab result
func (g *Glucose) RecordHbA1c(ctx context.Context, r models.HbA1cReading) (*models.HbA1cReading, error) {
	if err := api.Validate(&r); err != nil {
		return nil, err
	}
	return postEnveloped[models.HbA1cReading](ctx, g.client, "/api/glucose/hba1c", r, "reading")
}

// HbA1c lists a patient's lab results
func (g *Glucose) HbA1c(ctx context.Context, patientID string) ([]models.HbA1cReading, error) {
	return list[models.HbA1cReading](ctx, g.client, "/api/glucose/hba1c/patient/"+url.PathEscape(patientID), nil)
}

// HbA1cTrend returns the server's trend analysis
func (g *Glucose) HbA1cTrend(ctx context.Context, patientID string) (*models.HbA1cTrend, error) {
	return get[models.HbA1cTrend](ctx, g.client, "/api/glucose/hba1c/patient/"+url.PathEscape(patientID)+"/trend", nil)
}

// DeleteHbA1c removes a lab result
func (g *Glucose) DeleteHbA1c(ctx context.Context, id string) error {
	return g.client.Delete(ctx, "/api/glucose/hba1c/"+url.PathEscape(id), nil)
}
