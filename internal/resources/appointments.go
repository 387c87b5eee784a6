package resources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// AppointmentFilter maps to the list endpoint's query parameters
type AppointmentFilter struct {
	Date   string                   // YYYY-MM-DD
	Status models.AppointmentStatus // status_filter
}

func (f AppointmentFilter) query() url.Values {
	q := url.Values{}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.Status != "" {
		q.Set("status_filter", string(f.Status))
	}
	return q
}

// Appointments schedules visits
type Appointments struct {
	*Collection[models.Appointment]
	defaultMinutes int
}

// NewAppointments creates the appointment service. defaultMinutes fills
// drafts that leave the duration unset.
func NewAppointments(client *api.Client, defaultMinutes int) *Appointments {
	return &Appointments{
		Collection:     NewCollection[models.Appointment](client, "/api/appointments/", "/api/appointments/"),
		defaultMinutes: defaultMinutes,
	}
}

// Find lists appointments matching the filter
func (a *Appointments) Find(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	return a.List(ctx, f.query())
}

// Today lists today's appointments as the server sees the date
func (a *Appointments) Today(ctx context.Context) ([]models.Appointment, error) {
	return list[models.Appointment](ctx, a.client, "/api/appointments/today", nil)
}

// Schedule validates and creates an appointment
func (a *Appointments) Schedule(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	draft.ApplyDefaults(a.defaultMinutes)
	if err := api.Validate(&draft); err != nil {
		return nil, err
	}
	return a.Create(ctx, draft)
}

// Change applies a partial update
func (a *Appointments) Change(ctx context.Context, id string, u models.AppointmentUpdate) (*models.Appointment, error) {
	return a.Update(ctx, id, u)
}

// SetStatus moves an appointment to a terminal status. Anything other
// than Scheduled to a terminal status is rejected before sending.
func (a *Appointments) SetStatus(ctx context.Context, appt models.Appointment, to models.AppointmentStatus) (*models.Appointment, error) {
	if !models.CanTransition(appt.Status, to) {
		return nil, api.NewValidationError(models.NewValidationError("status",
			fmt.Sprintf("cannot change from %s to %s", appt.Status, to)))
	}
	return a.Update(ctx, appt.ID, models.AppointmentUpdate{Status: &to})
}
