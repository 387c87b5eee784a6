package resources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Medications manages prescriptions and adherence records
type Medications struct {
	client *api.Client
}

// NewMedications creates the medication service
func NewMedications(client *api.Client) *Medications {
	return &Medications{client: client}
}

func medicationPath(id string) string {
	return "/api/medications/" + url.PathEscape(id)
}

// Prescribe validates and creates a medication
func (m *Medications) Prescribe(ctx context.Context, med models.Medication) (*models.Medication, error) {
	if err := api.Validate(&med); err != nil {
		return nil, err
	}
	return postEnveloped[models.Medication](ctx, m.client, "/api/medications", med, "medication")
}

// ForPatient lists a patient's medications
func (m *Medications) ForPatient(ctx context.Context, patientID string, activeOnly bool) ([]models.Medication, error) {
	q := url.Values{"active_only": {strconv.FormatBool(activeOnly)}}
	return list[models.Medication](ctx, m.client, "/api/medications/patient/"+url.PathEscape(patientID), q)
}

// Get fetches one medication
func (m *Medications) Get(ctx context.Context, id string) (*models.Medication, error) {
	return get[models.Medication](ctx, m.client, medicationPath(id), nil)
}

// Update replaces a medication
func (m *Medications) Update(ctx context.Context, id string, med models.Medication) (*models.Medication, error) {
	if err := api.Validate(&med); err != nil {
		return nil, err
	}
	return putEnveloped[models.Medication](ctx, m.client, medicationPath(id), med, "medication")
}

// Delete removes a medication
func (m *Medications) Delete(ctx context.Context, id string) error {
	return m.client.Delete(ctx, medicationPath(id), nil)
}

// RecordAdherence stores whether a dose was taken
func (m *Medications) RecordAdherence(ctx context.Context, a models.MedicationAdherence) (*models.MedicationAdherence, error) {
	if err := api.Validate(&a); err != nil {
		return nil, err
	}
	return postEnveloped[models.MedicationAdherence](ctx, m.client, "/api/medications/adherence", a, "adherence")
}

// UpdateAdherence replaces an adherence record
func (m *Medications) UpdateAdherence(ctx context.Context, id string, a models.MedicationAdherence) (*models.MedicationAdherence, error) {
	return putEnveloped[models.MedicationAdherence](ctx, m.client, "/api/medications/adherence/"+url.PathEscape(id), a, "adherence")
}

// Adherence lists a patient's adherence records
func (m *Medications) Adherence(ctx context.Context, patientID string) ([]models.MedicationAdherence, error) {
	return list[models.MedicationAdherence](ctx, m.client, "/api/medications/adherence/patient/"+url.PathEscape(patientID), nil)
}

// AdherenceStatistics summarises adherence over the last days
func (m *Medications) AdherenceStatistics(ctx context.Context, patientID string, days int) (*models.AdherenceStatistics, error) {
	return get[models.AdherenceStatistics](ctx, m.client,
		"/api/medications/adherence/patient/"+url.PathEscape(patientID)+"/statistics", daysQuery(days))
}

// CheckInteractions asks the server to screen the active medications
func (m *Medications) CheckInteractions(ctx context.Context, patientID string) (*models.InteractionReport, error) {
	return get[models.InteractionReport](ctx, m.client,
		"/api/medications/patient/"+url.PathEscape(patientID)+"/check-interactions", nil)
}
