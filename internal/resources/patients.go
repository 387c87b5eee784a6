package resources

import (
	"context"
	"strings"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Patients manages the doctor's patient records
type Patients struct {
	*Collection[models.Patient]
}

// NewPatients creates the patient service
func NewPatients(client *api.Client) *Patients {
	return &Patients{Collection: NewCollection[models.Patient](client, "/api/patients/", "/api/patients/")}
}

// All lists every patient of the signed-in doctor
func (p *Patients) All(ctx context.Context) ([]models.Patient, error) {
	return p.List(ctx, nil)
}

// Add validates and creates a patient
func (p *Patients) Add(ctx context.Context, draft models.PatientDraft) (*models.Patient, error) {
	if err := api.Validate(&draft); err != nil {
		return nil, err
	}
	return p.Create(ctx, draft)
}

// Replace validates and overwrites a patient. The whole draft is sent;
// fields left empty are cleared.
func (p *Patients) Replace(ctx context.Context, id string, draft models.PatientDraft) (*models.Patient, error) {
	if err := api.Validate(&draft); err != nil {
		return nil, err
	}
	return p.Update(ctx, id, draft)
}

// Search filters already fetched patients by name, email or phone.
// An empty term returns the list unchanged.
func Search(patients []models.Patient, term string) []models.Patient {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return patients
	}
	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Email), term) ||
			strings.Contains(p.Phone, term) {
			out = append(out, p)
		}
	}
	return out
}
