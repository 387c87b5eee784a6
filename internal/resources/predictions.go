package resources

import (
	"context"
	"net/url"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Predictions submits feature vectors to the risk model and reads results.
// Predictions are immutable once created.
type Predictions struct {
	client *api.Client
}

// NewPredictions creates the prediction service
func NewPredictions(client *api.Client) *Predictions {
	return &Predictions{client: client}
}

// Submit validates the feature vector before anything is sent
func (p *Predictions) Submit(ctx context.Context, patientID, doctorID string, fv models.FeatureVector, notes string) (*models.Prediction, error) {
	if err := api.Validate(&fv); err != nil {
		return nil, err
	}
	req := models.NewPredictionRequest(patientID, doctorID, fv, notes)

	var out models.Prediction
	if err := p.client.Post(ctx, "/api/predictions/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForPatient lists a patient's predictions
func (p *Predictions) ForPatient(ctx context.Context, patientID string) ([]models.Prediction, error) {
	return list[models.Prediction](ctx, p.client, "/api/predictions/patients/"+url.PathEscape(patientID)+"/", nil)
}

// Get fetches a single prediction
func (p *Predictions) Get(ctx context.Context, id string) (*models.Prediction, error) {
	return get[models.Prediction](ctx, p.client, "/api/predictions/"+url.PathEscape(id), nil)
}
