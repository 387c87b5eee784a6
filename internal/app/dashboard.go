package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrcode/diabetes-dashboard/internal/models"
	"github.com/mrcode/diabetes-dashboard/internal/stats"
)

// ViewDashboard is the view name the dashboard mounts under
const ViewDashboard = "dashboard"

// RecentPatientCount is how many patients the dashboard highlights
const RecentPatientCount = 3

// maxParallelFetches bounds concurrent per-patient requests
const maxParallelFetches = 4

// ErrViewClosed is returned when a result arrives for a view that was
// unmounted or mounted again while the request was in flight
var ErrViewClosed = errors.New("view closed before the result arrived")

// RecentPatient pairs a patient with their latest prediction, if any
type RecentPatient struct {
	Patient          models.Patient     `json:"patient"`
	LatestPrediction *models.Prediction `json:"latestPrediction,omitempty"`
}

// DashboardData is the doctor's home screen
type DashboardData struct {
	Doctor            *models.UserProfile  `json:"doctor"`
	PatientCount      int                  `json:"patientCount"`
	RecentPatients    []RecentPatient      `json:"recentPatients"`
	TodayAppointments []models.Appointment `json:"todayAppointments"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// fetchDashboard loads patients and today's appointments side by side,
// then the latest prediction of each recent patient. The first failure
// cancels the rest.
func (d *DashboardService) fetchDashboard(ctx context.Context) (*DashboardData, error) {
	g, ctx := errgroup.WithContext(ctx)

	var (
		mu       sync.Mutex
		patients []models.Patient
		today    []models.Appointment
		recent   []RecentPatient
	)

	g.Go(func() error {
		list, err := d.svc.Appointments.Today(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		today = list
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		list, err := d.svc.Patients.All(ctx)
		if err != nil {
			return err
		}
		top := stats.RecentPatients(list, RecentPatientCount)

		mu.Lock()
		patients = list
		recent = make([]RecentPatient, len(top))
		for i := range top {
			recent[i].Patient = top[i]
		}
		mu.Unlock()

		for i := range top {
			g.Go(func() error {
				preds, err := d.svc.Predictions.ForPatient(ctx, top[i].ID)
				if err != nil {
					return err
				}
				latest := stats.RecentPredictions(preds, 1)
				if len(latest) == 1 {
					mu.Lock()
					recent[i].LatestPrediction = &latest[0]
					mu.Unlock()
				}
				return nil
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DashboardData{
		Doctor:            d.svc.Session.Snapshot().User,
		PatientCount:      len(patients),
		RecentPatients:    recent,
		TodayAppointments: today,
		UpdatedAt:         d.now(),
	}, nil
}

// collectPredictions fetches every patient's predictions with bounded
// concurrency
func (d *DashboardService) collectPredictions(ctx context.Context, patients []models.Patient) ([]models.Prediction, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)

	results := make([][]models.Prediction, len(patients))
	for i := range patients {
		g.Go(func() error {
			preds, err := d.svc.Predictions.ForPatient(ctx, patients[i].ID)
			if err != nil {
				return err
			}
			results[i] = preds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.Prediction
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
