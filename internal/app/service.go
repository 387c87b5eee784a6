package app

import (
	"context"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/guard"
	"github.com/mrcode/diabetes-dashboard/internal/models"
	"github.com/mrcode/diabetes-dashboard/internal/report"
	"github.com/mrcode/diabetes-dashboard/internal/resources"
	"github.com/mrcode/diabetes-dashboard/internal/session"
	"github.com/mrcode/diabetes-dashboard/internal/stats"
)

// Events emitted to the window
const (
	EventSessionChanged   = "session:changed"
	EventRouteChanged     = "route:changed"
	EventAppError         = "app:error"
	EventDashboardUpdated = "dashboard:updated"
)

// Emitter sends an event to the window
type Emitter func(name string, data any)

// DashboardService is bound to the window. Every exported method is
// callable from the frontend.
type DashboardService struct {
	svc    *Services
	logger *zap.Logger
	views  *Views
	now    func() time.Time

	mu          sync.RWMutex
	emitter     Emitter
	dashboard   *DashboardData
	unsubscribe func()
}

// NewDashboardService creates the bound service and starts forwarding
// session changes to the window
func NewDashboardService(svc *Services) *DashboardService {
	d := &DashboardService{
		svc:    svc,
		logger: svc.Logger.Named("app"),
		views:  NewViews(),
		now:    time.Now,
	}
	d.unsubscribe = svc.Session.Subscribe(d.onSession)
	return d
}

// SetApp connects the service to the running application
func (d *DashboardService) SetApp(app *application.App) {
	d.SetEmitter(func(name string, data any) {
		app.Event.Emit(name, data)
	})
}

// SetEmitter replaces how events reach the window
func (d *DashboardService) SetEmitter(e Emitter) {
	d.mu.Lock()
	d.emitter = e
	d.mu.Unlock()
}

func (d *DashboardService) emit(name string, data any) {
	d.mu.RLock()
	e := d.emitter
	d.mu.RUnlock()
	if e != nil {
		e(name, data)
	}
}

// Start restores the persisted session
func (d *DashboardService) Start(ctx context.Context) error {
	return d.svc.Session.Start(ctx)
}

// Shutdown stops forwarding and saves settings
func (d *DashboardService) Shutdown() {
	if d.unsubscribe != nil {
		d.unsubscribe()
	}
	if err := d.svc.Settings.Save(); err != nil {
		d.logger.Error("failed to save settings", zap.Error(err))
	}
}

func (d *DashboardService) onSession(snap session.Snapshot) {
	d.emit(EventSessionChanged, snap)

	if snap.State == session.Anonymous && snap.Reason == session.ReasonExpired {
		if err := d.svc.Notifications.NotifySessionExpired(); err != nil {
			d.logger.Warn("session notice failed", zap.Error(err))
		}
		// Re-check where the doctor is; a protected view now redirects
		if current := d.svc.Router.Current(); current != "" {
			d.navigate(snap.State, current)
		}
	}
}

func (d *DashboardService) navigate(state session.State, path string) guard.Decision {
	decision := d.svc.Router.Navigate(state, path)
	d.emit(EventRouteChanged, decision)
	return decision
}

// Session returns the current session snapshot
func (d *DashboardService) Session() session.Snapshot {
	return d.svc.Session.Snapshot()
}

// Navigate asks the guard whether path may render
func (d *DashboardService) Navigate(path string) guard.Decision {
	return d.navigate(d.svc.Session.State(), path)
}

// Login signs in and returns where the window should go next
func (d *DashboardService) Login(ctx context.Context, badgeID, password string) (string, error) {
	return protect(d, "Login", func() (string, error) {
		if err := d.svc.Session.Login(ctx, badgeID, password); err != nil {
			return "", err
		}
		target := d.svc.Router.AfterLogin()
		d.emit(EventRouteChanged, guard.Decision{Action: guard.Render, Path: target})
		return target, nil
	})
}

// Register creates a doctor account; the window stays signed out
func (d *DashboardService) Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error) {
	return protect(d, "Register", func() (*models.UserProfile, error) {
		return d.svc.Session.Register(ctx, reg)
	})
}

// Logout signs out and sends the window to the login page
func (d *DashboardService) Logout() error {
	return protectErr(d, "Logout", func() error {
		err := d.svc.Session.Logout()
		d.svc.Router.Reset()
		d.mu.Lock()
		d.dashboard = nil
		d.mu.Unlock()
		d.navigate(session.Anonymous, guard.LoginPath)
		return err
	})
}

// MountView registers a view and returns its token
func (d *DashboardService) MountView(name string) uint64 {
	return d.views.Mount(name)
}

// UnmountView drops a view; late results for it are discarded
func (d *DashboardService) UnmountView(name string, token uint64) {
	d.views.Unmount(name, token)
}

// Dashboard fetches the home screen for the view mounted with token.
// On failure the previously loaded dashboard stays cached.
func (d *DashboardService) Dashboard(ctx context.Context, token uint64) (*DashboardData, error) {
	return protect(d, "Dashboard", func() (*DashboardData, error) {
		data, err := d.fetchDashboard(ctx)
		if err != nil {
			return nil, err
		}
		delivered := d.views.Deliver(ViewDashboard, token, func() {
			d.mu.Lock()
			d.dashboard = data
			d.mu.Unlock()
		})
		if !delivered {
			d.logger.Debug("discarding dashboard for closed view", zap.Uint64("token", token))
			return nil, ErrViewClosed
		}
		d.emit(EventDashboardUpdated, data)
		return data, nil
	})
}

// CachedDashboard returns the last dashboard that loaded, if any
func (d *DashboardService) CachedDashboard() *DashboardData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dashboard
}

// Patients

func (d *DashboardService) ListPatients(ctx context.Context) ([]models.Patient, error) {
	return protect(d, "ListPatients", func() ([]models.Patient, error) {
		return d.svc.Patients.All(ctx)
	})
}

// SearchPatients filters the doctor's patients by name, email or phone
func (d *DashboardService) SearchPatients(ctx context.Context, term string) ([]models.Patient, error) {
	return protect(d, "SearchPatients", func() ([]models.Patient, error) {
		all, err := d.svc.Patients.All(ctx)
		if err != nil {
			return nil, err
		}
		return resources.Search(all, term), nil
	})
}

func (d *DashboardService) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	return protect(d, "GetPatient", func() (*models.Patient, error) {
		return d.svc.Patients.Get(ctx, id)
	})
}

func (d *DashboardService) CreatePatient(ctx context.Context, draft models.PatientDraft) (*models.Patient, error) {
	return protect(d, "CreatePatient", func() (*models.Patient, error) {
		return d.svc.Patients.Add(ctx, draft)
	})
}

func (d *DashboardService) UpdatePatient(ctx context.Context, id string, draft models.PatientDraft) (*models.Patient, error) {
	return protect(d, "UpdatePatient", func() (*models.Patient, error) {
		return d.svc.Patients.Replace(ctx, id, draft)
	})
}

func (d *DashboardService) DeletePatient(ctx context.Context, id string) error {
	return protectErr(d, "DeletePatient", func() error {
		return d.svc.Patients.Delete(ctx, id)
	})
}

// Predictions

// SubmitPrediction sends a feature vector on behalf of the signed-in doctor
func (d *DashboardService) SubmitPrediction(ctx context.Context, patientID string, fv models.FeatureVector, notes string) (*models.Prediction, error) {
	return protect(d, "SubmitPrediction", func() (*models.Prediction, error) {
		return d.svc.Predictions.Submit(ctx, patientID, d.svc.doctorID(), fv, notes)
	})
}

// PrefillFeatures builds a feature vector from the patient record
func (d *DashboardService) PrefillFeatures(ctx context.Context, patientID string, hba1c, glucose float64) (models.FeatureVector, error) {
	return protect(d, "PrefillFeatures", func() (models.FeatureVector, error) {
		p, err := d.svc.Patients.Get(ctx, patientID)
		if err != nil {
			return models.FeatureVector{}, err
		}
		return models.FeatureVectorFromPatient(p, hba1c, glucose), nil
	})
}

func (d *DashboardService) PatientPredictions(ctx context.Context, patientID string) ([]models.Prediction, error) {
	return protect(d, "PatientPredictions", func() ([]models.Prediction, error) {
		return d.svc.Predictions.ForPatient(ctx, patientID)
	})
}

// Appointments

func (d *DashboardService) ListAppointments(ctx context.Context, filter resources.AppointmentFilter) ([]models.Appointment, error) {
	return protect(d, "ListAppointments", func() ([]models.Appointment, error) {
		return d.svc.Appointments.Find(ctx, filter)
	})
}

func (d *DashboardService) TodayAppointments(ctx context.Context) ([]models.Appointment, error) {
	return protect(d, "TodayAppointments", func() ([]models.Appointment, error) {
		return d.svc.Appointments.Today(ctx)
	})
}

func (d *DashboardService) ScheduleAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	return protect(d, "ScheduleAppointment", func() (*models.Appointment, error) {
		if draft.DoctorID == "" {
			draft.DoctorID = d.svc.doctorID()
		}
		return d.svc.Appointments.Schedule(ctx, draft)
	})
}

func (d *DashboardService) UpdateAppointment(ctx context.Context, id string, update models.AppointmentUpdate) (*models.Appointment, error) {
	return protect(d, "UpdateAppointment", func() (*models.Appointment, error) {
		return d.svc.Appointments.Change(ctx, id, update)
	})
}

// SetAppointmentStatus completes, cancels or marks a no-show
func (d *DashboardService) SetAppointmentStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	return protect(d, "SetAppointmentStatus", func() (*models.Appointment, error) {
		current, err := d.svc.Appointments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return d.svc.Appointments.SetStatus(ctx, *current, status)
	})
}

func (d *DashboardService) DeleteAppointment(ctx context.Context, id string) error {
	return protectErr(d, "DeleteAppointment", func() error {
		return d.svc.Appointments.Delete(ctx, id)
	})
}

// Glucose

// RecordGlucose stores a reading and raises a desktop notice when it is
// out of range
func (d *DashboardService) RecordGlucose(ctx context.Context, reading models.GlucoseReading, patientName string) (*models.GlucoseReading, error) {
	return protect(d, "RecordGlucose", func() (*models.GlucoseReading, error) {
		saved, err := d.svc.Glucose.Record(ctx, reading)
		if err != nil {
			return nil, err
		}
		if err := d.svc.Notifications.CheckReading(*saved, patientName); err != nil {
			d.logger.Warn("glucose notice failed", zap.Error(err))
		}
		return saved, nil
	})
}

// PatientGlucose lists readings over the configured window
func (d *DashboardService) PatientGlucose(ctx context.Context, patientID string) ([]models.GlucoseReading, error) {
	return protect(d, "PatientGlucose", func() ([]models.GlucoseReading, error) {
		return d.svc.Glucose.ForPatient(ctx, patientID, resources.LastDays(d.svc.statsWindow(), d.now()))
	})
}

// GlucoseChart returns chart points in the preferred unit
func (d *DashboardService) GlucoseChart(ctx context.Context, patientID string) (*models.ChartData, error) {
	return protect(d, "GlucoseChart", func() (*models.ChartData, error) {
		readings, err := d.svc.Glucose.ForPatient(ctx, patientID, resources.LastDays(d.svc.statsWindow(), d.now()))
		if err != nil {
			return nil, err
		}
		return models.BuildChart(readings, d.svc.Settings), nil
	})
}

// LatestGlucose summarises the newest reading; nil when there are none
func (d *DashboardService) LatestGlucose(ctx context.Context, patientID string) (*models.GlucoseStatus, error) {
	return protect(d, "LatestGlucose", func() (*models.GlucoseStatus, error) {
		readings, err := d.svc.Glucose.ForPatient(ctx, patientID, resources.ReadingFilter{})
		if err != nil {
			return nil, err
		}
		status, _ := models.LatestStatus(readings, d.svc.Settings, d.now())
		return status, nil
	})
}

func (d *DashboardService) GlucoseStatistics(ctx context.Context, patientID string) (*models.GlucoseStatistics, error) {
	return protect(d, "GlucoseStatistics", func() (*models.GlucoseStatistics, error) {
		return d.svc.Glucose.Statistics(ctx, patientID, d.svc.statsWindow())
	})
}

func (d *DashboardService) DeleteGlucose(ctx context.Context, id string) error {
	return protectErr(d, "DeleteGlucose", func() error {
		return d.svc.Glucose.Delete(ctx, id)
	})
}

func (d *DashboardService) RecordHbA1c(ctx context.Context, reading models.HbA1cReading) (*models.HbA1cReading, error) {
	return protect(d, "RecordHbA1c", func() (*models.HbA1cReading, error) {
		return d.svc.Glucose.RecordHbA1c(ctx, reading)
	})
}

func (d *DashboardService) PatientHbA1c(ctx context.Context, patientID string) ([]models.HbA1cReading, error) {
	return protect(d, "PatientHbA1c", func() ([]models.HbA1cReading, error) {
		return d.svc.Glucose.HbA1c(ctx, patientID)
	})
}

func (d *DashboardService) HbA1cTrend(ctx context.Context, patientID string) (*models.HbA1cTrend, error) {
	return protect(d, "HbA1cTrend", func() (*models.HbA1cTrend, error) {
		return d.svc.Glucose.HbA1cTrend(ctx, patientID)
	})
}

// Medications

func (d *DashboardService) PatientMedications(ctx context.Context, patientID string, activeOnly bool) ([]models.Medication, error) {
	return protect(d, "PatientMedications", func() ([]models.Medication, error) {
		return d.svc.Medications.ForPatient(ctx, patientID, activeOnly)
	})
}

func (d *DashboardService) PrescribeMedication(ctx context.Context, med models.Medication) (*models.Medication, error) {
	return protect(d, "PrescribeMedication", func() (*models.Medication, error) {
		if med.PrescribingDoctor == "" {
			med.PrescribingDoctor = d.svc.doctorID()
		}
		return d.svc.Medications.Prescribe(ctx, med)
	})
}

func (d *DashboardService) UpdateMedication(ctx context.Context, id string, med models.Medication) (*models.Medication, error) {
	return protect(d, "UpdateMedication", func() (*models.Medication, error) {
		return d.svc.Medications.Update(ctx, id, med)
	})
}

func (d *DashboardService) DeleteMedication(ctx context.Context, id string) error {
	return protectErr(d, "DeleteMedication", func() error {
		return d.svc.Medications.Delete(ctx, id)
	})
}

func (d *DashboardService) RecordAdherence(ctx context.Context, a models.MedicationAdherence) (*models.MedicationAdherence, error) {
	return protect(d, "RecordAdherence", func() (*models.MedicationAdherence, error) {
		return d.svc.Medications.RecordAdherence(ctx, a)
	})
}

func (d *DashboardService) AdherenceStatistics(ctx context.Context, patientID string) (*models.AdherenceStatistics, error) {
	return protect(d, "AdherenceStatistics", func() (*models.AdherenceStatistics, error) {
		return d.svc.Medications.AdherenceStatistics(ctx, patientID, d.svc.statsWindow())
	})
}

func (d *DashboardService) CheckInteractions(ctx context.Context, patientID string) (*models.InteractionReport, error) {
	return protect(d, "CheckInteractions", func() (*models.InteractionReport, error) {
		return d.svc.Medications.CheckInteractions(ctx, patientID)
	})
}

// Alerts

// PatientAlerts lists alerts and notifies any new critical ones
func (d *DashboardService) PatientAlerts(ctx context.Context, patientID string, filter resources.AlertFilter) ([]models.Alert, error) {
	return protect(d, "PatientAlerts", func() ([]models.Alert, error) {
		alerts, err := d.svc.Alerts.ForPatient(ctx, patientID, filter)
		if err != nil {
			return nil, err
		}
		if _, err := d.svc.Notifications.CheckAlerts(alerts); err != nil {
			d.logger.Warn("alert notice failed", zap.Error(err))
		}
		return alerts, nil
	})
}

func (d *DashboardService) RaiseAlert(ctx context.Context, alert models.Alert) (*models.Alert, error) {
	return protect(d, "RaiseAlert", func() (*models.Alert, error) {
		if alert.DoctorID == "" {
			alert.DoctorID = d.svc.doctorID()
		}
		return d.svc.Alerts.Raise(ctx, alert)
	})
}

// AcknowledgeAlert marks an alert handled by the signed-in doctor
func (d *DashboardService) AcknowledgeAlert(ctx context.Context, id, actionTaken string) (*models.Alert, error) {
	return protect(d, "AcknowledgeAlert", func() (*models.Alert, error) {
		return d.svc.Alerts.Acknowledge(ctx, id, d.svc.doctorID(), actionTaken)
	})
}

func (d *DashboardService) CriticalAlerts(ctx context.Context, patientID string) ([]models.Alert, error) {
	return protect(d, "CriticalAlerts", func() ([]models.Alert, error) {
		return d.svc.Alerts.Critical(ctx, patientID)
	})
}

func (d *DashboardService) AlertSummary(ctx context.Context) (*models.AlertSummary, error) {
	return protect(d, "AlertSummary", func() (*models.AlertSummary, error) {
		return d.svc.Alerts.Summary(ctx, d.svc.doctorID())
	})
}

// Analytics

func (d *DashboardService) PatientOverview(ctx context.Context, patientID string) (*models.PatientOverview, error) {
	return protect(d, "PatientOverview", func() (*models.PatientOverview, error) {
		return d.svc.Analytics.PatientOverview(ctx, patientID, d.svc.statsWindow())
	})
}

func (d *DashboardService) PopulationHealth(ctx context.Context) (models.PopulationHealth, error) {
	return protect(d, "PopulationHealth", func() (models.PopulationHealth, error) {
		return d.svc.Analytics.PopulationHealth(ctx, d.svc.doctorID())
	})
}

func (d *DashboardService) RiskStratification(ctx context.Context, patientID string) (*models.RiskStratification, error) {
	return protect(d, "RiskStratification", func() (*models.RiskStratification, error) {
		return d.svc.Analytics.RiskStratification(ctx, patientID)
	})
}

func (d *DashboardService) PatientTrends(ctx context.Context, patientID string) (*models.PatientTrends, error) {
	return protect(d, "PatientTrends", func() (*models.PatientTrends, error) {
		return d.svc.Analytics.Trends(ctx, patientID, d.svc.statsWindow())
	})
}

// Reports

// ReportStatistics fetches patients, appointments and every patient's
// predictions, then derives the report figures
func (d *DashboardService) ReportStatistics(ctx context.Context) (*stats.Summary, error) {
	return protect(d, "ReportStatistics", func() (*stats.Summary, error) {
		var (
			patients     []models.Patient
			appointments []models.Appointment
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			patients, err = d.svc.Patients.All(gctx)
			return err
		})
		g.Go(func() (err error) {
			appointments, err = d.svc.Appointments.List(gctx, nil)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		predictions, err := d.collectPredictions(ctx, patients)
		if err != nil {
			return nil, err
		}
		summary := stats.Summarize(patients, predictions, appointments)
		return &summary, nil
	})
}

// ExportResult is a rendered report ready to save
type ExportResult struct {
	Filename   string `json:"filename"`
	Data       []byte `json:"data"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// reportDocument loads the prediction and its patient. A patient that
// cannot be found is reported as not specified.
func (d *DashboardService) reportDocument(ctx context.Context, predictionID string) (report.Document, error) {
	pred, err := d.svc.Predictions.Get(ctx, predictionID)
	if err != nil {
		return report.Document{}, err
	}

	var patient *models.Patient
	if pred.PatientID != "" && pred.PatientID != models.AnonymousPatientID {
		patient, err = d.svc.Patients.Get(ctx, pred.PatientID)
		if err != nil && !api.IsKind(err, api.KindNotFound) {
			return report.Document{}, err
		}
	}
	return report.Build(pred, patient, d.now()), nil
}

// ExportReport renders a prediction as PDF. With archive set and an
// archive configured, a copy is uploaded as well.
func (d *DashboardService) ExportReport(ctx context.Context, predictionID string, archive bool) (*ExportResult, error) {
	return protect(d, "ExportReport", func() (*ExportResult, error) {
		doc, err := d.reportDocument(ctx, predictionID)
		if err != nil {
			return nil, err
		}
		data, err := report.PDF(doc)
		if err != nil {
			return nil, err
		}

		res := &ExportResult{Filename: report.Filename(doc), Data: data}
		if archive && d.svc.Archive != nil {
			key, err := d.svc.Archive.Put(ctx, res.Filename, data)
			if err != nil {
				return nil, err
			}
			res.ArchiveKey = key
		}
		d.logger.Info("report exported",
			zap.String("prediction_id", predictionID),
			zap.String("filename", res.Filename),
			zap.Bool("archived", res.ArchiveKey != ""),
		)
		return res, nil
	})
}

// ReportPreview renders the summary card as PNG
func (d *DashboardService) ReportPreview(ctx context.Context, predictionID string) ([]byte, error) {
	return protect(d, "ReportPreview", func() ([]byte, error) {
		doc, err := d.reportDocument(ctx, predictionID)
		if err != nil {
			return nil, err
		}
		return report.Preview(doc)
	})
}

// Settings

// GetSettings returns the current settings
func (d *DashboardService) GetSettings() *models.Settings {
	return d.svc.Settings.Clone()
}

// SaveSettings saves new settings
func (d *DashboardService) SaveSettings(settings *models.Settings) error {
	d.svc.Settings.Update(settings)
	d.svc.Notifications.UpdateSettings(d.svc.Settings)
	return d.svc.Settings.Save()
}
