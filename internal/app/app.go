// Package app wires the dashboard stack and exposes it to the desktop shell
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/auth"
	"github.com/mrcode/diabetes-dashboard/internal/config"
	"github.com/mrcode/diabetes-dashboard/internal/guard"
	"github.com/mrcode/diabetes-dashboard/internal/models"
	"github.com/mrcode/diabetes-dashboard/internal/notifications"
	"github.com/mrcode/diabetes-dashboard/internal/report"
	"github.com/mrcode/diabetes-dashboard/internal/resources"
	"github.com/mrcode/diabetes-dashboard/internal/session"
	"github.com/mrcode/diabetes-dashboard/internal/tokenstore"
)

// Services holds everything the desktop service calls into
type Services struct {
	Settings *models.Settings
	Logger   *zap.Logger

	Store   tokenstore.Store
	Client  *api.Client
	Session *session.Session
	Router  *guard.Router

	Patients     *resources.Patients
	Predictions  *resources.Predictions
	Appointments *resources.Appointments
	Glucose      *resources.Glucose
	Medications  *resources.Medications
	Alerts       *resources.Alerts
	Analytics    *resources.Analytics

	Notifications *notifications.Manager

	// Archive is nil when report archiving is not configured
	Archive report.Archive
}

// Build wires the stack from configuration: token store, client, auth,
// session and the resource services
func Build(cfg *config.Config, settings *models.Settings, logger *zap.Logger) (*Services, error) {
	store, err := tokenstore.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	baseURL := settings.ResolveAPIURL(cfg.API.BaseURL)
	svc, err := NewServices(baseURL, store, settings, logger, api.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, err
	}

	if cfg.Report.ArchiveEnabled() {
		archive, err := report.NewMinioArchive(cfg.Report)
		if err != nil {
			// Export still works without the archive
			logger.Warn("report archive disabled", zap.Error(err))
		} else {
			svc.Archive = archive
		}
	}
	return svc, nil
}

// NewServices wires the stack around an existing token store
func NewServices(baseURL string, store tokenstore.Store, settings *models.Settings, logger *zap.Logger, opts ...api.Option) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings == nil {
		settings = models.DefaultSettings()
	}

	opts = append([]api.Option{api.WithLogger(logger)}, opts...)
	client, err := api.NewClient(baseURL, store, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	sess := session.New(auth.NewService(client, store, logger), session.WithLogger(logger))
	client.SetUnauthenticatedHook(sess.Expire)

	s := settings.Clone()
	return &Services{
		Settings:      settings,
		Logger:        logger,
		Store:         store,
		Client:        client,
		Session:       sess,
		Router:        guard.NewRouter(),
		Patients:      resources.NewPatients(client),
		Predictions:   resources.NewPredictions(client),
		Appointments:  resources.NewAppointments(client, s.DefaultAppointmentMinutes),
		Glucose:       resources.NewGlucose(client),
		Medications:   resources.NewMedications(client),
		Alerts:        resources.NewAlerts(client),
		Analytics:     resources.NewAnalytics(client),
		Notifications: notifications.NewManager(settings),
	}, nil
}

// statsWindow returns the configured window in days
func (s *Services) statsWindow() int {
	days := s.Settings.Clone().StatsWindowDays
	if days <= 0 {
		days = 30
	}
	return days
}

// doctorID is the signed-in doctor's badge, empty when signed out
func (s *Services) doctorID() string {
	if u := s.Session.Snapshot().User; u != nil {
		return u.BadgeID
	}
	return ""
}
