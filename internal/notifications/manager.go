// Package notifications handles desktop notifications for sessions, alerts and readings
package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Alert type constants
const (
	alertUrgentLow  = models.GlucoseUrgentLow
	alertLow        = models.GlucoseLow
	alertUrgentHigh = models.GlucoseUrgentHigh
	alertHigh       = models.GlucoseHigh
)

const appName = "Diabetes Dashboard"

// Notifier delivers one notification
type Notifier func(title, message string) error

func desktopNotify(title, message string) error {
	// Use beeep for cross-platform notifications
	return beeep.Notify(title, message, "")
}

// Manager decides which clinical events reach the desktop
type Manager struct {
	settings      *models.Settings
	lastAlertTime map[string]time.Time
	mu            sync.Mutex

	// Notify sends the notification; tests replace it
	Notify Notifier
	now    func() time.Time
}

// NewManager creates a new notification manager
func NewManager(settings *models.Settings) *Manager {
	return &Manager{
		settings:      settings,
		lastAlertTime: make(map[string]time.Time),
		Notify:        desktopNotify,
		now:           time.Now,
	}
}

// UpdateSettings updates the settings reference
func (m *Manager) UpdateSettings(settings *models.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

// NotifySessionExpired tells the doctor they were signed out
func (m *Manager) NotifySessionExpired() error {
	m.mu.Lock()
	enabled := m.settings.Clone().EnableSessionNotice
	m.mu.Unlock()
	if !enabled {
		return nil
	}
	return m.Notify("Session expired", "Your session has expired. Please log in again.")
}

// due reports whether key may fire now, honouring the repeat window.
// Without a repeat window a key fires once until cleared.
func (m *Manager) due(key string, s *models.Settings) bool {
	last, ok := m.lastAlertTime[key]
	if !ok {
		return true
	}
	if s.RepeatAlertMinutes <= 0 {
		return false
	}
	return m.now().Sub(last) >= time.Duration(s.RepeatAlertMinutes)*time.Minute
}

// CheckAlerts notifies unacknowledged critical alerts, once per alert
// within the repeat window. It returns how many were sent.
func (m *Manager) CheckAlerts(alerts []models.Alert) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.settings.Clone()
	if !s.EnableCriticalAlerts {
		return 0, nil
	}

	sent := 0
	for i := range alerts {
		a := &alerts[i]
		if !a.NeedsAttention() || a.ID == "" {
			continue
		}
		key := "alert:" + a.ID
		if !m.due(key, s) {
			continue
		}
		if err := m.Notify("⚠️ "+a.Title, a.Message); err != nil {
			return sent, err
		}
		m.lastAlertTime[key] = m.now()
		sent++
	}
	return sent, nil
}

// CheckReading notifies when a reading falls outside the target range
// and the matching alert is enabled. patientName may be empty.
func (m *Manager) CheckReading(reading models.GlucoseReading, patientName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.settings.Clone()
	alertType := shouldAlert(s, s.GetGlucoseStatus(reading.GlucoseValue))
	if alertType == "" {
		return nil
	}

	key := "glucose:" + reading.PatientID + ":" + alertType
	if !m.due(key, s) {
		return nil
	}

	title, message := formatNotification(s, &reading, patientName, alertType)
	if err := m.Notify(title, message); err != nil {
		return err
	}

	m.lastAlertTime[key] = m.now()
	return nil
}

// shouldAlert maps a glucose status to an enabled alert type
func shouldAlert(s *models.Settings, status string) string {
	switch status {
	case alertUrgentLow:
		if s.EnableUrgentLowAlert {
			return alertUrgentLow
		}
	case alertLow:
		if s.EnableLowAlert {
			return alertLow
		}
	case alertUrgentHigh:
		if s.EnableUrgentHighAlert {
			return alertUrgentHigh
		}
	case alertHigh:
		if s.EnableHighAlert {
			return alertHigh
		}
	}
	return ""
}

// formatNotification creates the notification title and message
func formatNotification(s *models.Settings, r *models.GlucoseReading, patientName, alertType string) (string, string) {
	var title, message string
	var valueStr string

	if s.Unit == models.UnitMmolL {
		valueStr = fmt.Sprintf("%.1f mmol/L", r.ValueMmolL())
	} else {
		valueStr = fmt.Sprintf("%.0f mg/dL", r.GlucoseValue)
	}

	who := patientName
	if who == "" {
		who = "Patient"
	}

	switch alertType {
	case alertUrgentLow:
		title = "⚠️ URGENT LOW GLUCOSE"
		message = fmt.Sprintf("%s is critically low: %s", who, valueStr)
	case alertLow:
		title = "⬇️ Low Glucose"
		message = fmt.Sprintf("%s is low: %s", who, valueStr)
	case alertUrgentHigh:
		title = "⚠️ URGENT HIGH GLUCOSE"
		message = fmt.Sprintf("%s is critically high: %s", who, valueStr)
	case alertHigh:
		title = "⬆️ High Glucose"
		message = fmt.Sprintf("%s is high: %s", who, valueStr)
	}

	return title, message
}

// ClearAlertState clears the alert state for a specific key or all keys
func (m *Manager) ClearAlertState(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key == "" {
		m.lastAlertTime = make(map[string]time.Time)
	} else {
		delete(m.lastAlertTime, key)
	}
}

// SendTestNotification sends a test notification
func (m *Manager) SendTestNotification() error {
	return m.Notify(appName, "Test notification - alerts are working!")
}
