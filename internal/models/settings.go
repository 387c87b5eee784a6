// Package models contains data structures used throughout the application
package models

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/goccy/go-json"
)

const appDirName = "diabetes-dashboard"

// Glucose display units
const (
	UnitMgDL  = "mg/dL"
	UnitMmolL = "mmol/L"
)

// Settings contains the user's dashboard preferences
type Settings struct {
	mu sync.RWMutex `json:"-"`

	// Connection override; empty means use DASHBOARD_API_URL
	APIURL string `json:"apiUrl"`

	// Display settings
	Unit            string `json:"unit"`            // "mg/dL" or "mmol/L"
	StatsWindowDays int    `json:"statsWindowDays"` // Days of glucose history for statistics

	// Glucose thresholds (in mg/dL, converted for display)
	TargetLow  int `json:"targetLow"`
	TargetHigh int `json:"targetHigh"`
	UrgentLow  int `json:"urgentLow"`
	UrgentHigh int `json:"urgentHigh"`

	// Alert settings
	EnableHighAlert       bool `json:"enableHighAlert"`
	EnableLowAlert        bool `json:"enableLowAlert"`
	EnableUrgentHighAlert bool `json:"enableUrgentHighAlert"`
	EnableUrgentLowAlert  bool `json:"enableUrgentLowAlert"`
	EnableCriticalAlerts  bool `json:"enableCriticalAlerts"`
	EnableSessionNotice   bool `json:"enableSessionNotice"`
	RepeatAlertMinutes    int  `json:"repeatAlertMinutes"` // 0 = no repeat

	// Scheduling
	DefaultAppointmentMinutes int `json:"defaultAppointmentMinutes"`

	// Window state (not user-configurable)
	WindowWidth  int `json:"windowWidth"`
	WindowHeight int `json:"windowHeight"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		Unit:            UnitMgDL,
		StatsWindowDays: 30,

		TargetLow:  70,
		TargetHigh: 180,
		UrgentLow:  55,
		UrgentHigh: 250,

		EnableHighAlert:       true,
		EnableLowAlert:        true,
		EnableUrgentHighAlert: true,
		EnableUrgentLowAlert:  true,
		EnableCriticalAlerts:  true,
		EnableSessionNotice:   true,
		RepeatAlertMinutes:    15,

		DefaultAppointmentMinutes: 30,

		WindowWidth:  1280,
		WindowHeight: 820,
	}
}

// GetConfigDir returns the configuration directory path.
// DASHBOARD_CONFIG_DIR overrides the per-OS location.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("DASHBOARD_CONFIG_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", err
		}
		return dir, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	appDir := filepath.Join(configDir, appDirName)
	if err := os.MkdirAll(appDir, 0750); err != nil {
		return "", err
	}

	return appDir, nil
}

// GetConfigPath returns the full path to the settings file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load loads settings from disk
func (s *Settings) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path) //nolint:gosec // Config path is controlled by the app, not user input
	if err != nil {
		if os.IsNotExist(err) {
			s.copySettingsFields(DefaultSettings())
			return nil
		}
		return err
	}

	return json.Unmarshal(data, s)
}

// Save saves settings to disk
func (s *Settings) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Clone creates a copy of the settings
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Settings{}
	clone.copySettingsFields(s)
	return clone
}

// Update updates settings from another Settings object
func (s *Settings) Update(other *Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	s.copySettingsFields(other)
}

// copySettingsFields copies all fields from other to s, excluding the mutex.
// The caller must hold the necessary locks.
func (s *Settings) copySettingsFields(other *Settings) {
	s.APIURL = other.APIURL
	s.Unit = other.Unit
	s.StatsWindowDays = other.StatsWindowDays
	s.TargetLow = other.TargetLow
	s.TargetHigh = other.TargetHigh
	s.UrgentLow = other.UrgentLow
	s.UrgentHigh = other.UrgentHigh
	s.EnableHighAlert = other.EnableHighAlert
	s.EnableLowAlert = other.EnableLowAlert
	s.EnableUrgentHighAlert = other.EnableUrgentHighAlert
	s.EnableUrgentLowAlert = other.EnableUrgentLowAlert
	s.EnableCriticalAlerts = other.EnableCriticalAlerts
	s.EnableSessionNotice = other.EnableSessionNotice
	s.RepeatAlertMinutes = other.RepeatAlertMinutes
	s.DefaultAppointmentMinutes = other.DefaultAppointmentMinutes
	s.WindowWidth = other.WindowWidth
	s.WindowHeight = other.WindowHeight
}

// ResolveAPIURL returns the settings override when set, else fallback
func (s *Settings) ResolveAPIURL(fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.APIURL != "" {
		return s.APIURL
	}
	return fallback
}

// GetGlucoseStatus returns the status string for a glucose value
func (s *Settings) GetGlucoseStatus(mgdl float64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case mgdl <= float64(s.UrgentLow):
		return GlucoseUrgentLow
	case mgdl <= float64(s.TargetLow):
		return GlucoseLow
	case mgdl >= float64(s.UrgentHigh):
		return GlucoseUrgentHigh
	case mgdl >= float64(s.TargetHigh):
		return GlucoseHigh
	default:
		return GlucoseNormal
	}
}
