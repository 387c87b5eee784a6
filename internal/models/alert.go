package models

// AlertType categorises a clinical alert
type AlertType string

const (
	AlertCriticalGlucose       AlertType = "critical_glucose"
	AlertMedicationDue         AlertType = "medication_due"
	AlertAppointmentReminder   AlertType = "appointment_reminder"
	AlertLabResultReady        AlertType = "lab_result_ready"
	AlertScreeningOverdue      AlertType = "screening_overdue"
	AlertAbnormalLabValue      AlertType = "abnormal_lab_value"
	AlertPatientDeterioration  AlertType = "patient_deterioration"
	AlertMedicationInteraction AlertType = "medication_interaction"
)

// Severity of an alert
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a clinical alert raised for a patient
type Alert struct {
	ID             string         `json:"id,omitempty"`
	PatientID      string         `json:"patient_id" validate:"required"`
	DoctorID       string         `json:"doctor_id,omitempty"`
	AlertType      AlertType      `json:"alert_type" validate:"required"`
	Severity       Severity       `json:"severity" validate:"required,oneof=info warning critical"`
	Title          string         `json:"title" validate:"required"`
	Message        string         `json:"message" validate:"required"`
	Acknowledged   bool           `json:"acknowledged"`
	AcknowledgedAt *Timestamp     `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string         `json:"acknowledged_by,omitempty"`
	ActionRequired bool           `json:"action_required"`
	ActionTaken    string         `json:"action_taken,omitempty"`
	RelatedData    map[string]any `json:"related_data,omitempty"`
	CreatedAt      Timestamp      `json:"created_at,omitempty"`
}

// Validate checks the alert before it is sent
func (a *Alert) Validate() error {
	return validateStruct(a)
}

// NeedsAttention reports an unacknowledged critical alert
func (a *Alert) NeedsAttention() bool {
	return !a.Acknowledged && a.Severity == SeverityCritical
}

// AlertSummary counts a doctor's alerts
type AlertSummary struct {
	DoctorID               string `json:"doctor_id"`
	TotalAlerts            int    `json:"total_alerts"`
	Unacknowledged         int    `json:"unacknowledged"`
	CriticalUnacknowledged int    `json:"critical_unacknowledged"`
	WarningUnacknowledged  int    `json:"warning_unacknowledged"`
}
