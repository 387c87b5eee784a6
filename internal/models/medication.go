package models

// Frequency is how often a medication is taken
type Frequency string

const (
	FrequencyOnceDaily       Frequency = "once_daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyFourTimesDaily  Frequency = "four_times_daily"
	FrequencyAsNeeded        Frequency = "as_needed"
	FrequencyWeekly          Frequency = "weekly"
	FrequencyMonthly         Frequency = "monthly"
)

// Medication is a prescription for a patient
type Medication struct {
	ID                string     `json:"id,omitempty"`
	PatientID         string     `json:"patient_id" validate:"required"`
	MedicationName    string     `json:"medication_name" validate:"required"`
	Dosage            string     `json:"dosage" validate:"required"`
	Frequency         Frequency  `json:"frequency" validate:"required,oneof=once_daily twice_daily three_times_daily four_times_daily as_needed weekly monthly"`
	Route             string     `json:"route"`
	StartDate         Timestamp  `json:"start_date"`
	EndDate           *Timestamp `json:"end_date,omitempty"`
	PrescribingDoctor string     `json:"prescribing_doctor" validate:"required"`
	Instructions      string     `json:"instructions,omitempty"`
	Purpose           string     `json:"purpose,omitempty"`
	Active            bool       `json:"active"`
	SideEffects       []string   `json:"side_effects"`
	CreatedAt         Timestamp  `json:"created_at,omitempty"`
	UpdatedAt         Timestamp  `json:"updated_at,omitempty"`
}

// Validate checks the prescription before it is sent
func (m *Medication) Validate() error {
	if m.Route == "" {
		m.Route = "oral"
	}
	if err := validateStruct(m); err != nil {
		return err
	}
	if m.StartDate.IsZero() {
		return NewValidationError("start_date", "is required")
	}
	return nil
}

// MedicationAdherence records whether a scheduled dose was taken
type MedicationAdherence struct {
	ID                string     `json:"id,omitempty"`
	PatientID         string     `json:"patient_id" validate:"required"`
	MedicationID      string     `json:"medication_id" validate:"required"`
	ScheduledDatetime Timestamp  `json:"scheduled_datetime"`
	Taken             bool       `json:"taken"`
	TakenDatetime     *Timestamp `json:"taken_datetime,omitempty"`
	MissedReason      string     `json:"missed_reason,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         Timestamp  `json:"created_at,omitempty"`
}

// Validate checks the record before it is sent
func (a *MedicationAdherence) Validate() error {
	return validateStruct(a)
}

// AdherenceStatistics is the server adherence summary
type AdherenceStatistics struct {
	PatientID      string  `json:"patient_id"`
	PeriodDays     int     `json:"period_days"`
	TotalScheduled int     `json:"total_scheduled"`
	TotalTaken     int     `json:"total_taken"`
	TotalMissed    int     `json:"total_missed"`
	AdherenceRate  float64 `json:"adherence_rate"`
}

// InteractionWarning flags a risky combination of active medications
type InteractionWarning struct {
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	Medications []string `json:"medications"`
}

// InteractionReport is the server's interaction check over active medications
type InteractionReport struct {
	PatientID        string               `json:"patient_id"`
	TotalMedications int                  `json:"total_medications"`
	Medications      []string             `json:"medications"`
	Interactions     []InteractionWarning `json:"interactions"`
	Warnings         []InteractionWarning `json:"warnings"`
}
