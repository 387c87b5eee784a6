package models

import "math"

// Gender buckets used for statistics and the model input
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Patient is a patient record owned by the signed-in doctor
type Patient struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Age                *int      `json:"age,omitempty"`
	Gender             string    `json:"gender,omitempty"`
	Address            string    `json:"address,omitempty"`
	Height             *float64  `json:"height,omitempty"` // cm
	Weight             *float64  `json:"weight,omitempty"` // kg
	BloodPressure      string    `json:"blood_pressure,omitempty"`
	BloodType          string    `json:"blood_type,omitempty"`
	Allergies          []string  `json:"allergies"`
	CurrentMedications []string  `json:"current_medications"`
	MedicalHistory     string    `json:"medical_history,omitempty"`
	FamilyHistory      string    `json:"family_history,omitempty"`
	GeneralState       string    `json:"general_state,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	DoctorID           string    `json:"doctor_id,omitempty"`
	CreatedAt          Timestamp `json:"created_at,omitempty"`
	UpdatedAt          Timestamp `json:"updated_at,omitempty"`
}

// PatientDraft is the body for creating a patient or replacing one.
// Update sends the whole draft; fields left empty are cleared on the server.
type PatientDraft struct {
	Name               string   `json:"name" validate:"required,min=2"`
	Email              string   `json:"email" validate:"required,email"`
	Phone              string   `json:"phone,omitempty" validate:"omitempty,phone"`
	Age                *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=120"`
	Gender             string   `json:"gender,omitempty"`
	Address            string   `json:"address,omitempty"`
	Height             *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
	Weight             *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	BloodPressure      string   `json:"blood_pressure,omitempty"`
	BloodType          string   `json:"blood_type,omitempty"`
	Allergies          []string `json:"allergies"`
	CurrentMedications []string `json:"current_medications"`
	MedicalHistory     string   `json:"medical_history,omitempty"`
	FamilyHistory      string   `json:"family_history,omitempty"`
	GeneralState       string   `json:"general_state,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// Validate checks the draft before it is sent
func (d *PatientDraft) Validate() error {
	return validateStruct(d)
}

// Draft returns the editable subset of the patient
func (p *Patient) Draft() PatientDraft {
	return PatientDraft{
		Name:               p.Name,
		Email:              p.Email,
		Phone:              p.Phone,
		Age:                p.Age,
		Gender:             p.Gender,
		Address:            p.Address,
		Height:             p.Height,
		Weight:             p.Weight,
		BloodPressure:      p.BloodPressure,
		BloodType:          p.BloodType,
		Allergies:          p.Allergies,
		CurrentMedications: p.CurrentMedications,
		MedicalHistory:     p.MedicalHistory,
		FamilyHistory:      p.FamilyHistory,
		GeneralState:       p.GeneralState,
		Notes:              p.Notes,
	}
}

// AgeOrZero returns the age, or 0 when it was never recorded
func (p *Patient) AgeOrZero() int {
	if p.Age == nil {
		return 0
	}
	return *p.Age
}

// BMI returns weight / (height in m)^2 rounded to one decimal.
// ok is false when height or weight is missing.
func (p *Patient) BMI() (float64, bool) {
	if p.Height == nil || p.Weight == nil {
		return 0, false
	}
	return CalculateBMI(*p.Height, *p.Weight)
}

// CalculateBMI computes BMI from height in cm and weight in kg
func CalculateBMI(heightCM, weightKG float64) (float64, bool) {
	if heightCM <= 0 || weightKG <= 0 {
		return 0, false
	}
	m := heightCM / 100
	return math.Round(weightKG/(m*m)*10) / 10, true
}

// IntPtr is a helper for optional integer fields
func IntPtr(v int) *int { return &v }

// FloatPtr is a helper for optional float fields
func FloatPtr(v float64) *float64 { return &v }
