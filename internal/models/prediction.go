package models

import (
	"strconv"
	"strings"
)

// Defaults used to pre-fill the risk assessment form
const (
	DefaultBMI         = 25.0
	DefaultHbA1cLevel  = 5.5
	SmokingNever       = "never"
	AnonymousPatientID = "anonymous"
	SystemDoctorID     = "system"
)

// FeatureVector holds the clinical inputs as the doctor enters them
type FeatureVector struct {
	Gender            string  `json:"gender" validate:"required"`
	Age               float64 `json:"age" validate:"gte=0,lte=120"`
	Hypertension      int     `json:"hypertension" validate:"oneof=0 1"`
	HeartDisease      int     `json:"heart_disease" validate:"oneof=0 1"`
	BMI               float64 `json:"bmi" validate:"gte=10,lte=60"`
	HbA1cLevel        float64 `json:"HbA1c_level" validate:"gt=0"`
	BloodGlucoseLevel float64 `json:"blood_glucose_level" validate:"gt=0"`
	SmokingHistory    string  `json:"smoking_history"`
}

// EncodedFeatures is the numeric form the model endpoint consumes
type EncodedFeatures struct {
	Gender            int     `json:"gender"`
	Age               float64 `json:"age"`
	Hypertension      int     `json:"hypertension"`
	HeartDisease      int     `json:"heart_disease"`
	BMI               float64 `json:"bmi"`
	HbA1cLevel        float64 `json:"HbA1c_level"`
	BloodGlucoseLevel float64 `json:"blood_glucose_level"`
	SmokingHistory    int     `json:"smoking_history"`
}

// Validate checks required fields and ranges
func (f *FeatureVector) Validate() error {
	return validateStruct(f)
}

// SmokingFlag maps the smoking history to 0 for never smokers and 1 otherwise
func (f *FeatureVector) SmokingFlag() int {
	s := strings.ToLower(strings.TrimSpace(f.SmokingHistory))
	if s == "" || s == SmokingNever {
		return 0
	}
	return 1
}

// Encode converts the form values into model inputs
func (f *FeatureVector) Encode() EncodedFeatures {
	gender := 0
	if f.Gender == GenderMale {
		gender = 1
	}
	return EncodedFeatures{
		Gender:            gender,
		Age:               f.Age,
		Hypertension:      f.Hypertension,
		HeartDisease:      f.HeartDisease,
		BMI:               f.BMI,
		HbA1cLevel:        f.HbA1cLevel,
		BloodGlucoseLevel: f.BloodGlucoseLevel,
		SmokingHistory:    f.SmokingFlag(),
	}
}

// FeatureVectorFromPatient pre-fills a vector from a patient record.
// BMI falls back to DefaultBMI when height or weight is missing.
func FeatureVectorFromPatient(p *Patient, hba1c, glucose float64) FeatureVector {
	fv := FeatureVector{
		Gender:            GenderFemale,
		HbA1cLevel:        DefaultHbA1cLevel,
		BloodGlucoseLevel: glucose,
		BMI:               DefaultBMI,
		SmokingHistory:    SmokingNever,
	}
	if hba1c > 0 {
		fv.HbA1cLevel = hba1c
	}
	if p == nil {
		return fv
	}
	if p.Gender != "" {
		fv.Gender = p.Gender
	}
	fv.Age = float64(p.AgeOrZero())
	if bmi, ok := p.BMI(); ok {
		fv.BMI = bmi
	}
	return fv
}

// PredictionRequest is posted to the prediction endpoint.
// Prediction and Confidence are placeholders the server overwrites.
type PredictionRequest struct {
	PatientID  string          `json:"patient_id"`
	DoctorID   string          `json:"doctor_id"`
	Prediction float64         `json:"prediction"`
	Confidence float64         `json:"confidence"`
	InputData  EncodedFeatures `json:"input_data"`
	Notes      string          `json:"notes"`
}

// NewPredictionRequest builds a request with the usual fallbacks for
// a missing patient or doctor
func NewPredictionRequest(patientID, doctorID string, fv FeatureVector, notes string) PredictionRequest {
	if patientID == "" {
		patientID = AnonymousPatientID
	}
	if doctorID == "" {
		doctorID = SystemDoctorID
	}
	return PredictionRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		InputData: fv.Encode(),
		Notes:     notes,
	}
}

// RiskFlag is the model outcome. The backend has sent it as a number and
// as a boolean, so both are accepted.
type RiskFlag struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RiskFlag) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch s {
	case "null", "":
		*r = RiskFlag{}
	case "true":
		*r = RiskFlag{Value: 1, Set: true}
	case "false":
		*r = RiskFlag{Value: 0, Set: true}
	default:
		v, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
		if err != nil {
			return err
		}
		*r = RiskFlag{Value: v, Set: true}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (r RiskFlag) MarshalJSON() ([]byte, error) {
	if !r.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(r.Value, 'f', -1, 64)), nil
}

// High reports an outcome of exactly 1
func (r RiskFlag) High() bool { return r.Set && r.Value == 1 }

// Low reports an outcome of exactly 0
func (r RiskFlag) Low() bool { return r.Set && r.Value == 0 }

// Prediction is a stored model result
type Prediction struct {
	ID         string         `json:"id"`
	PatientID  string         `json:"patient_id"`
	DoctorID   string         `json:"doctor_id"`
	Prediction RiskFlag       `json:"prediction"`
	Confidence float64        `json:"confidence"`
	InputData  map[string]any `json:"input_data"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  Timestamp      `json:"created_at"`
}

// IsHighRisk reports whether the model flagged the patient
func (p *Prediction) IsHighRisk() bool {
	return p.Prediction.High()
}

// Feature returns a numeric input value
func (p *Prediction) Feature(key string) (float64, bool) {
	v, ok := p.InputData[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// FeatureText returns an input value formatted for display
func (p *Prediction) FeatureText(key string) string {
	v, ok := p.InputData[key]
	if !ok || v == nil {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	if f, isNum := p.Feature(key); isNum {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
