// Package report renders a risk assessment into a printable document
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Title is printed at the top of every report
const Title = "Diabetes Risk Assessment Report"

// NotSpecified stands in for any missing patient field
const NotSpecified = "Not specified"

// Risk banners
const (
	HighRisk = "High Risk"
	LowRisk  = "Low Risk"
)

var highRiskRecommendations = []string{
	"Schedule a follow-up appointment with your healthcare provider",
	"Consider lifestyle modifications including diet and exercise",
	"Monitor blood glucose levels regularly",
	"Consider medication if recommended by your doctor",
}

var lowRiskRecommendations = []string{
	"Maintain a healthy lifestyle",
	"Continue regular check-ups",
	"Monitor risk factors",
}

// Recommendations returns the fixed list for the risk flag
func Recommendations(high bool) []string {
	src := lowRiskRecommendations
	if high {
		src = highRiskRecommendations
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Row is one label/value line in a table
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Document is everything a rendered report shows
type Document struct {
	Title           string    `json:"title"`
	PredictionID    string    `json:"predictionId"`
	PatientName     string    `json:"patientName"`
	Patient         []Row     `json:"patient"`
	Features        []Row     `json:"features"`
	HighRisk        bool      `json:"highRisk"`
	Risk            string    `json:"risk"`
	Confidence      float64   `json:"confidence"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generatedAt"`
	Footer          string    `json:"footer"`

	// named is false when the patient was absent or unnamed
	named bool
}

// Build assembles a report. patient may be nil; every missing patient
// field then reads NotSpecified.
func Build(prediction *models.Prediction, patient *models.Patient, generatedAt time.Time) Document {
	if prediction == nil {
		prediction = &models.Prediction{}
	}
	high := prediction.IsHighRisk()

	doc := Document{
		Title:           Title,
		PredictionID:    prediction.ID,
		PatientName:     NotSpecified,
		HighRisk:        high,
		Risk:            LowRisk,
		Confidence:      prediction.Confidence,
		Recommendations: Recommendations(high),
		GeneratedAt:     generatedAt,
		Footer:          "Report generated on: " + generatedAt.Format("2006-01-02"),
	}
	if high {
		doc.Risk = HighRisk
	}

	var name, email, phone, age, gender string
	if patient != nil {
		name = strings.TrimSpace(patient.Name)
		email = patient.Email
		phone = patient.Phone
		if patient.Age != nil {
			age = strconv.Itoa(*patient.Age)
		}
		gender = patient.Gender
	}
	if name != "" {
		doc.PatientName = name
		doc.named = true
	}
	doc.Patient = []Row{
		{"Name", doc.PatientName},
		{"Email", orNotSpecified(email)},
		{"Phone", orNotSpecified(phone)},
		{"Age", orNotSpecified(age)},
		{"Gender", orNotSpecified(gender)},
	}
	doc.Features = featureRows(prediction)
	return doc
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotSpecified
	}
	return s
}

func featureRows(p *models.Prediction) []Row {
	return []Row{
		{"Age", p.FeatureText("age")},
		{"Gender", genderText(p)},
		{"BMI", p.FeatureText("bmi")},
		{"HbA1c Level", p.FeatureText("HbA1c_level")},
		{"Blood Glucose Level", p.FeatureText("blood_glucose_level")},
		{"Hypertension", yesNo(p, "hypertension")},
		{"Heart Disease", yesNo(p, "heart_disease")},
		{"Smoking History", smokingText(p)},
	}
}

// genderText decodes the model's 1 = male, 0 = female encoding
func genderText(p *models.Prediction) string {
	if s, ok := p.InputData["gender"].(string); ok {
		return s
	}
	v, ok := p.Feature("gender")
	if !ok {
		return ""
	}
	if v == 1 {
		return models.GenderMale
	}
	return models.GenderFemale
}

func yesNo(p *models.Prediction, key string) string {
	v, ok := p.Feature(key)
	if !ok {
		return ""
	}
	if v == 1 {
		return "Yes"
	}
	return "No"
}

func smokingText(p *models.Prediction) string {
	if s, ok := p.InputData["smoking_history"].(string); ok {
		return s
	}
	v, ok := p.Feature("smoking_history")
	if !ok {
		return ""
	}
	if v == 0 {
		return "Never"
	}
	return "Current or former"
}

// Filename is the suggested file name for the PDF
func Filename(doc Document) string {
	name := "Patient"
	if doc.named {
		name = doc.PatientName
	}
	name = strings.NewReplacer(" ", "_", "/", "-", "\\", "-").Replace(name)
	return fmt.Sprintf("Diabetes_Risk_Assessment_%s_%s.pdf", name, doc.GeneratedAt.Format("2006-01-02"))
}
