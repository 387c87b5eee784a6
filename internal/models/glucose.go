package models

import (
	"sort"
	"time"
)

// mgdlPerMmol converts between mg/dL and mmol/L
const mgdlPerMmol = 18.0182

// Glucose classification strings
const (
	GlucoseUrgentLow  = "urgent_low"
	GlucoseLow        = "low"
	GlucoseNormal     = "normal"
	GlucoseHigh       = "high"
	GlucoseUrgentHigh = "urgent_high"
)

// ReadingType tells when a glucose reading was taken
type ReadingType string

const (
	ReadingFasting  ReadingType = "fasting"
	ReadingPostMeal ReadingType = "post_meal"
	ReadingBedtime  ReadingType = "bedtime"
	ReadingRandom   ReadingType = "random"
	ReadingPreMeal  ReadingType = "pre_meal"
)

// GlucoseReading represents a single glucose measurement for a patient
type GlucoseReading struct {
	ID              string      `json:"id,omitempty"`
	PatientID       string      `json:"patient_id" validate:"required"`
	ReadingType     ReadingType `json:"reading_type" validate:"required,oneof=fasting post_meal bedtime random pre_meal"`
	GlucoseValue    float64     `json:"glucose_value" validate:"gt=0,lte=600"` // mg/dL
	ReadingDatetime Timestamp   `json:"reading_datetime"`
	Notes           string      `json:"notes,omitempty"`
	MealContext     string      `json:"meal_context,omitempty"`
	Symptoms        []string    `json:"symptoms"`
	CreatedAt       Timestamp   `json:"created_at,omitempty"`
}

// Validate checks the reading before it is sent
func (g *GlucoseReading) Validate() error {
	if err := validateStruct(g); err != nil {
		return err
	}
	if g.ReadingDatetime.IsZero() {
		return NewValidationError("reading_datetime", "is required")
	}
	return nil
}

// Time returns the time of the reading
func (g *GlucoseReading) Time() time.Time {
	return g.ReadingDatetime.Time
}

// ValueMmolL returns the glucose value in mmol/L
func (g *GlucoseReading) ValueMmolL() float64 {
	return g.GlucoseValue / mgdlPerMmol
}

// GlucoseStatistics is the server summary over a window of days
type GlucoseStatistics struct {
	PatientID      string  `json:"patient_id"`
	PeriodDays     int     `json:"period_days"`
	TotalReadings  int     `json:"total_readings"`
	Average        float64 `json:"average"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	TimeInRange    float64 `json:"time_in_range"`
	TimeAboveRange float64 `json:"time_above_range"`
	TimeBelowRange float64 `json:"time_below_range"`
}

// HbA1cReading represents a lab HbA1c result
type HbA1cReading struct {
	ID         string    `json:"id,omitempty"`
	PatientID  string    `json:"patient_id" validate:"required"`
	HbA1cValue float64   `json:"hba1c_value" validate:"gt=0,lte=20"` // percent
	TestDate   Timestamp `json:"test_date"`
	LabName    string    `json:"lab_name,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  Timestamp `json:"created_at,omitempty"`
}

// Validate checks the reading before it is sent
func (h *HbA1cReading) Validate() error {
	if err := validateStruct(h); err != nil {
		return err
	}
	if h.TestDate.IsZero() {
		return NewValidationError("test_date", "is required")
	}
	return nil
}

// HbA1cPoint is one value in an HbA1c trend
type HbA1cPoint struct {
	Date  Timestamp `json:"date"`
	Value float64   `json:"value"`
}

// HbA1cTrend is the server trend analysis
type HbA1cTrend struct {
	PatientID     string       `json:"patient_id"`
	TotalReadings int          `json:"total_readings"`
	Trend         string       `json:"trend"` // improving, stable, worsening, insufficient_data
	LatestValue   *float64     `json:"latest_value"`
	PreviousValue *float64     `json:"previous_value,omitempty"`
	Change        float64      `json:"change"`
	Readings      []HbA1cPoint `json:"readings,omitempty"`
}

// GlucoseStatus represents the latest glucose state of a patient for display
type GlucoseStatus struct {
	PatientID    string    `json:"patientId"`
	Value        float64   `json:"value"`     // mg/dL
	ValueMmol    float64   `json:"valueMmol"` // mmol/L
	ReadingType  string    `json:"readingType"`
	Time         time.Time `json:"time"`
	Delta        float64   `json:"delta"`  // Change from previous reading
	Status       string    `json:"status"` // "normal", "high", "low", "urgent_high", "urgent_low"
	StaleMinutes int       `json:"staleMinutes"`
}

// LatestStatus summarises the newest reading. ok is false for no readings.
func LatestStatus(readings []GlucoseReading, settings *Settings, now time.Time) (*GlucoseStatus, bool) {
	if len(readings) == 0 {
		return nil, false
	}
	sorted := sortedReadings(readings)
	latest := sorted[len(sorted)-1]

	status := &GlucoseStatus{
		PatientID:    latest.PatientID,
		Value:        latest.GlucoseValue,
		ValueMmol:    latest.ValueMmolL(),
		ReadingType:  string(latest.ReadingType),
		Time:         latest.Time(),
		Status:       settings.GetGlucoseStatus(latest.GlucoseValue),
		StaleMinutes: int(now.Sub(latest.Time()).Minutes()),
	}
	if len(sorted) > 1 {
		status.Delta = latest.GlucoseValue - sorted[len(sorted)-2].GlucoseValue
	}
	return status, true
}

// ChartData represents data for the glucose chart
type ChartData struct {
	Entries    []ChartEntry `json:"entries"`
	TargetLow  int          `json:"targetLow"`
	TargetHigh int          `json:"targetHigh"`
	UrgentLow  int          `json:"urgentLow"`
	UrgentHigh int          `json:"urgentHigh"`
	Unit       string       `json:"unit"` // "mg/dL" or "mmol/L"
}

// ChartEntry represents a single point on the chart
type ChartEntry struct {
	Time    int64   `json:"time"`    // Unix timestamp in milliseconds
	Value   float64 `json:"value"`   // Value in selected unit
	ValueMg float64 `json:"valueMg"` // Original mg/dL value
	Status  string  `json:"status"`  // Status for coloring
}

// BuildChart converts readings into chart points in the preferred unit, oldest first
func BuildChart(readings []GlucoseReading, settings *Settings) *ChartData {
	s := settings.Clone()
	useMmol := s.Unit == UnitMmolL

	sorted := sortedReadings(readings)
	entries := make([]ChartEntry, len(sorted))
	for i, r := range sorted {
		value := r.GlucoseValue
		if useMmol {
			value = r.ValueMmolL()
		}
		entries[i] = ChartEntry{
			Time:    r.Time().UnixMilli(),
			Value:   value,
			ValueMg: r.GlucoseValue,
			Status:  s.GetGlucoseStatus(r.GlucoseValue),
		}
	}

	return &ChartData{
		Entries:    entries,
		TargetLow:  s.TargetLow,
		TargetHigh: s.TargetHigh,
		UrgentLow:  s.UrgentLow,
		UrgentHigh: s.UrgentHigh,
		Unit:       s.Unit,
	}
}

func sortedReadings(readings []GlucoseReading) []GlucoseReading {
	sorted := make([]GlucoseReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().Before(sorted[j].Time())
	})
	return sorted
}
