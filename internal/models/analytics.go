package models

// PatientOverview is the per-patient metric roll-up computed by the server
type PatientOverview struct {
	PatientID  string `json:"patient_id"`
	PeriodDays int    `json:"period_days"`
	Glucose    struct {
		Average       float64 `json:"average"`
		TotalReadings int     `json:"total_readings"`
	} `json:"glucose"`
	HbA1c struct {
		LatestValue *float64   `json:"latest_value"`
		TestDate    *Timestamp `json:"test_date"`
	} `json:"hba1c"`
	MedicationAdherence struct {
		Rate           float64 `json:"rate"`
		TotalScheduled int     `json:"total_scheduled"`
		TotalTaken     int     `json:"total_taken"`
	} `json:"medication_adherence"`
	Activity struct {
		TotalMinutes        float64 `json:"total_minutes"`
		AverageDailyMinutes float64 `json:"average_daily_minutes"`
	} `json:"activity"`
	Alerts struct {
		CriticalUnacknowledged int `json:"critical_unacknowledged"`
	} `json:"alerts"`
}

// RiskStratification is the server's rule-based risk grading
type RiskStratification struct {
	PatientID       string   `json:"patient_id"`
	RiskLevel       string   `json:"risk_level"` // high, moderate, low
	RiskScore       int      `json:"risk_score"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// TrendPoint is one dated value in a trend series
type TrendPoint struct {
	Date  Timestamp `json:"date"`
	Value float64   `json:"value"`
	Type  string    `json:"type,omitempty"`
}

// PatientTrends holds the series used by the analytics charts
type PatientTrends struct {
	PatientID    string       `json:"patient_id"`
	PeriodDays   int          `json:"period_days"`
	GlucoseTrend []TrendPoint `json:"glucose_trend"`
	HbA1cTrend   []TrendPoint `json:"hba1c_trend"`
}

// PopulationHealth is loosely structured; sections vary between server versions
type PopulationHealth map[string]any

// Section returns a nested object by key, or nil
func (p PopulationHealth) Section(key string) map[string]any {
	if v, ok := p[key].(map[string]any); ok {
		return v
	}
	return nil
}
