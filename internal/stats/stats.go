// Package stats derives the report figures from already fetched records
package stats

import (
	"math"
	"sort"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// DefaultRecent is how many predictions the report lists
const DefaultRecent = 10

// Counts tallies predictions and appointments by outcome
type Counts struct {
	HighRisk  int `json:"highRiskPatients"`
	LowRisk   int `json:"lowRiskPatients"`
	Completed int `json:"completedAppointments"`
	Scheduled int `json:"scheduledAppointments"`
	Cancelled int `json:"cancelledAppointments"`
	NoShow    int `json:"noShowAppointments"`
}

// Summary is everything the report screen shows
type Summary struct {
	Counts
	TotalPatients      int                 `json:"totalPatients"`
	TotalPredictions   int                 `json:"totalPredictions"`
	TotalAppointments  int                 `json:"totalAppointments"`
	RiskPercentage     int                 `json:"riskPercentage"`
	CompletionRate     int                 `json:"completionRate"`
	AverageAge         int                 `json:"averageAge"`
	GenderDistribution map[string]int      `json:"genderDistribution"`
	RecentPredictions  []models.Prediction `json:"recentPredictions"`
}

// percent is round(100 * part / whole), 0 when whole is 0
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// Tally counts risk outcomes and appointment statuses. Predictions whose
// flag never arrived count as neither high nor low.
func Tally(predictions []models.Prediction, appointments []models.Appointment) Counts {
	var c Counts
	for i := range predictions {
		switch {
		case predictions[i].Prediction.High():
			c.HighRisk++
		case predictions[i].Prediction.Low():
			c.LowRisk++
		}
	}
	for _, a := range appointments {
		switch a.Status {
		case models.AppointmentCompleted:
			c.Completed++
		case models.AppointmentScheduled:
			c.Scheduled++
		case models.AppointmentCancelled:
			c.Cancelled++
		case models.AppointmentNoShow:
			c.NoShow++
		}
	}
	return c
}

// RiskPercentage is the share of high-risk outcomes among flagged predictions
func RiskPercentage(predictions []models.Prediction) int {
	c := Tally(predictions, nil)
	return percent(c.HighRisk, c.HighRisk+c.LowRisk)
}

// CompletionRate is the share of completed appointments
func CompletionRate(appointments []models.Appointment) int {
	c := Tally(nil, appointments)
	return percent(c.Completed, len(appointments))
}

// AverageAge rounds the mean age. A patient without an age adds 0 to the
// sum but still counts, so missing ages pull the average down.
func AverageAge(patients []models.Patient) int {
	if len(patients) == 0 {
		return 0
	}
	sum := 0
	for i := range patients {
		sum += patients[i].AgeOrZero()
	}
	return int(math.Round(float64(sum) / float64(len(patients))))
}

// GenderDistribution tallies into Male, Female and Other. Anything
// unrecognised or missing lands in Other.
func GenderDistribution(patients []models.Patient) map[string]int {
	out := map[string]int{
		models.GenderMale:   0,
		models.GenderFemale: 0,
		models.GenderOther:  0,
	}
	for _, p := range patients {
		switch p.Gender {
		case models.GenderMale, models.GenderFemale:
			out[p.Gender]++
		default:
			out[models.GenderOther]++
		}
	}
	return out
}

// RecentPredictions returns up to n predictions, newest first. The input
// is not modified.
func RecentPredictions(predictions []models.Prediction, n int) []models.Prediction {
	out := make([]models.Prediction, len(predictions))
	copy(out, predictions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RecentPatients returns up to n patients, newest record first
func RecentPatients(patients []models.Patient, n int) []models.Patient {
	out := make([]models.Patient, len(patients))
	copy(out, patients)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Summarize computes every report figure in one pass over the inputs
func Summarize(patients []models.Patient, predictions []models.Prediction, appointments []models.Appointment) Summary {
	c := Tally(predictions, appointments)
	return Summary{
		Counts:             c,
		TotalPatients:      len(patients),
		TotalPredictions:   len(predictions),
		TotalAppointments:  len(appointments),
		RiskPercentage:     percent(c.HighRisk, c.HighRisk+c.LowRisk),
		CompletionRate:     percent(c.Completed, len(appointments)),
		AverageAge:         AverageAge(patients),
		GenderDistribution: GenderDistribution(patients),
		RecentPredictions:  RecentPredictions(predictions, DefaultRecent),
	}
}
