package apitest

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

func daysParam(r *http.Request, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && n > 0 {
		return n
	}
	return fallback
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

// readingValuesLocked returns a patient's glucose values taken at or after since
func (b *Backend) readingValuesLocked(patientID string, since time.Time) []float64 {
	var out []float64
	for _, g := range b.readings {
		if g.PatientID == patientID && !g.Time().Before(since) {
			out = append(out, g.GlucoseValue)
		}
	}
	return out
}

// hba1cLocked returns a patient's lab results, oldest first
func (b *Backend) hba1cLocked(patientID string) []models.HbA1cReading {
	var out []models.HbA1cReading
	for _, h := range b.hba1c {
		if h.PatientID == patientID {
			out = append(out, h)
		}
	}
	sortByCreated(out, func(h models.HbA1cReading) time.Time { return h.TestDate.Time })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (b *Backend) adherenceCountsLocked(patientID string, since time.Time) (scheduled, taken int) {
	for _, a := range b.adherence {
		if a.PatientID != patientID || a.ScheduledDatetime.Time.Before(since) {
			continue
		}
		scheduled++
		if a.Taken {
			taken++
		}
	}
	return scheduled, taken
}

func (b *Backend) glucoseStatistics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days := daysParam(r, 30)
	b.mu.Lock()
	values := b.readingValuesLocked(id, b.now().AddDate(0, 0, -days))
	b.mu.Unlock()

	stats := models.GlucoseStatistics{PatientID: id, PeriodDays: days, TotalReadings: len(values)}
	if len(values) > 0 {
		stats.Min, stats.Max = values[0], values[0]
		var sum float64
		var in, above, below int
		for _, v := range values {
			sum += v
			stats.Min = math.Min(stats.Min, v)
			stats.Max = math.Max(stats.Max, v)
			switch {
			case v < 70:
				below++
			case v > 180:
				above++
			default:
				in++
			}
		}
		stats.Average = round2(sum / float64(len(values)))
		stats.TimeInRange = percent(in, len(values))
		stats.TimeAboveRange = percent(above, len(values))
		stats.TimeBelowRange = percent(below, len(values))
	}
	writeJSON(w, http.StatusOK, stats)
}

func (b *Backend) createHbA1c(w http.ResponseWriter, r *http.Request) {
	var h models.HbA1cReading
	if !decode(w, r, &h) {
		return
	}
	h.ID = uuid.NewString()
	h.CreatedAt = models.NewTimestamp(b.now())
	b.mu.Lock()
	b.hba1c[h.ID] = h
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "HbA1c reading created successfully", "reading": h})
}

func (b *Backend) patientHbA1c(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := b.hba1cLocked(chi.URLParam(r, "id"))
	b.mu.Unlock()
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if out == nil {
		out = make([]models.HbA1cReading, 0)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) hba1cTrend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	results := b.hba1cLocked(id)
	b.mu.Unlock()

	trend := models.HbA1cTrend{PatientID: id, TotalReadings: len(results), Trend: "insufficient_data"}
	if len(results) < 2 {
		if len(results) == 1 {
			trend.LatestValue = &results[0].HbA1cValue
		}
		writeJSON(w, http.StatusOK, trend)
		return
	}
	latest := results[len(results)-1].HbA1cValue
	previous := results[len(results)-2].HbA1cValue
	trend.LatestValue = &latest
	trend.PreviousValue = &previous
	trend.Change = round2(latest - previous)
	switch {
	case trend.Change < -0.5:
		trend.Trend = "improving"
	case trend.Change > 0.5:
		trend.Trend = "worsening"
	default:
		trend.Trend = "stable"
	}
	for _, h := range results {
		trend.Readings = append(trend.Readings, models.HbA1cPoint{Date: h.TestDate, Value: h.HbA1cValue})
	}
	writeJSON(w, http.StatusOK, trend)
}

func (b *Backend) deleteHbA1c(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	_, ok := b.hba1c[id]
	delete(b.hba1c, id)
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "HbA1c reading not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) checkInteractions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report := models.InteractionReport{
		PatientID:    id,
		Medications:  make([]string, 0),
		Interactions: make([]models.InteractionWarning, 0),
		Warnings:     make([]models.InteractionWarning, 0),
	}
	names := make(map[string]bool)
	b.mu.Lock()
	for _, m := range b.medications {
		if m.PatientID == id && m.Active {
			report.Medications = append(report.Medications, m.MedicationName)
			names[m.MedicationName] = true
		}
	}
	b.mu.Unlock()
	report.TotalMedications = len(report.Medications)
	if names["Metformin"] && names["Insulin"] {
		report.Warnings = append(report.Warnings, models.InteractionWarning{
			Severity:    "moderate",
			Message:     "Monitor blood glucose closely when using Metformin with Insulin",
			Medications: []string{"Metformin", "Insulin"},
		})
	}
	writeJSON(w, http.StatusOK, report)
}

func (b *Backend) createAdherence(w http.ResponseWriter, r *http.Request) {
	var a models.MedicationAdherence
	if !decode(w, r, &a) {
		return
	}
	a.ID = uuid.NewString()
	a.CreatedAt = models.NewTimestamp(b.now())
	b.mu.Lock()
	b.adherence[a.ID] = a
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Adherence record created successfully", "adherence": a})
}

func (b *Backend) updateAdherence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var a models.MedicationAdherence
	if !decode(w, r, &a) {
		return
	}
	b.mu.Lock()
	old, ok := b.adherence[id]
	if ok {
		a.ID = id
		a.CreatedAt = old.CreatedAt
		b.adherence[id] = a
	}
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Adherence record not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Adherence record updated successfully", "adherence": a})
}

func (b *Backend) patientAdherence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	out := make([]models.MedicationAdherence, 0)
	for _, a := range b.adherence {
		if a.PatientID == id {
			out = append(out, a)
		}
	}
	b.mu.Unlock()
	sortByCreated(out, func(a models.MedicationAdherence) time.Time { return a.ScheduledDatetime.Time })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) adherenceStatistics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days := daysParam(r, 30)
	b.mu.Lock()
	scheduled, taken := b.adherenceCountsLocked(id, b.now().AddDate(0, 0, -days))
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, models.AdherenceStatistics{
		PatientID:      id,
		PeriodDays:     days,
		TotalScheduled: scheduled,
		TotalTaken:     taken,
		TotalMissed:    scheduled - taken,
		AdherenceRate:  percent(taken, scheduled),
	})
}

func (b *Backend) filterAlerts(keep func(models.Alert) bool) []models.Alert {
	b.mu.Lock()
	out := make([]models.Alert, 0)
	for _, a := range b.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	b.mu.Unlock()
	sortByCreated(out, func(a models.Alert) time.Time { return a.CreatedAt.Time })
	return out
}

func (b *Backend) criticalAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, b.filterAlerts(func(a models.Alert) bool {
		return a.PatientID == id && a.NeedsAttention()
	}))
}

func (b *Backend) doctorAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, b.filterAlerts(func(a models.Alert) bool { return a.DoctorID == id }))
}

func (b *Backend) alertSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary := models.AlertSummary{DoctorID: id}
	for _, a := range b.filterAlerts(func(a models.Alert) bool { return a.DoctorID == id }) {
		summary.TotalAlerts++
		if a.Acknowledged {
			continue
		}
		summary.Unacknowledged++
		switch a.Severity {
		case models.SeverityCritical:
			summary.CriticalUnacknowledged++
		case models.SeverityWarning:
			summary.WarningUnacknowledged++
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (b *Backend) patientOverview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days := daysParam(r, 30)
	since := b.now().AddDate(0, 0, -days)

	var o models.PatientOverview
	o.PatientID = id
	o.PeriodDays = days

	b.mu.Lock()
	values := b.readingValuesLocked(id, since)
	results := b.hba1cLocked(id)
	scheduled, taken := b.adherenceCountsLocked(id, since)
	for _, a := range b.alerts {
		if a.PatientID == id && a.NeedsAttention() {
			o.Alerts.CriticalUnacknowledged++
		}
	}
	b.mu.Unlock()

	o.Glucose.TotalReadings = len(values)
	if len(values) > 0 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		o.Glucose.Average = round2(sum / float64(len(values)))
	}
	if n := len(results); n > 0 {
		latest := results[n-1]
		o.HbA1c.LatestValue = &latest.HbA1cValue
		o.HbA1c.TestDate = &latest.TestDate
	}
	o.MedicationAdherence.Rate = percent(taken, scheduled)
	o.MedicationAdherence.TotalScheduled = scheduled
	o.MedicationAdherence.TotalTaken = taken
	writeJSON(w, http.StatusOK, o)
}

// hba1cRiskPoints grades the latest lab result
func hba1cRiskPoints(v float64) (int, string) {
	switch {
	case v > 9.0:
		return 3, "Very high HbA1c (>9%)"
	case v > 7.5:
		return 2, "High HbA1c (>7.5%)"
	case v > 7.0:
		return 1, "Above target HbA1c (>7%)"
	}
	return 0, ""
}

func riskLevel(score int) string {
	switch {
	case score >= 7:
		return "high"
	case score >= 4:
		return "moderate"
	}
	return "low"
}

func (b *Backend) latestPredictionLocked(patientID string) (models.Prediction, bool) {
	var latest models.Prediction
	found := false
	for _, p := range b.predictions {
		if p.PatientID == patientID && (!found || p.CreatedAt.After(latest.CreatedAt.Time)) {
			latest, found = p, true
		}
	}
	return latest, found
}

func (b *Backend) riskStratification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	since := b.now().AddDate(0, 0, -30)
	out := models.RiskStratification{PatientID: id, RiskFactors: make([]string, 0)}

	b.mu.Lock()
	_, known := b.patients[id]
	results := b.hba1cLocked(id)
	values := b.readingValuesLocked(id, since)
	scheduled, taken := b.adherenceCountsLocked(id, since)
	prediction, predicted := b.latestPredictionLocked(id)
	b.mu.Unlock()

	if !known {
		writeDetail(w, http.StatusNotFound, "Patient not found")
		return
	}
	add := func(points int, factor string) {
		if points > 0 {
			out.RiskScore += points
			out.RiskFactors = append(out.RiskFactors, factor)
		}
	}
	if n := len(results); n > 0 {
		add(hba1cRiskPoints(results[n-1].HbA1cValue))
	}
	var low, high int
	for _, v := range values {
		if v < 70 {
			low++
		}
		if v > 250 {
			high++
		}
	}
	if low > 5 {
		add(2, "Frequent hypoglycemia")
	}
	if high > 10 {
		add(2, "Frequent hyperglycemia")
	}
	if scheduled > 0 {
		rate := percent(taken, scheduled)
		if rate < 50 {
			add(3, "Poor medication adherence (<50%)")
		} else if rate < 80 {
			add(1, "Suboptimal medication adherence (<80%)")
		}
	}
	if predicted && prediction.IsHighRisk() {
		add(4, "AI Model: High diabetes risk detected")
	}
	out.RiskLevel = riskLevel(out.RiskScore)
	if out.RiskLevel == "high" {
		out.Recommendations = []string{"Schedule urgent follow-up appointment"}
	} else {
		out.Recommendations = []string{"Continue current management plan"}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) patientTrends(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days := daysParam(r, 90)
	since := b.now().AddDate(0, 0, -days)
	out := models.PatientTrends{
		PatientID:    id,
		PeriodDays:   days,
		GlucoseTrend: make([]models.TrendPoint, 0),
		HbA1cTrend:   make([]models.TrendPoint, 0),
	}

	b.mu.Lock()
	var readings []models.GlucoseReading
	for _, g := range b.readings {
		if g.PatientID == id && !g.Time().Before(since) {
			readings = append(readings, g)
		}
	}
	results := b.hba1cLocked(id)
	b.mu.Unlock()

	sortByCreated(readings, func(g models.GlucoseReading) time.Time { return g.Time() })
	for i := len(readings) - 1; i >= 0; i-- {
		g := readings[i]
		out.GlucoseTrend = append(out.GlucoseTrend, models.TrendPoint{Date: g.ReadingDatetime, Value: g.GlucoseValue, Type: string(g.ReadingType)})
	}
	for _, h := range results {
		if !h.TestDate.Time.Before(since) {
			out.HbA1cTrend = append(out.HbA1cTrend, models.TrendPoint{Date: h.TestDate, Value: h.HbA1cValue})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) populationHealth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	risk := map[string]int{"high": 0, "moderate": 0, "low": 0}
	var total, atGoal, veryHigh, critical, predictions, riskyPredictions int
	var hba1cSum float64
	var hba1cCount int

	b.mu.Lock()
	for pid, p := range b.patients {
		if p.DoctorID != id {
			continue
		}
		total++
		score := 0
		if results := b.hba1cLocked(pid); len(results) > 0 {
			v := results[len(results)-1].HbA1cValue
			hba1cSum += v
			hba1cCount++
			if v < 7.0 {
				atGoal++
			}
			if v > 9.0 {
				veryHigh++
			}
			points, _ := hba1cRiskPoints(v)
			score += points
		}
		if pred, ok := b.latestPredictionLocked(pid); ok && pred.IsHighRisk() {
			score += 4
		}
		risk[riskLevel(score)]++
	}
	for _, a := range b.alerts {
		if a.DoctorID == id && a.NeedsAttention() {
			critical++
		}
	}
	for _, p := range b.predictions {
		if p.DoctorID != id {
			continue
		}
		predictions++
		if p.IsHighRisk() {
			riskyPredictions++
		}
	}
	b.mu.Unlock()

	average := 0.0
	if hba1cCount > 0 {
		average = round2(hba1cSum / float64(hba1cCount))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id":      id,
		"total_patients": total,
		"hba1c_metrics": map[string]any{
			"average":          average,
			"patients_at_goal": atGoal,
			"percent_at_goal":  percent(atGoal, total),
			"high_risk_count":  veryHigh,
		},
		"risk_stratification": map[string]any{
			"high":                 risk["high"],
			"moderate":             risk["moderate"],
			"low":                  risk["low"],
			"high_risk_percentage": percent(risk["high"], total),
		},
		"alerts": map[string]any{"critical_unacknowledged": critical},
		"ai_metrics": map[string]any{
			"total_predictions":    predictions,
			"high_risk_count":      riskyPredictions,
			"high_risk_percentage": percent(riskyPredictions, predictions),
		},
	})
}
