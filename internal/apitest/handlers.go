package apitest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

func withDoctor(ctx context.Context, p models.UserProfile) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func doctorFrom(r *http.Request) models.UserProfile {
	p, _ := r.Context().Value(ctxKey{}).(models.UserProfile)
	return p
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form")
		return
	}
	badgeID := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	d, ok := b.doctors[badgeID]
	b.mu.Unlock()
	if !ok || d.password != password {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect badge ID or password")
		return
	}

	token := b.IssueToken(badgeID)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user": map[string]string{
			"badge_id": d.profile.BadgeID,
			"name":     d.profile.Name,
		},
	})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if !decode(w, r, &reg) {
		return
	}
	if reg.BadgeID == "" || reg.Name == "" || reg.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Name, badge ID and password are required")
		return
	}

	b.mu.Lock()
	if _, exists := b.doctors[reg.BadgeID]; exists {
		b.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Badge ID already registered")
		return
	}
	id := uuid.NewString()
	b.doctors[reg.BadgeID] = doctor{
		profile:  models.UserProfile{ID: id, BadgeID: reg.BadgeID, Name: reg.Name, Email: reg.Email},
		password: reg.Password,
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":    "success",
		"doctor_id": id,
		"message":   "Doctor registered successfully",
		"data": map[string]string{
			"name":     reg.Name,
			"badge_id": reg.BadgeID,
		},
	})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, doctorFrom(r))
}

func (b *Backend) listPatients(w http.ResponseWriter, r *http.Request) {
	doc := doctorFrom(r)
	b.mu.Lock()
	out := make([]models.Patient, 0, len(b.patients))
	for _, p := range b.patients {
		if p.DoctorID == doc.BadgeID {
			out = append(out, p)
		}
	}
	b.mu.Unlock()
	sortByCreated(out, func(p models.Patient) time.Time { return p.CreatedAt.Time })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createPatient(w http.ResponseWriter, r *http.Request) {
	var draft models.PatientDraft
	if !decode(w, r, &draft) {
		return
	}
	if draft.Name == "" {
		writeDetail(w, http.StatusBadRequest, "Name is required")
		return
	}
	p := b.SeedPatient(doctorFrom(r).BadgeID, patientFromDraft(models.Patient{}, draft))
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) ownedPatient(w http.ResponseWriter, r *http.Request) (models.Patient, bool) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	p, ok := b.patients[id]
	b.mu.Unlock()
	if !ok || p.DoctorID != doctorFrom(r).BadgeID {
		writeDetail(w, http.StatusNotFound, "Patient not found")
		return models.Patient{}, false
	}
	return p, true
}

func (b *Backend) getPatient(w http.ResponseWriter, r *http.Request) {
	if p, ok := b.ownedPatient(w, r); ok {
		writeJSON(w, http.StatusOK, p)
	}
}

func (b *Backend) updatePatient(w http.ResponseWriter, r *http.Request) {
	p, ok := b.ownedPatient(w, r)
	if !ok {
		return
	}
	var draft models.PatientDraft
	if !decode(w, r, &draft) {
		return
	}
	p = patientFromDraft(p, draft)
	p.UpdatedAt = models.NewTimestamp(b.now())

	b.mu.Lock()
	b.patients[p.ID] = p
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) deletePatient(w http.ResponseWriter, r *http.Request) {
	p, ok := b.ownedPatient(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.patients, p.ID)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Patient deleted successfully", "id": p.ID})
}

func patientFromDraft(p models.Patient, d models.PatientDraft) models.Patient {
	p.Name = d.Name
	p.Email = d.Email
	p.Phone = d.Phone
	p.Age = d.Age
	p.Gender = d.Gender
	p.Address = d.Address
	p.Height = d.Height
	p.Weight = d.Weight
	p.BloodPressure = d.BloodPressure
	p.BloodType = d.BloodType
	p.Allergies = d.Allergies
	p.CurrentMedications = d.CurrentMedications
	p.MedicalHistory = d.MedicalHistory
	p.FamilyHistory = d.FamilyHistory
	p.GeneralState = d.GeneralState
	p.Notes = d.Notes
	return p
}

// createPrediction stands in for the model: HbA1c >= 6.5 or glucose >= 200 is high risk
func (b *Backend) createPrediction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID string         `json:"patient_id"`
		DoctorID  string         `json:"doctor_id"`
		InputData map[string]any `json:"input_data"`
		Notes     string         `json:"notes"`
	}
	if !decode(w, r, &req) {
		return
	}

	hba1c, _ := req.InputData["HbA1c_level"].(float64)
	glucose, _ := req.InputData["blood_glucose_level"].(float64)
	outcome := 0.0
	if hba1c >= 6.5 || glucose >= 200 {
		outcome = 1
	}

	p := b.SeedPrediction(models.Prediction{
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		Prediction: models.RiskFlag{Value: outcome, Set: true},
		Confidence: 0.87,
		InputData:  req.InputData,
		Notes:      req.Notes,
	})
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) patientPredictions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	out := make([]models.Prediction, 0)
	for _, p := range b.predictions {
		if p.PatientID == id {
			out = append(out, p)
		}
	}
	b.mu.Unlock()
	sortByCreated(out, func(p models.Prediction) time.Time { return p.CreatedAt.Time })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getPrediction(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.predictions[chi.URLParam(r, "id")]
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Prediction not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) filterAppointments(keep func(models.Appointment) bool) []models.Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Appointment, 0)
	for _, a := range b.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sortByCreated(out, func(a models.Appointment) time.Time {
		t, _ := a.StartsAt(time.UTC)
		return t
	})
	return out
}

func (b *Backend) listAppointments(w http.ResponseWriter, r *http.Request) {
	doc := doctorFrom(r).BadgeID
	date := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status_filter")
	writeJSON(w, http.StatusOK, b.filterAppointments(func(a models.Appointment) bool {
		if a.DoctorID != doc {
			return false
		}
		if date != "" && a.Day() != date {
			return false
		}
		return status == "" || string(a.Status) == status
	}))
}

func (b *Backend) todayAppointments(w http.ResponseWriter, r *http.Request) {
	doc := doctorFrom(r).BadgeID
	today := b.now().Format("2006-01-02")
	writeJSON(w, http.StatusOK, b.filterAppointments(func(a models.Appointment) bool {
		return a.DoctorID == doc && a.Day() == today
	}))
}

func (b *Backend) createAppointment(w http.ResponseWriter, r *http.Request) {
	var d models.AppointmentDraft
	if !decode(w, r, &d) {
		return
	}
	now := models.NewTimestamp(b.now())
	a := models.Appointment{
		PatientID:       d.PatientID,
		DoctorID:        doctorFrom(r).BadgeID,
		AppointmentDate: d.AppointmentDate,
		AppointmentTime: d.AppointmentTime,
		Duration:        d.Duration,
		Reason:          d.Reason,
		Status:          d.Status,
		Notes:           d.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.Status == "" {
		a.Status = models.AppointmentScheduled
	}
	b.mu.Lock()
	if p, ok := b.patients[a.PatientID]; ok {
		a.PatientName = p.Name
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, b.SeedAppointment(a))
}

func (b *Backend) ownedAppointment(w http.ResponseWriter, r *http.Request) (models.Appointment, bool) {
	b.mu.Lock()
	a, ok := b.appointments[chi.URLParam(r, "id")]
	b.mu.Unlock()
	if !ok || a.DoctorID != doctorFrom(r).BadgeID {
		writeDetail(w, http.StatusNotFound, "Appointment not found")
		return models.Appointment{}, false
	}
	return a, true
}

func (b *Backend) getAppointment(w http.ResponseWriter, r *http.Request) {
	if a, ok := b.ownedAppointment(w, r); ok {
		writeJSON(w, http.StatusOK, a)
	}
}

func (b *Backend) updateAppointment(w http.ResponseWriter, r *http.Request) {
	a, ok := b.ownedAppointment(w, r)
	if !ok {
		return
	}
	var u models.AppointmentUpdate
	if !decode(w, r, &u) {
		return
	}
	if u.AppointmentDate != nil {
		a.AppointmentDate = *u.AppointmentDate
	}
	if u.AppointmentTime != nil {
		a.AppointmentTime = *u.AppointmentTime
	}
	if u.Duration != nil {
		a.Duration = *u.Duration
	}
	if u.Reason != nil {
		a.Reason = *u.Reason
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.Notes != nil {
		a.Notes = *u.Notes
	}
	if u.ReminderSent != nil {
		a.ReminderSent = *u.ReminderSent
	}
	a.UpdatedAt = models.NewTimestamp(b.now())
	writeJSON(w, http.StatusOK, b.SeedAppointment(a))
}

func (b *Backend) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	a, ok := b.ownedAppointment(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.appointments, a.ID)
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) createReading(w http.ResponseWriter, r *http.Request) {
	var g models.GlucoseReading
	if !decode(w, r, &g) {
		return
	}
	g.ID = uuid.NewString()
	g.CreatedAt = models.NewTimestamp(b.now())
	b.mu.Lock()
	b.readings[g.ID] = g
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Glucose reading created successfully", "reading": g})
}

func (b *Backend) patientReadings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	readingType := r.URL.Query().Get("reading_type")
	b.mu.Lock()
	out := make([]models.GlucoseReading, 0)
	for _, g := range b.readings {
		if g.PatientID == id && (readingType == "" || string(g.ReadingType) == readingType) {
			out = append(out, g)
		}
	}
	b.mu.Unlock()
	sortByCreated(out, func(g models.GlucoseReading) time.Time { return g.Time() })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createMedication(w http.ResponseWriter, r *http.Request) {
	var m models.Medication
	if !decode(w, r, &m) {
		return
	}
	m.ID = uuid.NewString()
	m.Active = true
	m.CreatedAt = models.NewTimestamp(b.now())
	b.mu.Lock()
	b.medications[m.ID] = m
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Medication created successfully", "medication": m})
}

func (b *Backend) patientMedications(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	activeOnly := r.URL.Query().Get("active_only") == "true"
	b.mu.Lock()
	out := make([]models.Medication, 0)
	for _, m := range b.medications {
		if m.PatientID == id && (!activeOnly || m.Active) {
			out = append(out, m)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createAlert(w http.ResponseWriter, r *http.Request) {
	var a models.Alert
	if !decode(w, r, &a) {
		return
	}
	a.ID = uuid.NewString()
	a.CreatedAt = models.NewTimestamp(b.now())
	b.mu.Lock()
	b.alerts[a.ID] = a
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Alert created successfully", "alert": a})
}

func (b *Backend) patientAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	b.mu.Lock()
	out := make([]models.Alert, 0)
	for _, a := range b.alerts {
		if a.PatientID != id {
			continue
		}
		if ack := q.Get("acknowledged"); ack != "" && (ack == "true") != a.Acknowledged {
			continue
		}
		if sev := q.Get("severity"); sev != "" && !strings.EqualFold(sev, string(a.Severity)) {
			continue
		}
		out = append(out, a)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	a, ok := b.alerts[id]
	if ok {
		now := models.NewTimestamp(b.now())
		a.Acknowledged = true
		a.AcknowledgedAt = &now
		a.AcknowledgedBy = r.URL.Query().Get("acknowledged_by")
		a.ActionTaken = r.URL.Query().Get("action_taken")
		b.alerts[id] = a
	}
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Alert acknowledged successfully", "alert": a})
}
