// Package apitest runs an in-memory imitation of the dashboard backend for tests
package apitest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

type doctor struct {
	profile  models.UserProfile
	password string
}

// Backend is a fake backend. Use New and close it with Close.
type Backend struct {
	*httptest.Server

	mu           sync.Mutex
	doctors      map[string]doctor
	tokens       map[string]string
	patients     map[string]models.Patient
	predictions  map[string]models.Prediction
	appointments map[string]models.Appointment
	readings     map[string]models.GlucoseReading
	hba1c        map[string]models.HbA1cReading
	medications  map[string]models.Medication
	adherence    map[string]models.MedicationAdherence
	alerts       map[string]models.Alert
	requests     map[string]int
	queries      map[string]url.Values
	failNext     map[string]int
	now          func() time.Time
}

// New starts a fake backend with no doctors
func New() *Backend {
	b := &Backend{
		doctors:      make(map[string]doctor),
		tokens:       make(map[string]string),
		patients:     make(map[string]models.Patient),
		predictions:  make(map[string]models.Prediction),
		appointments: make(map[string]models.Appointment),
		readings:     make(map[string]models.GlucoseReading),
		hba1c:        make(map[string]models.HbA1cReading),
		medications:  make(map[string]models.Medication),
		adherence:    make(map[string]models.MedicationAdherence),
		alerts:       make(map[string]models.Alert),
		requests:     make(map[string]int),
		queries:      make(map[string]url.Values),
		failNext:     make(map[string]int),
		now:          time.Now,
	}
	b.Server = httptest.NewServer(b.routes())
	return b
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.count)

	r.Post("/api/auth/token", b.login)
	r.Post("/api/auth/register", b.register)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/api/auth/me", b.me)

		r.Get("/api/patients/", b.listPatients)
		r.Post("/api/patients/", b.createPatient)
		r.Get("/api/patients/{id}", b.getPatient)
		r.Put("/api/patients/{id}", b.updatePatient)
		r.Delete("/api/patients/{id}", b.deletePatient)

		r.Post("/api/predictions/", b.createPrediction)
		r.Get("/api/predictions/patients/{id}/", b.patientPredictions)
		r.Get("/api/predictions/{id}", b.getPrediction)

		r.Get("/api/appointments/", b.listAppointments)
		r.Post("/api/appointments/", b.createAppointment)
		r.Get("/api/appointments/today", b.todayAppointments)
		r.Get("/api/appointments/{id}", b.getAppointment)
		r.Put("/api/appointments/{id}", b.updateAppointment)
		r.Delete("/api/appointments/{id}", b.deleteAppointment)

		r.Post("/api/glucose/readings", b.createReading)
		r.Get("/api/glucose/readings/patient/{id}", b.patientReadings)
		r.Get("/api/glucose/readings/patient/{id}/statistics", b.glucoseStatistics)
		r.Post("/api/glucose/hba1c", b.createHbA1c)
		r.Get("/api/glucose/hba1c/patient/{id}", b.patientHbA1c)
		r.Get("/api/glucose/hba1c/patient/{id}/trend", b.hba1cTrend)
		r.Delete("/api/glucose/hba1c/{id}", b.deleteHbA1c)

		r.Post("/api/medications", b.createMedication)
		r.Get("/api/medications/patient/{id}", b.patientMedications)
		r.Get("/api/medications/patient/{id}/check-interactions", b.checkInteractions)
		r.Post("/api/medications/adherence", b.createAdherence)
		r.Put("/api/medications/adherence/{id}", b.updateAdherence)
		r.Get("/api/medications/adherence/patient/{id}", b.patientAdherence)
		r.Get("/api/medications/adherence/patient/{id}/statistics", b.adherenceStatistics)

		r.Post("/api/alerts", b.createAlert)
		r.Get("/api/alerts/patient/{id}", b.patientAlerts)
		r.Get("/api/alerts/patient/{id}/critical", b.criticalAlerts)
		r.Get("/api/alerts/doctor/{id}", b.doctorAlerts)
		r.Get("/api/alerts/doctor/{id}/summary", b.alertSummary)
		r.Put("/api/alerts/{id}/acknowledge", b.acknowledgeAlert)

		r.Get("/api/analytics/patient/{id}/overview", b.patientOverview)
		r.Get("/api/analytics/patient/{id}/risk-stratification", b.riskStratification)
		r.Get("/api/analytics/patient/{id}/trends", b.patientTrends)
		r.Get("/api/analytics/doctor/{id}/population-health", b.populationHealth)
	})

	return r
}

// AddDoctor registers a doctor directly
func (b *Backend) AddDoctor(badgeID, name, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doctors[badgeID] = doctor{
		profile:  models.UserProfile{ID: uuid.NewString(), BadgeID: badgeID, Name: name},
		password: password,
	}
}

// IssueToken returns a valid token for a known doctor without a login call
func (b *Backend) IssueToken(badgeID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := "tok-" + uuid.NewString()
	b.tokens[token] = badgeID
	return token
}

// Revoke invalidates a single token
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// RevokeAll invalidates every issued token
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

// FailNext makes the next request to path answer with status
func (b *Backend) FailNext(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[path] = status
}

// Requests returns how many requests reached path
func (b *Backend) Requests(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[path]
}

// LastQuery returns the query string of the latest request to path
func (b *Backend) LastQuery(path string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[path]
}

// TotalRequests returns how many requests reached the server
func (b *Backend) TotalRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.requests {
		total += n
	}
	return total
}

// SeedPatient stores p as owned by doctorID and returns it with an id
func (b *Backend) SeedPatient(doctorID string, p models.Patient) models.Patient {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.DoctorID = doctorID
	p.CreatedAt = models.NewTimestamp(b.now())
	p.UpdatedAt = p.CreatedAt
	b.patients[p.ID] = p
	return p
}

// SeedPrediction stores a prediction as is
func (b *Backend) SeedPrediction(p models.Prediction) models.Prediction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = models.NewTimestamp(b.now())
	}
	b.predictions[p.ID] = p
	return p
}

// SeedAppointment stores an appointment as is
func (b *Backend) SeedAppointment(a models.Appointment) models.Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	b.appointments[a.ID] = a
	return a
}

// SeedReading stores a glucose reading as is
func (b *Backend) SeedReading(g models.GlucoseReading) models.GlucoseReading {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	b.readings[g.ID] = g
	return g
}

// SeedHbA1c stores a lab result as is
func (b *Backend) SeedHbA1c(h models.HbA1cReading) models.HbA1cReading {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	b.hba1c[h.ID] = h
	return h
}

// SeedMedication stores a medication as is
func (b *Backend) SeedMedication(m models.Medication) models.Medication {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	b.medications[m.ID] = m
	return m
}

// SeedAdherence stores an adherence record as is
func (b *Backend) SeedAdherence(a models.MedicationAdherence) models.MedicationAdherence {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	b.adherence[a.ID] = a
	return a
}

// SeedAlert stores an alert as is
func (b *Backend) SeedAlert(a models.Alert) models.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = models.NewTimestamp(b.now())
	}
	b.alerts[a.ID] = a
	return a
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests[r.URL.Path]++
		b.queries[r.URL.Path] = r.URL.Query()
		status, fail := b.failNext[r.URL.Path]
		delete(b.failNext, r.URL.Path)
		b.mu.Unlock()

		if fail {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		badgeID, ok := b.tokens[token]
		d, known := b.doctors[badgeID]
		b.mu.Unlock()

		if token == "" || !ok || !known {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(withDoctor(r.Context(), d.profile)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return false
	}
	return true
}

func sortByCreated[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
