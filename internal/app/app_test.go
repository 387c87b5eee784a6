package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/apitest"
	"github.com/mrcode/diabetes-dashboard/internal/guard"
	"github.com/mrcode/diabetes-dashboard/internal/models"
	"github.com/mrcode/diabetes-dashboard/internal/session"
	"github.com/mrcode/diabetes-dashboard/internal/tokenstore"
)

type event struct {
	name string
	data any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) emit(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name: name, data: data})
}

func (r *recorder) named(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e.data)
		}
	}
	return out
}

type fixture struct {
	backend *apitest.Backend
	svc     *Services
	dash    *DashboardService
	events  *recorder
	notices *[]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := apitest.New()
	t.Cleanup(backend.Close)
	backend.AddDoctor("D123", "Dr Who", "secret")

	svc, err := NewServices(backend.URL, tokenstore.NewMemoryStore(), models.DefaultSettings(), nil)
	require.NoError(t, err)

	notices := &[]string{}
	svc.Notifications.Notify = func(title, message string) error {
		*notices = append(*notices, title)
		return nil
	}

	dash := NewDashboardService(svc)
	events := &recorder{}
	dash.SetEmitter(events.emit)
	require.NoError(t, dash.Start(context.Background()))

	return &fixture{backend: backend, svc: svc, dash: dash, events: events, notices: notices}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.dash.Login(context.Background(), "D123", "secret")
	require.NoError(t, err)
}

func TestStartIsAnonymous(t *testing.T) {
	f := newFixture(t)
	snap := f.dash.Session()
	assert.Equal(t, session.Anonymous, snap.State)
	assert.Equal(t, session.ReasonNoToken, snap.Reason)
	assert.Zero(t, f.backend.TotalRequests())
	assert.NotEmpty(t, f.events.named(EventSessionChanged))
}

func TestLoginReturnsToOrigin(t *testing.T) {
	f := newFixture(t)

	d := f.dash.Navigate("/dashboard/patients")
	assert.Equal(t, guard.RedirectLogin, d.Action)
	assert.Equal(t, guard.LoginPath, d.Target)

	target, err := f.dash.Login(context.Background(), "D123", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/patients", target)
	assert.True(t, f.dash.Session().IsAuthenticated)

	// the origin is used once
	assert.Equal(t, guard.Render, f.dash.Navigate("/dashboard").Action)
	require.NoError(t, f.dash.Logout())
	assert.Equal(t, guard.LoginPath, f.svc.Router.Current())
}

func TestLoginFailureKeepsSessionAnonymous(t *testing.T) {
	f := newFixture(t)
	_, err := f.dash.Login(context.Background(), "D123", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindInvalidCredentials))
	assert.Equal(t, session.Anonymous, f.dash.Session().State)
}

func TestProtectRecoversPanic(t *testing.T) {
	f := newFixture(t)

	out, err := protect(f.dash, "Boom", func() (int, error) {
		panic("boom")
	})
	assert.Zero(t, out)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindUnknown))

	appErrors := f.events.named(EventAppError)
	require.Len(t, appErrors, 1)
	payload := appErrors[0].(AppError)
	assert.Equal(t, "Boom", payload.Call)
	assert.Equal(t, []string{OptionRetry, OptionReload}, payload.Options)

	// the service keeps working afterwards
	err = protectErr(f.dash, "Fine", func() error { return nil })
	assert.NoError(t, err)
}

func TestViews(t *testing.T) {
	v := NewViews()
	first := v.Mount("dashboard")
	second := v.Mount("dashboard")

	applied := false
	assert.False(t, v.Deliver("dashboard", first, func() { applied = true }))
	assert.False(t, applied)
	assert.True(t, v.Deliver("dashboard", second, func() { applied = true }))
	assert.True(t, applied)

	// a stale unmount leaves the newer mount alone
	v.Unmount("dashboard", first)
	assert.True(t, v.Active("dashboard", second))
	v.Unmount("dashboard", second)
	assert.False(t, v.Active("dashboard", second))
}

func seedClinic(t *testing.T, f *fixture) {
	t.Helper()
	now := time.Now()
	for i, name := range []string{"Ann", "Ben", "Cid", "Dee"} {
		p := f.backend.SeedPatient("D123", models.Patient{
			Name:   name,
			Age:    models.IntPtr(40 + i*10),
			Gender: models.GenderFemale,
		})
		f.backend.SeedPrediction(models.Prediction{
			PatientID:  p.ID,
			DoctorID:   "D123",
			Prediction: models.RiskFlag{Value: float64(i % 2), Set: true},
			Confidence: 0.9,
		})
	}
	f.backend.SeedAppointment(models.Appointment{
		PatientID:       "p-1",
		DoctorID:        "D123",
		AppointmentDate: now.Format("2006-01-02"),
		AppointmentTime: "09:30",
		Duration:        30,
		Reason:          "Checkup",
		Status:          models.AppointmentScheduled,
	})
	f.backend.SeedAppointment(models.Appointment{
		PatientID:       "p-2",
		DoctorID:        "D123",
		AppointmentDate: now.AddDate(0, 0, -3).Format("2006-01-02"),
		AppointmentTime: "10:00",
		Duration:        30,
		Reason:          "Review",
		Status:          models.AppointmentCompleted,
	})
}

func TestDashboard_KeepsCacheOnFailure(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	seedClinic(t, f)
	ctx := context.Background()

	token := f.dash.MountView(ViewDashboard)
	data, err := f.dash.Dashboard(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 4, data.PatientCount)
	assert.Len(t, data.RecentPatients, RecentPatientCount)
	for _, rp := range data.RecentPatients {
		assert.NotNil(t, rp.LatestPrediction, rp.Patient.Name)
	}
	assert.Len(t, data.TodayAppointments, 1)
	assert.Equal(t, "D123", data.Doctor.BadgeID)
	assert.Len(t, f.events.named(EventDashboardUpdated), 1)

	f.backend.FailNext("/api/appointments/today", http.StatusInternalServerError)
	_, err = f.dash.Dashboard(ctx, token)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindServer))
	assert.Same(t, data, f.dash.CachedDashboard())
}

func TestDashboard_ClosedView(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	token := f.dash.MountView(ViewDashboard)
	f.dash.UnmountView(ViewDashboard, token)

	_, err := f.dash.Dashboard(context.Background(), token)
	assert.True(t, errors.Is(err, ErrViewClosed))
	assert.Nil(t, f.dash.CachedDashboard())
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	assert.Equal(t, guard.Render, f.dash.Navigate("/dashboard/patients").Action)

	f.backend.RevokeAll()
	_, err := f.dash.ListPatients(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindUnauthenticated))

	snap := f.dash.Session()
	assert.Equal(t, session.Anonymous, snap.State)
	assert.Equal(t, session.ReasonExpired, snap.Reason)

	routes := f.events.named(EventRouteChanged)
	require.NotEmpty(t, routes)
	last := routes[len(routes)-1].(guard.Decision)
	assert.Equal(t, guard.RedirectLogin, last.Action)
	assert.Equal(t, "/dashboard/patients", last.Remember)
	assert.Equal(t, []string{"Session expired"}, *f.notices)

	// signing back in returns to where the doctor was
	target, err := f.dash.Login(context.Background(), "D123", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/patients", target)
}

func TestExportReport_MissingPatient(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.dash.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }

	pred := f.backend.SeedPrediction(models.Prediction{
		PatientID:  "gone",
		DoctorID:   "D123",
		Prediction: models.RiskFlag{Value: 1, Set: true},
		Confidence: 0.8,
	})

	res, err := f.dash.ExportReport(context.Background(), pred.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Diabetes_Risk_Assessment_Patient_2026-10-16.pdf", res.Filename)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF")))
	assert.Empty(t, res.ArchiveKey)

	png, err := f.dash.ReportPreview(context.Background(), pred.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestExportReport_NamedPatient(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	p := f.backend.SeedPatient("D123", models.Patient{Name: "Jane Roe"})
	pred := f.backend.SeedPrediction(models.Prediction{
		PatientID:  p.ID,
		DoctorID:   "D123",
		Prediction: models.RiskFlag{Value: 0, Set: true},
	})

	res, err := f.dash.ExportReport(context.Background(), pred.ID, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Filename, "Diabetes_Risk_Assessment_Jane_Roe_"))
}

func TestExportReport_UnknownPrediction(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.dash.ExportReport(context.Background(), "nope", false)
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestReportStatistics(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	seedClinic(t, f)

	summary, err := f.dash.ReportStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalPatients)
	assert.Equal(t, 4, summary.TotalPredictions)
	assert.Equal(t, 2, summary.TotalAppointments)
	assert.Equal(t, 50, summary.RiskPercentage)
	assert.Equal(t, 50, summary.CompletionRate)
	assert.Equal(t, 55, summary.AverageAge)
	assert.Equal(t, 4, summary.GenderDistribution[models.GenderFemale])
}

func TestRecordGlucoseNotifiesOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	p := f.backend.SeedPatient("D123", models.Patient{Name: "Ann"})

	_, err := f.dash.RecordGlucose(context.Background(), models.GlucoseReading{
		PatientID:       p.ID,
		ReadingType:     models.ReadingRandom,
		GlucoseValue:    45,
		ReadingDatetime: models.NewTimestamp(time.Now()),
	}, "Ann")
	require.NoError(t, err)
	require.Len(t, *f.notices, 1)
	assert.Contains(t, (*f.notices)[0], "URGENT LOW")
}
