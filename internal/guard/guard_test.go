package guard

import (
	"testing"

	"github.com/mrcode/diabetes-dashboard/internal/session"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		state      session.State
		path       string
		remembered string
		action     Action
		target     string
		remember   string
	}{
		{"initializing protected", session.Initializing, "/dashboard", "", Loading, "", ""},
		{"initializing login", session.Initializing, "/login", "", Loading, "", ""},
		{"anonymous protected", session.Anonymous, "/dashboard/patients", "", RedirectLogin, LoginPath, "/dashboard/patients"},
		{"anonymous keeps query", session.Anonymous, "/dashboard/patients?q=ja", "", RedirectLogin, LoginPath, "/dashboard/patients?q=ja"},
		{"anonymous login", session.Anonymous, "/login", "", Render, "", ""},
		{"anonymous signup", session.Anonymous, "/signup", "", Render, "", ""},
		{"anonymous root", session.Anonymous, "/", "", RedirectLogin, LoginPath, ""},
		{"anonymous unknown", session.Anonymous, "/nowhere", "", RedirectLogin, LoginPath, ""},
		{"authenticated protected", session.Authenticated, "/dashboard/appointments", "", Render, "", ""},
		{"authenticated trailing slash", session.Authenticated, "/dashboard/", "", Render, "", ""},
		{"authenticated login", session.Authenticated, "/login", "", RedirectHome, HomePath, ""},
		{"authenticated signup with origin", session.Authenticated, "/signup", "/dashboard/glucose", RedirectHome, "/dashboard/glucose", ""},
		{"authenticated root", session.Authenticated, "/", "/dashboard/glucose", RedirectHome, HomePath, ""},
		{"lookalike prefix", session.Anonymous, "/dashboardx", "", RedirectLogin, LoginPath, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.state, tt.path, tt.remembered)
			if d.Action != tt.action {
				t.Errorf("Action = %s, want %s", d.Action, tt.action)
			}
			if d.Target != tt.target {
				t.Errorf("Target = %q, want %q", d.Target, tt.target)
			}
			if d.Remember != tt.remember {
				t.Errorf("Remember = %q, want %q", d.Remember, tt.remember)
			}
		})
	}
}

func TestRouter_ReturnsToOriginAfterLogin(t *testing.T) {
	r := NewRouter()

	d := r.Navigate(session.Anonymous, "/dashboard/patients")
	if d.Action != RedirectLogin {
		t.Fatalf("Action = %s, want %s", d.Action, RedirectLogin)
	}
	if r.Remembered() != "/dashboard/patients" {
		t.Fatalf("Remembered = %q", r.Remembered())
	}

	// The login page itself renders and must not drop the origin
	if d := r.Navigate(session.Anonymous, "/login"); d.Action != Render {
		t.Fatalf("login Action = %s", d.Action)
	}

	if got := r.AfterLogin(); got != "/dashboard/patients" {
		t.Errorf("AfterLogin = %q, want /dashboard/patients", got)
	}
	if got := r.AfterLogin(); got != HomePath {
		t.Errorf("second AfterLogin = %q, want %s", got, HomePath)
	}
}

func TestRouter_AuthenticatedLoginConsumesOrigin(t *testing.T) {
	r := NewRouter()
	r.Navigate(session.Anonymous, "/dashboard/alerts")

	d := r.Navigate(session.Authenticated, "/login")
	if d.Target != "/dashboard/alerts" {
		t.Errorf("Target = %q, want /dashboard/alerts", d.Target)
	}
	if r.Remembered() != "" {
		t.Errorf("Remembered = %q, want empty", r.Remembered())
	}
	if r.Current() != "/dashboard/alerts" {
		t.Errorf("Current = %q", r.Current())
	}
}

func TestRouter_LaterRedirectReplacesOrigin(t *testing.T) {
	r := NewRouter()
	r.Navigate(session.Anonymous, "/dashboard/patients")
	r.Navigate(session.Anonymous, "/dashboard/glucose")
	r.Navigate(session.Anonymous, "/")

	if got := r.AfterLogin(); got != "/dashboard/glucose" {
		t.Errorf("AfterLogin = %q, want /dashboard/glucose", got)
	}
}

func TestRouter_Reset(t *testing.T) {
	r := NewRouter()
	r.Navigate(session.Anonymous, "/dashboard/patients")
	r.Reset()

	if got := r.AfterLogin(); got != HomePath {
		t.Errorf("AfterLogin = %q, want %s", got, HomePath)
	}
}
