// Package guard decides whether a view may render for the current session
package guard

import (
	"net/url"
	"strings"
	"sync"

	"github.com/mrcode/diabetes-dashboard/internal/session"
)

// Well-known paths
const (
	LoginPath  = "/login"
	SignupPath = "/signup"
	HomePath   = "/dashboard"
)

// Action is what the shell should do with a navigation
type Action string

const (
	Loading       Action = "loading"
	Render        Action = "render"
	RedirectLogin Action = "redirect_login"
	RedirectHome  Action = "redirect_home"
)

// Decision is the outcome of a navigation check. Target is set for
// redirects; Remember is the origin to return to after login.
type Decision struct {
	Action   Action `json:"action"`
	Path     string `json:"path"`
	Target   string `json:"target,omitempty"`
	Remember string `json:"remember,omitempty"`
}

// Protected reports whether path needs an authenticated session
func Protected(path string) bool {
	p := routePath(path)
	return p == HomePath || strings.HasPrefix(p, HomePath+"/")
}

func isPublic(p string) bool {
	return p == LoginPath || p == SignupPath
}

// routePath strips the query and any trailing slash
func routePath(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}

// Decide maps a session state and requested path to an action.
// remembered is the origin saved by an earlier redirect to login.
func Decide(state session.State, path, remembered string) Decision {
	d := Decision{Path: path}
	if state == session.Initializing {
		d.Action = Loading
		return d
	}

	authed := state == session.Authenticated
	p := routePath(path)

	switch {
	case Protected(p):
		if authed {
			d.Action = Render
			return d
		}
		d.Action = RedirectLogin
		d.Target = LoginPath
		d.Remember = path
	case isPublic(p):
		if !authed {
			d.Action = Render
			return d
		}
		d.Action = RedirectHome
		d.Target = HomePath
		if remembered != "" {
			d.Target = remembered
		}
	default:
		// "/" and anything unknown
		if authed {
			d.Action = RedirectHome
			d.Target = HomePath
		} else {
			d.Action = RedirectLogin
			d.Target = LoginPath
		}
	}
	return d
}

// Router tracks the remembered origin across navigations
type Router struct {
	mu         sync.Mutex
	remembered string
	current    string
}

// NewRouter creates a router with no remembered origin
func NewRouter() *Router {
	return &Router{}
}

// Navigate decides the navigation and updates the remembered origin.
// A redirect home consumes the origin.
func (r *Router) Navigate(state session.State, path string) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := Decide(state, path, r.remembered)
	switch d.Action {
	case RedirectLogin:
		if d.Remember != "" {
			r.remembered = d.Remember
		}
		r.current = d.Target
	case RedirectHome:
		r.remembered = ""
		r.current = d.Target
	case Render:
		r.current = path
	}
	return d
}

// AfterLogin returns where to go after a successful login: the
// remembered origin once, then the dashboard home
func (r *Router) AfterLogin() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := HomePath
	if r.remembered != "" {
		target = r.remembered
		r.remembered = ""
	}
	r.current = target
	return target
}

// Remembered returns the pending origin, if any
func (r *Router) Remembered() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remembered
}

// Current returns the last path the router settled on
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Reset forgets the origin and current path, used on logout
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remembered = ""
	r.current = ""
}
