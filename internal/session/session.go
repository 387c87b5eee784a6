// Package session tracks whether a doctor is signed in
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
	"github.com/mrcode/diabetes-dashboard/internal/tokenstore"
)

// State is the session lifecycle state
type State string

const (
	Initializing  State = "initializing"
	Authenticated State = "authenticated"
	Anonymous     State = "anonymous"
)

// Reason explains the last move to Anonymous
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonNoToken  Reason = "no_token"
	ReasonRejected Reason = "rejected"
	ReasonLogout   Reason = "logout"
	ReasonExpired  Reason = "expired"
)

// ErrSuperseded is returned when a later transition overtook the call
var ErrSuperseded = errors.New("session changed while the request was in flight")

// Snapshot is an immutable view of the session
type Snapshot struct {
	State           State               `json:"state"`
	User            *models.UserProfile `json:"user"`
	IsAuthenticated bool                `json:"isAuthenticated"`
	Loading         bool                `json:"loading"`
	Error           string              `json:"error,omitempty"`
	Reason          Reason              `json:"reason,omitempty"`
}

// Authenticator is the subset of the auth service the session drives
type Authenticator interface {
	Login(ctx context.Context, badgeID, password string) (*models.TokenResponse, error)
	Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error)
	CurrentUser(ctx context.Context) (*models.UserProfile, error)
	Logout() error
	Stored() (tokenstore.Credentials, bool)
	Remember(tokenstore.Credentials) error
}

// Session owns the signed-in state. Construct one per application.
type Session struct {
	auth   Authenticator
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	user    *models.UserProfile
	loading bool
	err     string
	reason  Reason
	gen     uint64
	// creds backs the Authenticated state; zero otherwise
	creds tokenstore.Credentials

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used for local token expiry
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a session in the Initializing state
func New(auth Authenticator, opts ...Option) *Session {
	s := &Session{
		auth:    auth,
		logger:  zap.NewNop(),
		now:     time.Now,
		state:   Initializing,
		loading: true,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) snapshotLocked() Snapshot {
	var user *models.UserProfile
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		State:           s.state,
		User:            user,
		IsAuthenticated: s.state == Authenticated,
		Loading:         s.loading,
		Error:           s.err,
		Reason:          s.reason,
	}
}

// Subscribe registers fn for every change. fn runs outside the session lock.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Session) notify(snap Snapshot) {
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// transitionLocked moves to a new state and returns the snapshot to publish
func (s *Session) transitionLocked(to State, user *models.UserProfile, reason Reason) Snapshot {
	if s.state != to {
		s.logger.Info("session transition",
			zap.String("from", string(s.state)),
			zap.String("to", string(to)),
			zap.String("reason", string(reason)),
		)
	}
	s.state = to
	s.user = user
	s.reason = reason
	s.loading = false
	if to != Authenticated {
		s.creds = tokenstore.Credentials{}
	}
	return s.snapshotLocked()
}

// Start restores a persisted session. With no token, or one that has
// already expired, it moves to Anonymous without touching the network.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen

	creds, ok := s.auth.Stored()
	if !ok || creds.Expired(s.now()) {
		if ok {
			_ = s.auth.Logout()
		}
		snap := s.transitionLocked(Anonymous, nil, ReasonNoToken)
		s.mu.Unlock()
		s.notify(snap)
		return nil
	}

	s.state = Initializing
	s.loading = true
	s.user = nil
	s.creds = tokenstore.Credentials{}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	user, err := s.auth.CurrentUser(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		_ = s.auth.Logout()
		snap = s.transitionLocked(Anonymous, nil, ReasonRejected)
		s.mu.Unlock()
		s.notify(snap)
		s.logger.Info("stored session rejected", zap.String("kind", string(api.KindOf(err))))
		return err
	}
	s.err = ""
	snap = s.transitionLocked(Authenticated, user, ReasonNone)
	s.creds = creds
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Login signs in. On failure the state is unchanged and Error is set.
func (s *Session) Login(ctx context.Context, badgeID, password string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.loading = true
	s.err = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	resp, err := s.auth.Login(ctx, badgeID, password)

	s.mu.Lock()
	if gen != s.gen {
		if err == nil {
			s.dropOvertakenLocked(resp.AccessToken)
		}
		s.mu.Unlock()
		return ErrSuperseded
	}

	var creds tokenstore.Credentials
	if err == nil {
		// an overtaken login may have written its token after this one did
		creds = tokenstore.FromLogin(resp, s.now())
		if stored, ok := s.auth.Stored(); !ok || stored.Token != creds.Token {
			err = s.auth.Remember(creds)
		}
	}
	if err != nil {
		s.loading = false
		s.err = err.Error()
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return err
	}

	user := resp.User
	snap = s.transitionLocked(Authenticated, &user, ReasonNone)
	s.creds = creds
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// dropOvertakenLocked undoes the store write of a login that lost to a
// newer login or a logout. The store is left alone unless it still holds
// token; if another session is active its credentials are put back.
func (s *Session) dropOvertakenLocked(token string) {
	stored, ok := s.auth.Stored()
	if !ok || stored.Token != token {
		return
	}
	if s.state == Authenticated && s.creds.Token != "" {
		if err := s.auth.Remember(s.creds); err != nil {
			s.logger.Error("restoring session token", zap.Error(err))
		}
		return
	}
	if err := s.auth.Logout(); err != nil {
		s.logger.Error("dropping overtaken token", zap.Error(err))
	}
}

// Register creates an account without changing the session state
func (s *Session) Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	user, err := s.auth.Register(ctx, reg)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return user, err
}

// Logout ends the session locally
func (s *Session) Logout() error {
	s.mu.Lock()
	s.gen++
	err := s.auth.Logout()
	s.err = ""
	snap := s.transitionLocked(Anonymous, nil, ReasonLogout)
	s.mu.Unlock()
	s.notify(snap)
	return err
}

// Expire handles a token the server no longer accepts. Only an
// Authenticated session moves; repeated calls are no-ops.
func (s *Session) Expire() {
	s.mu.Lock()
	if s.state != Authenticated {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.err = api.FallbackMessage(api.KindUnauthenticated)
	snap := s.transitionLocked(Anonymous, nil, ReasonExpired)
	s.mu.Unlock()
	s.notify(snap)
}

// Refresh refetches the profile while signed in
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Authenticated {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	s.mu.Unlock()

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if gen != s.gen || s.state != Authenticated {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.user = user
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// ClearError dismisses the last error
func (s *Session) ClearError() {
	s.mu.Lock()
	if s.err == "" {
		s.mu.Unlock()
		return
	}
	s.err = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}
