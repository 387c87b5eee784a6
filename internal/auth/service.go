// Package auth exchanges doctor credentials for a bearer token
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrcode/diabetes-dashboard/internal/api"
	"github.com/mrcode/diabetes-dashboard/internal/models"
	"github.com/mrcode/diabetes-dashboard/internal/tokenstore"
)

// Backend paths
const (
	TokenPath    = "/api/auth/token"
	RegisterPath = "/api/auth/register"
	MePath       = "/api/auth/me"
)

// RegistrationFailedMessage is shown when the server gives no usable detail
const RegistrationFailedMessage = "Registration failed. Please try again."

// Service wraps the auth endpoints. It is the only writer of the token
// store besides the api client's 401 handling.
type Service struct {
	client *api.Client
	store  tokenstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an auth service
func NewService(client *api.Client, store tokenstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Login exchanges a badge id and password for a token.
// The token is in the store before Login returns success.
func (s *Service) Login(ctx context.Context, badgeID, password string) (*models.TokenResponse, error) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return nil, api.NewValidationError(models.NewValidationError("badgeId", "is required"))
	}
	if password == "" {
		return nil, api.NewValidationError(models.NewValidationError("password", "is required"))
	}

	form := url.Values{}
	form.Set("username", badgeID)
	form.Set("password", password)

	var resp models.TokenResponse
	err := s.client.Send(ctx, http.MethodPost, TokenPath, api.RequestOptions{
		Form:   form,
		Public: true,
		Login:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &api.Error{Kind: api.KindUnknown, Message: "No access token received from server"}
	}
	if resp.User.BadgeID == "" {
		resp.User.BadgeID = badgeID
	}

	if err := s.Remember(tokenstore.FromLogin(&resp, s.now())); err != nil {
		return nil, err
	}

	s.logger.Info("doctor logged in", zap.String("badge_id", resp.User.BadgeID))
	return &resp, nil
}

type registerResponse struct {
	Status   string              `json:"status"`
	DoctorID string              `json:"doctor_id"`
	Message  string              `json:"message"`
	Data     *models.UserProfile `json:"data"`
}

// Register creates a doctor account. It does not log in.
func (s *Service) Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.BadgeID = strings.TrimSpace(reg.BadgeID)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := api.Validate(&reg); err != nil {
		return nil, err
	}

	var resp registerResponse
	err := s.client.Send(ctx, http.MethodPost, RegisterPath, api.RequestOptions{
		Body:   reg,
		Public: true,
	}, &resp)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind != api.KindValidation && apiErr.Kind != api.KindNetwork {
			apiErr.Message = RegistrationFailedMessage
		}
		return nil, err
	}

	user := models.UserProfile{
		ID:      resp.DoctorID,
		BadgeID: reg.BadgeID,
		Name:    reg.Name,
		Email:   reg.Email,
	}
	if resp.Data != nil {
		if resp.Data.BadgeID != "" {
			user.BadgeID = resp.Data.BadgeID
		}
		if resp.Data.Name != "" {
			user.Name = resp.Data.Name
		}
	}

	s.logger.Info("doctor registered", zap.String("badge_id", user.BadgeID))
	return &user, nil
}

// CurrentUser fetches the profile for the stored token
func (s *Service) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.client.Get(ctx, MePath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout forgets the token locally; the server keeps no session to revoke
func (s *Service) Logout() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.logger.Info("doctor logged out")
	return nil
}

// Remember writes creds to the store. On failure the store is cleared so
// no half-written session survives.
func (s *Service) Remember(creds tokenstore.Credentials) error {
	if err := s.store.Set(creds); err != nil {
		s.logger.Error("saving session failed", zap.Error(err))
		if clearErr := s.store.Clear(); clearErr != nil {
			s.logger.Error("clearing token store", zap.Error(clearErr))
		}
		return &api.Error{Kind: api.KindUnknown, Message: "Could not save the session", Err: err}
	}
	return nil
}

// Stored returns the persisted credentials, if any
func (s *Service) Stored() (tokenstore.Credentials, bool) {
	return s.store.Get()
}
