// Package tokenstore persists the signed-in doctor's bearer token between runs
package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// Credentials is what a successful login leaves behind
type Credentials struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	BadgeID   string    `json:"badgeId"`
	Name      string    `json:"name"`
	SavedAt   time.Time `json:"savedAt"`
}

// FromLogin builds the credentials a successful login leaves behind
func FromLogin(resp *models.TokenResponse, savedAt time.Time) Credentials {
	return Credentials{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		BadgeID:   resp.User.BadgeID,
		Name:      resp.User.Name,
		SavedAt:   savedAt,
	}
}

// Expired reports whether the token carries an exp claim in the past
func (c Credentials) Expired(now time.Time) bool {
	exp, ok := ExpiresAt(c.Token)
	return ok && !now.Before(exp)
}

// Store holds at most one set of credentials.
// Get must not block on I/O; callers read it synchronously at startup.
type Store interface {
	Get() (Credentials, bool)
	Set(Credentials) error
	Clear() error
}

// ExpiresAt reads the exp claim without verifying the signature.
// ok is false for tokens that are not JWTs or carry no exp.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
