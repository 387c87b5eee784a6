package models

// UserProfile is the signed-in doctor as returned by /api/auth/me
type UserProfile struct {
	ID        string `json:"id,omitempty"`
	BadgeID   string `json:"badge_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// TokenResponse is the body of a successful login
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserProfile `json:"user"`
}

// Registration is the payload for creating a doctor account
type Registration struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	BadgeID  string `json:"badgeId" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// Validate checks the registration before it is sent
func (r *Registration) Validate() error {
	return validateStruct(r)
}
