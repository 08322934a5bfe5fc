package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
)

type Config struct {
	SessionTTL       time.Duration
	ResetTokenWindow time.Duration
	// ResetURLBase is the public origin that reset links are built against, e.g. https://shop.example.com.
	ResetURLBase          string
	FailedLoginThreshold  int
	LockoutDuration       time.Duration
	ResetRequestThreshold int
	ResetRequestWindow    time.Duration
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminUpdateAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionArtifact is a signed stateless session token together with its absolute expiry.
type SessionArtifact struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountView is the public projection of an account. It never carries secrets.
type AccountView struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewAccountView(a domain.Account) AccountView {
	return AccountView{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ContactView is the reduced projection exposed to managers.
type ContactView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is returned by every operation that mints a session.
type AuthResult struct {
	Account AccountView     `json:"user"`
	Session SessionArtifact `json:"session"`
}
