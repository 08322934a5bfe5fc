package domain

import "errors"

var (
	// ErrValidation covers missing or malformed input, including a confirm-password mismatch.
	ErrValidation = errors.New("validation failed")
	// ErrCredential hides whether the email or the password failed.
	// Login uses it for both so an attacker cannot enumerate accounts.
	ErrCredential = errors.New("invalid credentials")
	// ErrTokenInvalidOrExpired is returned for unmatched and expired reset tokens alike.
	// The two causes are deliberately indistinguishable to callers.
	ErrTokenInvalidOrExpired = errors.New("token is either invalid or expired")
	ErrNotFound              = errors.New("resource not found")
	ErrAuthentication        = errors.New("authentication required")
	ErrAuthorization         = errors.New("insufficient role")
	// ErrDependency wraps failures of mail delivery or persistence collaborators.
	ErrDependency  = errors.New("dependency failure")
	ErrConflict    = errors.New("conflict")
	ErrRateLimited = errors.New("rate limited")
	// ErrMissingPasswordHash signals a corrupt account record with no stored credential.
	ErrMissingPasswordHash = errors.New("account has no stored password hash")
)
