package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// MinSecretLength is the shortest HMAC secret accepted for session signing.
const MinSecretLength = 32

// JWTSigner implements HS256 session signing and parsing.
// The secret is fixed at construction and never mutated afterwards.
type JWTSigner struct {
	secret []byte
	nowFn  func() time.Time
}

// NewJWTSigner builds a signer from the configured shared secret.
func NewJWTSigner(secret string, nowFn func() time.Time) (*JWTSigner, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &JWTSigner{secret: []byte(secret), nowFn: nowFn}, nil
}

func (s *JWTSigner) Sign(claims ports.SessionClaims) (string, error) {
	if claims.Subject == uuid.Nil {
		return "", errors.New("session subject is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject.String(),
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	return token.SignedString(s.secret)
}

// Parse accepts only HS256 tokens signed with this secret that carry an unexpired exp claim.
func (s *JWTSigner) Parse(raw string) (ports.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowFn),
	)
	if err != nil {
		return ports.SessionClaims{}, err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return ports.SessionClaims{}, errors.New("invalid token claims")
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ports.SessionClaims{}, fmt.Errorf("parse sub: %w", err)
	}
	out := ports.SessionClaims{
		Subject:   subject,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
