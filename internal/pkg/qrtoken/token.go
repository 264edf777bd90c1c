// Package qrtoken mints and verifies the short-lived signed tokens shown as a
// rotating QR code during an attendance session.
//
// A token is an HS256 JWT carrying the session UUID ("sid") and the issue
// time ("iat", whole seconds). Freshness is checked here, not by the JWT
// library, so that a bad signature and a stale token are told apart.
package qrtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification errors
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidPayload   = errors.New("invalid token payload")
	ErrExpired          = errors.New("token expired")
)

// Config holds the signing secret and timing windows.
type Config struct {
	Secret string
	// MaxAge is the freshness window accepted on redemption
	MaxAge time.Duration
	// RotationInterval is how often displays fetch a new token
	RotationInterval time.Duration
	Issuer           string
}

// Service issues and verifies QR tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewService creates a token service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("qrtoken: secret is required")
	}
	if cfg.RotationInterval <= 0 || cfg.MaxAge <= cfg.RotationInterval {
		return nil, fmt.Errorf("qrtoken: max age %s must exceed rotation interval %s", cfg.MaxAge, cfg.RotationInterval)
	}
	return &Service{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// MaxAge returns the freshness window.
func (s *Service) MaxAge() time.Duration { return s.cfg.MaxAge }

// RotationInterval returns the display refresh cadence.
func (s *Service) RotationInterval() time.Duration { return s.cfg.RotationInterval }

// Issue mints a token for the session stamped with the current time.
func (s *Service) Issue(sessionID uuid.UUID) (string, time.Time, error) {
	issuedAt := s.now().Truncate(time.Second)

	c := claims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
			Issuer:   s.cfg.Issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign qr token: %w", err)
	}
	return token, issuedAt, nil
}

// Verify checks signature, payload and freshness in that order and returns
// the embedded session UUID and issue time.
func (s *Service) Verify(token string) (uuid.UUID, time.Time, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	sessionID, err := uuid.Parse(c.SessionID)
	if err != nil || c.IssuedAt == nil {
		return uuid.Nil, time.Time{}, ErrInvalidPayload
	}

	// iat carries whole seconds, so age is measured on the same grid
	issuedAt := c.IssuedAt.Time
	if s.now().Truncate(time.Second).Sub(issuedAt) > s.cfg.MaxAge {
		return sessionID, issuedAt, ErrExpired
	}

	return sessionID, issuedAt, nil
}
