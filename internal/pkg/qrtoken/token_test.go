package qrtoken

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	s, err := NewService(Config{
		Secret:           "qr-secret",
		MaxAge:           20 * time.Second,
		RotationInterval: 2 * time.Second,
		Issuer:           "attendance.test",
	})
	require.NoError(t, err)
	return s.WithClock(clock.Now)
}

func TestVerifyFreshness(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessionID := uuid.New()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "immediately", elapsed: 0},
		{name: "within window", elapsed: 10 * time.Second},
		{name: "exactly at window edge", elapsed: 20 * time.Second},
		{name: "past window", elapsed: 25 * time.Second, wantErr: ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: start}
			s := newTestService(t, clock)

			token, issuedAt, err := s.Issue(sessionID)
			require.NoError(t, err)
			assert.Equal(t, start, issuedAt)

			clock.t = start.Add(tt.elapsed)
			gotID, gotIssued, err := s.Verify(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sessionID, gotID)
			assert.True(t, gotIssued.Equal(start))
		})
	}
}

func TestVerifyFreshnessSubSecondMint(t *testing.T) {
	minted := time.Date(2025, 3, 10, 9, 0, 0, 900*int(time.Millisecond), time.UTC)

	tests := []struct {
		name    string
		age     time.Duration
		wantErr error
	}{
		{name: "just under window", age: 19600 * time.Millisecond},
		{name: "exactly window", age: 20 * time.Second},
		{name: "well past window", age: 21500 * time.Millisecond, wantErr: ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: minted}
			s := newTestService(t, clock)

			token, _, err := s.Issue(uuid.New())
			require.NoError(t, err)

			clock.t = minted.Add(tt.age)
			_, _, err = s.Verify(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestService(t, clock)

	token, _, err := s.Issue(uuid.New())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Swap the payload for one naming another session
	other, _, err := s.Issue(uuid.New())
	require.NoError(t, err)
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	tests := map[string]string{
		"garbage":         "not-a-token",
		"empty":           "",
		"swapped payload": forged,
		"truncated":       parts[0] + "." + parts[1],
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestService(t, clock)

	other, err := NewService(Config{Secret: "different", MaxAge: 20 * time.Second, RotationInterval: 2 * time.Second})
	require.NoError(t, err)
	token, _, err := other.WithClock(clock.Now).Issue(uuid.New())
	require.NoError(t, err)

	_, _, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestService(t, clock)

	c := claims{SessionID: uuid.NewString(), RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(clock.t)}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsBadPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestService(t, clock)

	sign := func(c claims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("qr-secret"))
		require.NoError(t, err)
		return tok
	}

	tests := map[string]string{
		"missing session": sign(claims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(clock.t)}}),
		"bad session":     sign(claims{SessionID: "42", RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(clock.t)}}),
		"missing iat":     sign(claims{SessionID: uuid.NewString()}),
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestNewServiceValidatesConfig(t *testing.T) {
	_, err := NewService(Config{MaxAge: 20 * time.Second, RotationInterval: 2 * time.Second})
	assert.Error(t, err)

	_, err = NewService(Config{Secret: "s", MaxAge: time.Second, RotationInterval: 2 * time.Second})
	assert.Error(t, err)
}
