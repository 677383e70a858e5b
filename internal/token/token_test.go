package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestService(t *testing.T, validity time.Duration) *Service {
	t.Helper()
	s, err := NewService(testSecret, validity)
	require.NoError(t, err)
	return s
}

func TestNewService_EmptySecret(t *testing.T) {
	_, err := NewService("", 0)
	require.Error(t, err)
}

func TestIssueVerify_Roundtrip(t *testing.T) {
	s := newTestService(t, 0)
	tok, err := s.Issue("user-pk-1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	pk, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-pk-1", pk)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestService(t, -time.Minute)
	tok, err := s.Issue("user-pk-1")
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_Malformed(t *testing.T) {
	s := newTestService(t, 0)
	_, err := s.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerify_WrongSecret(t *testing.T) {
	other, err := NewService("other-secret", 0)
	require.NoError(t, err)
	tok, err := other.Issue("user-pk-1")
	require.NoError(t, err)

	s := newTestService(t, 0)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerify_NotYetValid(t *testing.T) {
	now := time.Now()
	claims := Claims{
		UserPK: "user-pk-1",
		RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(now.Add(time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	s := newTestService(t, 0)
	_, err = s.Verify(raw)
	assert.ErrorIs(t, err, ErrNotYetValid)
}

func TestVerify_MissingUserPK(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	s := newTestService(t, 0)
	_, err = s.Verify(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAuthMessage(t *testing.T) {
	assert.Equal(t, "token expired", AuthMessage(ErrExpired))
	assert.Equal(t, "token not yet valid", AuthMessage(ErrNotYetValid))
	assert.Equal(t, "invalid token", AuthMessage(ErrMalformed))
	assert.Equal(t, "unknown token error", AuthMessage(ErrUnknown))
}
