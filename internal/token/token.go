// Package token issues and verifies the opaque signed session tokens that
// accompany every authenticated operation. Tokens are stateless: there is no
// server-side revocation, and logout is not a concept in this design.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Rejection reasons, each mapped to a distinct caller-facing message by
// AuthMessage. A rejected token aborts the caller's whole operation.
var (
	ErrMalformed   = errors.New("invalid token")
	ErrExpired     = errors.New("token expired")
	ErrNotYetValid = errors.New("token not yet valid")
	ErrUnknown     = errors.New("unknown token error")
)

// DefaultValidity is the absolute token lifetime from issuance.
const DefaultValidity = time.Hour

// Claims embeds the user's internal id alongside the registered claims.
type Claims struct {
	UserPK string `json:"pk"`
	jwt.RegisteredClaims
}

type Service struct {
	secret   []byte
	validity time.Duration
}

func NewService(secret string, validity time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret cannot be empty")
	}
	if validity == 0 {
		validity = DefaultValidity
	}
	return &Service{secret: []byte(secret), validity: validity}, nil
}

// Issue signs a token carrying userPK, expiring after the configured validity.
func (s *Service) Issue(userPK string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserPK: userPK,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and time claims and returns the embedded user pk.
// Failures are one of the package sentinel errors.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return "", ErrNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrMalformed
		default:
			return "", ErrUnknown
		}
	}
	if !tok.Valid || claims.UserPK == "" {
		return "", ErrMalformed
	}
	return claims.UserPK, nil
}

// AuthMessage maps a Verify error to its caller-facing message.
func AuthMessage(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "token expired"
	case errors.Is(err, ErrNotYetValid):
		return "token not yet valid"
	case errors.Is(err, ErrMalformed):
		return "invalid token"
	default:
		return "unknown token error"
	}
}
