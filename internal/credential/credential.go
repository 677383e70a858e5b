// Package credential owns password hashing and verification. Hashing is
// PBKDF2 with externally configured iteration count, key length and digest;
// the same password and salt always produce the same hash.
package credential

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"math/rand/v2"

	"golang.org/x/crypto/pbkdf2"
)

// Config carries the hashing parameters. All three are required and come
// from process configuration, not code.
type Config struct {
	Iterations int
	KeyLength  int
	Digest     string // sha1, sha256 or sha512
}

type Store struct {
	iterations int
	keyLength  int
	digest     func() hash.Hash
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("iteration count must be positive, got %d", cfg.Iterations)
	}
	if cfg.KeyLength <= 0 {
		return nil, fmt.Errorf("key length must be positive, got %d", cfg.KeyLength)
	}
	digest, err := digestByName(cfg.Digest)
	if err != nil {
		return nil, err
	}
	return &Store{iterations: cfg.Iterations, keyLength: cfg.KeyLength, digest: digest}, nil
}

func digestByName(name string) (func() hash.Hash, error) {
	switch name {
	case "sha1":
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported digest %q", name)
	}
}

// Hash derives a base64-encoded key from password and salt.
func (s *Store) Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), s.iterations, s.keyLength, s.digest)
	return base64.StdEncoding.EncodeToString(key)
}

// Verify recomputes the hash and compares it in constant time. The PBKDF2
// derivation itself is not constant time in the password length; that is a
// known limitation, not something this layer works around.
func (s *Store) Verify(password, salt, expected string) bool {
	got := s.Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

const saltLength = 64

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSalt returns a fresh 64-character per-user salt. The salt only defeats
// hash reuse across users; it is not a secret, so a non-cryptographic source
// is acceptable here. Switching to crypto/rand is a hardening item.
func (s *Store) NewSalt() string {
	b := make([]byte, saltLength)
	for i := range b {
		b[i] = saltAlphabet[rand.IntN(len(saltAlphabet))]
	}
	return string(b)
}
