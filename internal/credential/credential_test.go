package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{Iterations: 1000, KeyLength: 64, Digest: "sha512"})
	require.NoError(t, err)
	return s
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(Config{Iterations: 0, KeyLength: 64, Digest: "sha512"})
	require.Error(t, err)

	_, err = NewStore(Config{Iterations: 1000, KeyLength: 0, Digest: "sha512"})
	require.Error(t, err)

	_, err = NewStore(Config{Iterations: 1000, KeyLength: 64, Digest: "md5"})
	require.ErrorContains(t, err, "unsupported digest")
}

func TestHash_Deterministic(t *testing.T) {
	s := newTestStore(t)
	h1 := s.Hash("password", "salt")
	h2 := s.Hash("password", "salt")
	assert.Equal(t, h1, h2)
	assert.NotEmpty(t, h1)
}

func TestHash_SaltSensitivity(t *testing.T) {
	s := newTestStore(t)
	assert.NotEqual(t, s.Hash("password", "salt-a"), s.Hash("password", "salt-b"))
	assert.NotEqual(t, s.Hash("password-a", "salt"), s.Hash("password-b", "salt"))
}

func TestHash_DigestChangesOutput(t *testing.T) {
	s256, err := NewStore(Config{Iterations: 1000, KeyLength: 64, Digest: "sha256"})
	require.NoError(t, err)
	s512 := newTestStore(t)
	assert.NotEqual(t, s256.Hash("password", "salt"), s512.Hash("password", "salt"))
}

func TestVerify(t *testing.T) {
	s := newTestStore(t)
	salt := s.NewSalt()
	hashed := s.Hash("correct horse", salt)

	assert.True(t, s.Verify("correct horse", salt, hashed))
	assert.False(t, s.Verify("wrong horse", salt, hashed))
	assert.False(t, s.Verify("correct horse", "other salt", hashed))
	assert.False(t, s.Verify("correct horse", salt, "not a hash"))
}

func TestNewSalt(t *testing.T) {
	s := newTestStore(t)
	a := s.NewSalt()
	b := s.NewSalt()
	assert.Len(t, a, 64)
	assert.Len(t, b, 64)
	assert.NotEqual(t, a, b)
}
