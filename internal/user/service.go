// Package user implements the user directory: lookup, registration with
// one-time sign keys, and login.
package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/apperr"
	"github.com/vista0212/kommunity-backend/internal/user/entity"
	"github.com/vista0212/kommunity-backend/internal/user/repo"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	FindByPK(ctx context.Context, pk string) (*entity.User, error)
	FindByLoginID(ctx context.Context, loginID string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindBySignKey(ctx context.Context, signKey string) (*entity.User, error)
	CreatePending(ctx context.Context, u *entity.User) error
	ActivateRegistration(ctx context.Context, pk, loginID, email, passwordHash, passwordKey, signKey string) (bool, error)
}

// CredentialStore hashes and verifies passwords and mints per-user salts.
type CredentialStore interface {
	Hash(password, salt string) string
	Verify(password, salt, expected string) bool
	NewSalt() string
}

// TokenIssuer mints session tokens on successful login.
type TokenIssuer interface {
	Issue(userPK string) (string, error)
}

type UserService struct {
	repo   Repository
	creds  CredentialStore
	tokens TokenIssuer
	logger *zap.SugaredLogger
}

func NewUserService(r Repository, creds CredentialStore, tokens TokenIssuer, logger *zap.SugaredLogger) *UserService {
	return &UserService{repo: r, creds: creds, tokens: tokens, logger: logger}
}

// FindByPK resolves a user by internal id.
func (s *UserService) FindByPK(ctx context.Context, pk string) (*entity.User, error) {
	u, err := s.repo.FindByPK(ctx, pk)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Upstream("database error", err)
	}
	return u, nil
}

// Provision creates a pending user row carrying a one-time sign key. The row
// gains its public identity later, at registration.
func (s *UserService) Provision(ctx context.Context, name, signKey string) (*entity.User, error) {
	if name == "" || signKey == "" {
		return nil, apperr.Validation("name and sign key are required")
	}
	u := &entity.User{PK: uuid.NewString(), Name: name, SignKey: &signKey}
	if err := s.repo.CreatePending(ctx, u); err != nil {
		s.logger.Errorw("provision failed", "name", name, "err", err)
		return nil, apperr.Upstream("database error", err)
	}
	s.logger.Infow("member provisioned", "pk", u.PK)
	return u, nil
}

// Register binds loginID, email and password to the pending row matching
// signKey. The sign key is consumed exactly once: a second registration with
// the same key fails, as does any reuse of a taken login id or email.
func (s *UserService) Register(ctx context.Context, loginID, email, password, signKey string) error {
	if loginID == "" || email == "" || password == "" || signKey == "" {
		return apperr.Validation("id, email, password and sign key are required")
	}

	if _, err := s.repo.FindByLoginID(ctx, loginID); err == nil {
		return apperr.Conflict("login id already in use")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return apperr.Upstream("database error", err)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return apperr.Conflict("email already in use")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return apperr.Upstream("database error", err)
	}

	pending, err := s.repo.FindBySignKey(ctx, signKey)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.Conflict("no matching sign key")
		}
		return apperr.Upstream("database error", err)
	}

	salt := s.creds.NewSalt()
	hashed := s.creds.Hash(password, salt)

	ok, err := s.repo.ActivateRegistration(ctx, pending.PK, loginID, email, hashed, salt, signKey)
	if err != nil {
		s.logger.Errorw("registration update failed", "pk", pending.PK, "err", err)
		return apperr.Upstream("database error", err)
	}
	if !ok {
		// sign key consumed between lookup and update
		return apperr.Conflict("no matching sign key")
	}

	s.logger.Infow("user registered", "pk", pending.PK, "login_id", loginID)
	return nil
}

// Login verifies credentials and issues a session token. Unknown login id
// and password mismatch are distinguishable only in server logs; the caller
// sees the same rejection either way to avoid user enumeration.
func (s *UserService) Login(ctx context.Context, loginID, password string) (*entity.User, string, error) {
	if loginID == "" || password == "" {
		return nil, "", apperr.Validation("id and password are required")
	}

	u, err := s.repo.FindByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Debugw("login failed: unknown login id", "login_id", loginID)
			return nil, "", apperr.Auth("invalid credentials")
		}
		return nil, "", apperr.Upstream("database error", err)
	}
	if u.Password == nil || u.PasswordKey == nil {
		s.logger.Debugw("login failed: registration incomplete", "pk", u.PK)
		return nil, "", apperr.Auth("invalid credentials")
	}
	if !s.creds.Verify(password, *u.PasswordKey, *u.Password) {
		s.logger.Debugw("login failed: password mismatch", "pk", u.PK)
		return nil, "", apperr.Auth("invalid credentials")
	}

	tok, err := s.tokens.Issue(u.PK)
	if err != nil {
		s.logger.Errorw("token issue failed", "pk", u.PK, "err", err)
		return nil, "", apperr.Upstream("token issue failed", err)
	}

	s.logger.Infow("user logged in", "pk", u.PK)
	return u, tok, nil
}
