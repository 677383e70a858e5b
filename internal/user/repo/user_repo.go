package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/vista0212/kommunity-backend/internal/user/entity"
)

// ErrNotFound signals an absent user. Absence is a normal outcome callers
// must check explicitly, never a panic or a generic failure.
var ErrNotFound = errors.New("user not found")

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// Login id and email are each unique across rows that have them; rows
// awaiting registration leave both NULL.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  pk UUID PRIMARY KEY,
  login_id VARCHAR(255),
  password VARCHAR(255),
  password_key VARCHAR(255),
  email VARCHAR(255),
  sign_key VARCHAR(6),
  name VARCHAR(255) NOT NULL,
  avatar VARCHAR(255),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_login_id ON users (login_id) WHERE login_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email) WHERE email IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_users_sign_key ON users (sign_key);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const userColumns = `pk, login_id, password, password_key, email, sign_key, name, avatar, created_at, updated_at`

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByPK fetches a user by internal id.
func (r *UserRepo) FindByPK(ctx context.Context, pk string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE pk=$1`, pk)
}

// FindByLoginID fetches a user by public login id.
func (r *UserRepo) FindByLoginID(ctx context.Context, loginID string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE login_id=$1`, loginID)
}

// FindByEmail fetches a user by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

// FindBySignKey fetches the pending-registration row holding signKey.
// Consumed sign keys are cleared, so a replayed key no longer matches.
func (r *UserRepo) FindBySignKey(ctx context.Context, signKey string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE sign_key=$1 AND sign_key <> ''`, signKey)
}

// CreatePending inserts a provisioned row carrying only pk, name, sign key
// and optional avatar. Timestamps come back from the database.
func (r *UserRepo) CreatePending(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (pk, name, sign_key, avatar) VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, u.PK, u.Name, u.SignKey, u.Avatar).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

// ActivateRegistration binds loginID/email/password to the row identified by
// pk and clears the sign key in one statement. The WHERE clause re-checks the
// sign key so a concurrent registration of the same key applies exactly once;
// the loser sees false.
func (r *UserRepo) ActivateRegistration(ctx context.Context, pk, loginID, email, passwordHash, passwordKey, signKey string) (bool, error) {
	const q = `UPDATE users
		SET login_id=$2, email=$3, password=$4, password_key=$5, sign_key='', updated_at=NOW()
		WHERE pk=$1 AND sign_key=$6 AND sign_key <> ''`
	res, err := r.db.ExecContext(ctx, q, pk, loginID, email, passwordHash, passwordKey, signKey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
