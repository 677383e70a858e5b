package entity

import "time"

// User represents a row in the `users` table. Rows are provisioned with a
// name and a one-time sign key; login id, email and password are bound at
// registration, which consumes the sign key. Nullable columns are pointers.
type User struct {
	PK          string    `db:"pk" json:"pk"`
	LoginID     *string   `db:"login_id" json:"id,omitempty"`
	Password    *string   `db:"password" json:"-"`
	PasswordKey *string   `db:"password_key" json:"-"`
	Email       *string   `db:"email" json:"email,omitempty"`
	SignKey     *string   `db:"sign_key" json:"-"`
	Name        string    `db:"name" json:"name"`
	Avatar      *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
