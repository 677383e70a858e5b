// Package entity defines the board, comment, like and image records.
package entity

import (
	"time"

	userentity "github.com/vista0212/kommunity-backend/internal/user/entity"
)

// Board is a text post owned by one user. The relation fields are filled by
// the repository's read-assembly; Likes and IsLiked are computed per viewer
// by the service and never persisted.
type Board struct {
	PK        int64      `db:"pk" json:"pk"`
	UserPK    string     `db:"user_pk" json:"user_pk"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`

	User     *userentity.User `db:"-" json:"user,omitempty"`
	Images   []BoardImage     `db:"-" json:"boardImage"`
	Comments []Comment        `db:"-" json:"comment"`
	LikeRows []BoardLike      `db:"-" json:"-"`

	Likes   int  `db:"-" json:"likes"`
	IsLiked bool `db:"-" json:"isLiked"`
}

// BoardImage associates an uploaded object's storage key with a board.
// The row is created before the binary upload completes.
type BoardImage struct {
	PK         int64  `db:"pk" json:"pk"`
	BoardPK    int64  `db:"board_pk" json:"board_pk"`
	StorageKey string `db:"storage_key" json:"image"`
}

// Comment cannot exist without a live board and user.
type Comment struct {
	PK        int64     `db:"pk" json:"pk"`
	BoardPK   int64     `db:"board_pk" json:"board_pk"`
	UserPK    string    `db:"user_pk" json:"user_pk"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	User *userentity.User `db:"-" json:"user,omitempty"`
}

// BoardLike holds at most one row per (board, user) pair, enforced by a
// unique index and the toggle transaction together.
type BoardLike struct {
	PK      int64  `db:"pk" json:"pk"`
	BoardPK int64  `db:"board_pk" json:"board_pk"`
	UserPK  string `db:"user_pk" json:"user_pk"`
}
