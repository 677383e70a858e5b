package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vista0212/kommunity-backend/internal/board/entity"
	userentity "github.com/vista0212/kommunity-backend/internal/user/entity"
)

// ErrNotFound signals an absent or deleted board.
var ErrNotFound = errors.New("board not found")

// BoardRepo provides data access for boards and their child rows using sqlx.
type BoardRepo struct {
	db *sqlx.DB
}

func NewBoardRepo(db *sqlx.DB) *BoardRepo { return &BoardRepo{db: db} }

// EnsureTables creates the board tables if not exists (idempotent).
// board_likes carries the unique (board_pk, user_pk) key the toggle
// transaction relies on.
func (r *BoardRepo) EnsureTables(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS boards (
  pk BIGSERIAL PRIMARY KEY,
  user_pk UUID NOT NULL REFERENCES users(pk),
  content TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  deleted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_boards_created_at ON boards (created_at DESC);
CREATE TABLE IF NOT EXISTS board_images (
  pk BIGSERIAL PRIMARY KEY,
  board_pk BIGINT NOT NULL REFERENCES boards(pk),
  storage_key VARCHAR(255) NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_board_images_board ON board_images (board_pk);
CREATE TABLE IF NOT EXISTS comments (
  pk BIGSERIAL PRIMARY KEY,
  board_pk BIGINT NOT NULL REFERENCES boards(pk),
  user_pk UUID NOT NULL REFERENCES users(pk),
  content TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_comments_board ON comments (board_pk);
CREATE TABLE IF NOT EXISTS board_likes (
  pk BIGSERIAL PRIMARY KEY,
  board_pk BIGINT NOT NULL REFERENCES boards(pk),
  user_pk UUID NOT NULL REFERENCES users(pk),
  UNIQUE (board_pk, user_pk)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Insert creates a board row and fills pk and timestamps from the database.
func (r *BoardRepo) Insert(ctx context.Context, b *entity.Board) error {
	const q = `INSERT INTO boards (user_pk, content) VALUES ($1, $2)
		RETURNING pk, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, b.UserPK, b.Content).
		Scan(&b.PK, &b.CreatedAt, &b.UpdatedAt)
}

// FindByPK fetches a live board row without relations.
func (r *BoardRepo) FindByPK(ctx context.Context, pk int64) (*entity.Board, error) {
	const q = `SELECT pk, user_pk, content, created_at, updated_at, deleted_at
		FROM boards WHERE pk=$1 AND deleted_at IS NULL`
	var b entity.Board
	if err := r.db.GetContext(ctx, &b, q, pk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListWithRelations loads all live boards newest first and attaches owners,
// comments with their authors, images and like rows. The fetch shape is
// fixed: one query per relation over the collected key sets, no per-row
// traversal.
func (r *BoardRepo) ListWithRelations(ctx context.Context) ([]*entity.Board, error) {
	const q = `SELECT pk, user_pk, content, created_at, updated_at, deleted_at
		FROM boards WHERE deleted_at IS NULL ORDER BY created_at DESC, pk DESC`
	var boards []*entity.Board
	if err := r.db.SelectContext(ctx, &boards, q); err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return boards, nil
	}

	boardPKs := make([]int64, 0, len(boards))
	byPK := make(map[int64]*entity.Board, len(boards))
	userPKSet := make(map[string]struct{})
	for _, b := range boards {
		boardPKs = append(boardPKs, b.PK)
		byPK[b.PK] = b
		userPKSet[b.UserPK] = struct{}{}
	}

	comments, err := r.commentsForBoards(ctx, boardPKs)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		userPKSet[comments[i].UserPK] = struct{}{}
	}

	images, err := r.imagesForBoards(ctx, boardPKs)
	if err != nil {
		return nil, err
	}

	likes, err := r.likesForBoards(ctx, boardPKs)
	if err != nil {
		return nil, err
	}

	users, err := r.usersByPK(ctx, userPKSet)
	if err != nil {
		return nil, err
	}

	for _, b := range boards {
		b.User = users[b.UserPK]
		// non-nil slices so empty relations encode as [] not null
		b.Comments = []entity.Comment{}
		b.Images = []entity.BoardImage{}
		b.LikeRows = []entity.BoardLike{}
	}
	for _, c := range comments {
		c.User = users[c.UserPK]
		if b, ok := byPK[c.BoardPK]; ok {
			b.Comments = append(b.Comments, c)
		}
	}
	for _, im := range images {
		if b, ok := byPK[im.BoardPK]; ok {
			b.Images = append(b.Images, im)
		}
	}
	for _, l := range likes {
		if b, ok := byPK[l.BoardPK]; ok {
			b.LikeRows = append(b.LikeRows, l)
		}
	}
	return boards, nil
}

func (r *BoardRepo) commentsForBoards(ctx context.Context, boardPKs []int64) ([]entity.Comment, error) {
	q, args, err := sqlx.In(`SELECT pk, board_pk, user_pk, content, created_at, updated_at
		FROM comments WHERE board_pk IN (?) ORDER BY created_at ASC, pk ASC`, boardPKs)
	if err != nil {
		return nil, fmt.Errorf("build comments query: %w", err)
	}
	var out []entity.Comment
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BoardRepo) imagesForBoards(ctx context.Context, boardPKs []int64) ([]entity.BoardImage, error) {
	q, args, err := sqlx.In(`SELECT pk, board_pk, storage_key
		FROM board_images WHERE board_pk IN (?) ORDER BY pk ASC`, boardPKs)
	if err != nil {
		return nil, fmt.Errorf("build images query: %w", err)
	}
	var out []entity.BoardImage
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BoardRepo) likesForBoards(ctx context.Context, boardPKs []int64) ([]entity.BoardLike, error) {
	q, args, err := sqlx.In(`SELECT pk, board_pk, user_pk
		FROM board_likes WHERE board_pk IN (?)`, boardPKs)
	if err != nil {
		return nil, fmt.Errorf("build likes query: %w", err)
	}
	var out []entity.BoardLike
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BoardRepo) usersByPK(ctx context.Context, pkSet map[string]struct{}) (map[string]*userentity.User, error) {
	pks := make([]string, 0, len(pkSet))
	for pk := range pkSet {
		pks = append(pks, pk)
	}
	if len(pks) == 0 {
		return map[string]*userentity.User{}, nil
	}
	// password columns deliberately left out of the read shape
	q, args, err := sqlx.In(`SELECT pk, login_id, email, name, avatar, created_at, updated_at
		FROM users WHERE pk IN (?)`, pks)
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}
	var rows []userentity.User
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make(map[string]*userentity.User, len(rows))
	for i := range rows {
		out[rows[i].PK] = &rows[i]
	}
	return out, nil
}

// InsertComment creates a comment row and fills pk and timestamps.
func (r *BoardRepo) InsertComment(ctx context.Context, c *entity.Comment) error {
	const q = `INSERT INTO comments (board_pk, user_pk, content) VALUES ($1, $2, $3)
		RETURNING pk, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, c.BoardPK, c.UserPK, c.Content).
		Scan(&c.PK, &c.CreatedAt, &c.UpdatedAt)
}

// ToggleLike flips the like state for (boardPK, userPK) in one transaction.
// The insert-on-conflict is the compare-and-swap: when it applies the user
// had no like and now has one; when it does not, the existing row is removed.
// Two concurrent toggles therefore always leave zero or one row, never two.
func (r *BoardRepo) ToggleLike(ctx context.Context, boardPK int64, userPK string) (liked bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO board_likes (board_pk, user_pk) VALUES ($1, $2)
		 ON CONFLICT (board_pk, user_pk) DO NOTHING`, boardPK, userPK)
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM board_likes WHERE board_pk=$1 AND user_pk=$2`, boardPK, userPK); err != nil {
			return false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return inserted == 1, nil
}

// DeleteCascade removes a board and its child rows in one transaction,
// children first. This is the explicit cascade: likes, comments and images
// are hard-deleted rather than orphaned.
func (r *BoardRepo) DeleteCascade(ctx context.Context, boardPK int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, q := range []string{
		`DELETE FROM board_likes WHERE board_pk=$1`,
		`DELETE FROM comments WHERE board_pk=$1`,
		`DELETE FROM board_images WHERE board_pk=$1`,
		`DELETE FROM boards WHERE pk=$1`,
	} {
		if _, err = tx.ExecContext(ctx, q, boardPK); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertImage records a storage key against a board.
func (r *BoardRepo) InsertImage(ctx context.Context, im *entity.BoardImage) error {
	const q = `INSERT INTO board_images (board_pk, storage_key) VALUES ($1, $2) RETURNING pk`
	return r.db.QueryRowxContext(ctx, q, im.BoardPK, im.StorageKey).Scan(&im.PK)
}
