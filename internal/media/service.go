// Package media associates uploaded objects with board posts. The attach
// flow is part of board creation: a board whose image is rejected never
// persists.
package media

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/apperr"
	"github.com/vista0212/kommunity-backend/internal/board/entity"
	boardrepo "github.com/vista0212/kommunity-backend/internal/board/repo"
	"github.com/vista0212/kommunity-backend/internal/token"
	"github.com/vista0212/kommunity-backend/pkg/utilities"
)

// Storage is the external object-storage collaborator.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Boards is the slice of the board repository the attach flow needs.
type Boards interface {
	FindByPK(ctx context.Context, pk int64) (*entity.Board, error)
	InsertImage(ctx context.Context, im *entity.BoardImage) error
	DeleteCascade(ctx context.Context, boardPK int64) error
}

// TokenVerifier resolves the bearer token accompanying the upload.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// Exactly these two types are accepted; anything else rejects the upload and
// deletes the board it was meant for.
var allowedContentTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
}

type Service struct {
	boards  Boards
	tokens  TokenVerifier
	storage Storage
	logger  *zap.SugaredLogger
}

func NewService(boards Boards, tokens TokenVerifier, storage Storage, logger *zap.SugaredLogger) *Service {
	return &Service{boards: boards, tokens: tokens, storage: storage, logger: logger}
}

// Attach validates the declared content type, records the storage key
// against the board, then streams the bytes to object storage.
//
// A storage failure after the metadata row is saved is surfaced as an
// upstream error and the row is kept; there is no compensating delete. That
// inconsistency window is inherited behavior, left visible on purpose.
func (s *Service) Attach(ctx context.Context, tokenString string, boardPK int64, filename, contentType string, body io.Reader) error {
	if _, err := s.tokens.Verify(tokenString); err != nil {
		return apperr.Wrap(apperr.KindAuth, token.AuthMessage(err), err)
	}

	b, err := s.boards.FindByPK(ctx, boardPK)
	if err != nil {
		if errors.Is(err, boardrepo.ErrNotFound) {
			return apperr.NotFound("board not found")
		}
		return apperr.Upstream("database error", err)
	}

	if _, ok := allowedContentTypes[contentType]; !ok {
		// the board was created for this upload; remove it rather than
		// leaving it dangling without its image
		if err := s.boards.DeleteCascade(ctx, b.PK); err != nil {
			s.logger.Errorw("rollback of image-pending board failed", "board_pk", b.PK, "err", err)
			return apperr.Upstream("database error", err)
		}
		s.logger.Infow("image rejected, board removed", "board_pk", b.PK, "content_type", contentType)
		return apperr.Validation("unsupported image type")
	}

	im := &entity.BoardImage{BoardPK: b.PK, StorageKey: utilities.NewKSUID() + "_" + filename}
	if err := s.boards.InsertImage(ctx, im); err != nil {
		return apperr.Upstream("database error", err)
	}

	if err := s.storage.Put(ctx, im.StorageKey, body, contentType); err != nil {
		s.logger.Errorw("object upload failed", "board_pk", b.PK, "key", im.StorageKey, "err", err)
		return apperr.Upstream("unknown error", err)
	}

	s.logger.Infow("image attached", "board_pk", b.PK, "key", im.StorageKey)
	return nil
}
