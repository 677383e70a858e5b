// Package board implements the relationship engine: board, comment and like
// mutations plus per-viewer read assembly.
package board

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/apperr"
	"github.com/vista0212/kommunity-backend/internal/board/entity"
	"github.com/vista0212/kommunity-backend/internal/board/repo"
	"github.com/vista0212/kommunity-backend/internal/token"
	userentity "github.com/vista0212/kommunity-backend/internal/user/entity"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Insert(ctx context.Context, b *entity.Board) error
	FindByPK(ctx context.Context, pk int64) (*entity.Board, error)
	ListWithRelations(ctx context.Context) ([]*entity.Board, error)
	InsertComment(ctx context.Context, c *entity.Comment) error
	ToggleLike(ctx context.Context, boardPK int64, userPK string) (bool, error)
	DeleteCascade(ctx context.Context, boardPK int64) error
}

// TokenVerifier resolves a bearer token to a user pk.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// UserDirectory confirms the acting user exists.
type UserDirectory interface {
	FindByPK(ctx context.Context, pk string) (*userentity.User, error)
}

type BoardService struct {
	repo   Repository
	users  UserDirectory
	tokens TokenVerifier
	logger *zap.SugaredLogger
}

func NewBoardService(r Repository, users UserDirectory, tokens TokenVerifier, logger *zap.SugaredLogger) *BoardService {
	return &BoardService{repo: r, users: users, tokens: tokens, logger: logger}
}

// resolveViewer decodes the token and confirms the user still exists. Every
// operation goes through here first; any rejection aborts the whole call.
func (s *BoardService) resolveViewer(ctx context.Context, tokenString string) (*userentity.User, error) {
	pk, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuth, token.AuthMessage(err), err)
	}
	u, err := s.users.FindByPK(ctx, pk)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Auth("unknown user")
		}
		return nil, err
	}
	return u, nil
}

// ListBoards returns all live boards newest first, each annotated with the
// viewer's like state and the total like count.
func (s *BoardService) ListBoards(ctx context.Context, tokenString string) ([]*entity.Board, error) {
	viewer, err := s.resolveViewer(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	boards, err := s.repo.ListWithRelations(ctx)
	if err != nil {
		s.logger.Errorw("list boards failed", "err", err)
		return nil, apperr.Upstream("database error", err)
	}
	for _, b := range boards {
		b.Likes = len(b.LikeRows)
		b.IsLiked = false
		for _, l := range b.LikeRows {
			if l.UserPK == viewer.PK {
				b.IsLiked = true
				break
			}
		}
	}
	return boards, nil
}

// PostBoard creates a board owned by the resolved user.
func (s *BoardService) PostBoard(ctx context.Context, tokenString, content string) (*entity.Board, error) {
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	viewer, err := s.resolveViewer(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	b := &entity.Board{UserPK: viewer.PK, Content: content}
	if err := s.repo.Insert(ctx, b); err != nil {
		s.logger.Errorw("post board failed", "user_pk", viewer.PK, "err", err)
		return nil, apperr.Upstream("database error", err)
	}
	b.User = viewer
	b.Images = []entity.BoardImage{}
	b.Comments = []entity.Comment{}
	s.logger.Infow("board posted", "pk", b.PK, "user_pk", viewer.PK)
	return b, nil
}

// PostComment creates a comment linking board and user.
func (s *BoardService) PostComment(ctx context.Context, tokenString string, boardPK int64, content string) error {
	if content == "" {
		return apperr.Validation("content is required")
	}
	viewer, err := s.resolveViewer(ctx, tokenString)
	if err != nil {
		return err
	}
	if _, err := s.findBoard(ctx, boardPK); err != nil {
		return err
	}
	c := &entity.Comment{BoardPK: boardPK, UserPK: viewer.PK, Content: content}
	if err := s.repo.InsertComment(ctx, c); err != nil {
		s.logger.Errorw("post comment failed", "board_pk", boardPK, "err", err)
		return apperr.Upstream("database error", err)
	}
	return nil
}

// ToggleLike flips the viewer's like on a board and reports the new state.
// Repeating the call with the same arguments returns to the previous state.
func (s *BoardService) ToggleLike(ctx context.Context, tokenString string, boardPK int64) (bool, error) {
	viewer, err := s.resolveViewer(ctx, tokenString)
	if err != nil {
		return false, err
	}
	if _, err := s.findBoard(ctx, boardPK); err != nil {
		return false, err
	}
	liked, err := s.repo.ToggleLike(ctx, boardPK, viewer.PK)
	if err != nil {
		s.logger.Errorw("toggle like failed", "board_pk", boardPK, "user_pk", viewer.PK, "err", err)
		return false, apperr.Upstream("database error", err)
	}
	return liked, nil
}

// DeleteBoard removes an owned board together with its images, comments and
// likes.
func (s *BoardService) DeleteBoard(ctx context.Context, tokenString string, boardPK int64) error {
	viewer, err := s.resolveViewer(ctx, tokenString)
	if err != nil {
		return err
	}
	b, err := s.findBoard(ctx, boardPK)
	if err != nil {
		return err
	}
	if b.UserPK != viewer.PK {
		return apperr.Auth("not the board owner")
	}
	if err := s.repo.DeleteCascade(ctx, boardPK); err != nil {
		s.logger.Errorw("delete board failed", "board_pk", boardPK, "err", err)
		return apperr.Upstream("database error", err)
	}
	s.logger.Infow("board deleted", "pk", boardPK, "user_pk", viewer.PK)
	return nil
}

func (s *BoardService) findBoard(ctx context.Context, boardPK int64) (*entity.Board, error) {
	b, err := s.repo.FindByPK(ctx, boardPK)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("board not found")
		}
		return nil, apperr.Upstream("database error", err)
	}
	return b, nil
}
