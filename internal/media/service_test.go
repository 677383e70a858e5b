package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/apperr"
	"github.com/vista0212/kommunity-backend/internal/board/entity"
	boardrepo "github.com/vista0212/kommunity-backend/internal/board/repo"
	"github.com/vista0212/kommunity-backend/internal/token"
)

type fakeBoards struct {
	boards map[int64]*entity.Board
	images []entity.BoardImage
}

func (f *fakeBoards) FindByPK(_ context.Context, pk int64) (*entity.Board, error) {
	if b, ok := f.boards[pk]; ok {
		return b, nil
	}
	return nil, boardrepo.ErrNotFound
}

func (f *fakeBoards) InsertImage(_ context.Context, im *entity.BoardImage) error {
	im.PK = int64(len(f.images) + 1)
	f.images = append(f.images, *im)
	return nil
}

func (f *fakeBoards) DeleteCascade(_ context.Context, boardPK int64) error {
	delete(f.boards, boardPK)
	return nil
}

type fakeStorage struct {
	err  error
	key  string
	body []byte
	ct   string
}

func (f *fakeStorage) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.key = key
	f.body = data
	f.ct = contentType
	return nil
}

func newTestMediaService(t *testing.T, storage Storage) (*Service, *fakeBoards, string) {
	t.Helper()
	tokens, err := token.NewService("test-secret", 0)
	require.NoError(t, err)
	tok, err := tokens.Issue("u1")
	require.NoError(t, err)

	boards := &fakeBoards{boards: map[int64]*entity.Board{
		1: {PK: 1, UserPK: "u1", Content: "hello"},
	}}
	return NewService(boards, tokens, storage, zap.NewNop().Sugar()), boards, tok
}

func TestAttach_PNG(t *testing.T) {
	storage := &fakeStorage{}
	svc, boards, tok := newTestMediaService(t, storage)

	err := svc.Attach(context.Background(), tok, 1, "pic.png", "image/png", bytes.NewReader([]byte("pngdata")))
	require.NoError(t, err)

	require.Len(t, boards.images, 1)
	im := boards.images[0]
	assert.Equal(t, int64(1), im.BoardPK)
	assert.True(t, strings.HasSuffix(im.StorageKey, "_pic.png"))
	assert.Greater(t, len(im.StorageKey), len("_pic.png"), "key carries a generated prefix")
	assert.Equal(t, im.StorageKey, storage.key)
	assert.Equal(t, []byte("pngdata"), storage.body)
	assert.Equal(t, "image/png", storage.ct)
}

func TestAttach_UnsupportedTypeDeletesBoard(t *testing.T) {
	storage := &fakeStorage{}
	svc, boards, tok := newTestMediaService(t, storage)

	err := svc.Attach(context.Background(), tok, 1, "clip.gif", "image/gif", bytes.NewReader(nil))
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "unsupported image type", apperr.Message(err))

	_, err = boards.FindByPK(context.Background(), 1)
	assert.ErrorIs(t, err, boardrepo.ErrNotFound, "rejected upload removes the board")
	assert.Empty(t, boards.images)
	assert.Empty(t, storage.key, "nothing reaches storage")
}

// When the object store fails the metadata row stays behind. The caller sees
// an upstream error with the generic message.
func TestAttach_StorageFailureKeepsRow(t *testing.T) {
	storage := &fakeStorage{err: errors.New("s3 unreachable")}
	svc, boards, tok := newTestMediaService(t, storage)

	err := svc.Attach(context.Background(), tok, 1, "pic.jpg", "image/jpeg", bytes.NewReader([]byte("jpg")))
	require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, "unknown error", apperr.Message(err))

	require.Len(t, boards.images, 1, "metadata row survives the failed upload")
	_, findErr := boards.FindByPK(context.Background(), 1)
	assert.NoError(t, findErr, "board survives the failed upload")
}

func TestAttach_BadToken(t *testing.T) {
	svc, _, _ := newTestMediaService(t, &fakeStorage{})

	err := svc.Attach(context.Background(), "garbage", 1, "pic.png", "image/png", bytes.NewReader(nil))
	require.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.Equal(t, "invalid token", apperr.Message(err))
}

func TestAttach_BoardNotFound(t *testing.T) {
	svc, _, tok := newTestMediaService(t, &fakeStorage{})

	err := svc.Attach(context.Background(), tok, 99, "pic.png", "image/png", bytes.NewReader(nil))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
