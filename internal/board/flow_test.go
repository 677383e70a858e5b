package board

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/credential"
	"github.com/vista0212/kommunity-backend/internal/token"
	"github.com/vista0212/kommunity-backend/internal/user"
	userentity "github.com/vista0212/kommunity-backend/internal/user/entity"
	userrepo "github.com/vista0212/kommunity-backend/internal/user/repo"
)

type memoryUserRepo struct {
	mu   sync.Mutex
	byPK map[string]*userentity.User
}

func (m *memoryUserRepo) find(match func(*userentity.User) bool) (*userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byPK {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userrepo.ErrNotFound
}

func (m *memoryUserRepo) FindByPK(_ context.Context, pk string) (*userentity.User, error) {
	return m.find(func(u *userentity.User) bool { return u.PK == pk })
}

func (m *memoryUserRepo) FindByLoginID(_ context.Context, loginID string) (*userentity.User, error) {
	return m.find(func(u *userentity.User) bool { return u.LoginID != nil && *u.LoginID == loginID })
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (*userentity.User, error) {
	return m.find(func(u *userentity.User) bool { return u.Email != nil && *u.Email == email })
}

func (m *memoryUserRepo) FindBySignKey(_ context.Context, signKey string) (*userentity.User, error) {
	return m.find(func(u *userentity.User) bool { return u.SignKey != nil && *u.SignKey == signKey })
}

func (m *memoryUserRepo) CreatePending(_ context.Context, u *userentity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byPK[u.PK] = &cp
	return nil
}

func (m *memoryUserRepo) ActivateRegistration(_ context.Context, pk, loginID, email, passwordHash, passwordKey, signKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byPK[pk]
	if !ok || u.SignKey == nil || *u.SignKey == "" || *u.SignKey != signKey {
		return false, nil
	}
	empty := ""
	u.LoginID = &loginID
	u.Email = &email
	u.Password = &passwordHash
	u.PasswordKey = &passwordKey
	u.SignKey = &empty
	return true, nil
}

// Full flow: provision, register, login, post, like, unlike, against the real
// user service acting as the board service's directory.
func TestBoardFlow(t *testing.T) {
	ctx := context.Background()

	creds, err := credential.NewStore(credential.Config{Iterations: 100, KeyLength: 32, Digest: "sha256"})
	require.NoError(t, err)
	tokens, err := token.NewService("test-secret", 0)
	require.NoError(t, err)

	users := &memoryUserRepo{byPK: map[string]*userentity.User{}}
	userSvc := user.NewUserService(users, creds, tokens, zap.NewNop().Sugar())
	boardSvc := NewBoardService(newFakeBoardRepo(), userSvc, tokens, zap.NewNop().Sugar())

	_, err = userSvc.Provision(ctx, "Alice", "ABC123")
	require.NoError(t, err)
	require.NoError(t, userSvc.Register(ctx, "alice", "alice@example.com", "secret", "ABC123"))

	_, tok, err := userSvc.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	b, err := boardSvc.PostBoard(ctx, tok, "hello")
	require.NoError(t, err)

	liked, err := boardSvc.ToggleLike(ctx, tok, b.PK)
	require.NoError(t, err)
	assert.True(t, liked)

	boards, err := boardSvc.ListBoards(ctx, tok)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.True(t, boards[0].IsLiked)
	assert.Equal(t, 1, boards[0].Likes)

	liked, err = boardSvc.ToggleLike(ctx, tok, b.PK)
	require.NoError(t, err)
	assert.False(t, liked)

	boards, err = boardSvc.ListBoards(ctx, tok)
	require.NoError(t, err)
	assert.False(t, boards[0].IsLiked)
	assert.Equal(t, 0, boards[0].Likes)
}
