package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/warelane/warelane/internal/auth"
	"github.com/warelane/warelane/internal/shared"
)

type memoryRepo struct {
	byEmail map[string]*auth.User
	byID    map[string]*auth.User
	roles   map[string]auth.Role
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byEmail: map[string]*auth.User{},
		byID:    map[string]*auth.User{},
		roles:   map[string]auth.Role{},
	}
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) CreateUser(ctx context.Context, u auth.User) error {
	stored := u
	m.byEmail[u.Email] = &stored
	m.byID[u.ID] = &stored
	return nil
}

func (m *memoryRepo) ListUsers(ctx context.Context) ([]auth.User, error) {
	users := make([]auth.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, *u)
	}
	return users, nil
}

func (m *memoryRepo) UpdateRole(ctx context.Context, userID string, role auth.Role) error {
	u, ok := m.byID[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	m.roles[userID] = role
	return nil
}

func seedUser(t *testing.T, repo *memoryRepo, email, password string, active bool) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := auth.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         auth.RoleViewer,
		IsActive:     active,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return repo.byID[u.ID]
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "ops@warelane.test", "warehouse1", true)
	svc := auth.NewService(repo)

	user, err := svc.Authenticate(context.Background(), "  Ops@Warelane.Test ", "warehouse1")
	require.NoError(t, err)
	require.Equal(t, "ops@warelane.test", user.Email)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "ops@warelane.test", "warehouse1", true)
	svc := auth.NewService(repo)

	_, err := svc.Authenticate(context.Background(), "ops@warelane.test", "nope")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmailSameError(t *testing.T) {
	svc := auth.NewService(newMemoryRepo())

	_, err := svc.Authenticate(context.Background(), "ghost@warelane.test", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newMemoryRepo()
	seedUser(t, repo, "former@warelane.test", "warehouse1", false)
	svc := auth.NewService(repo)

	_, err := svc.Authenticate(context.Background(), "former@warelane.test", "warehouse1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUserHashesPasswordAndAssignsID(t *testing.T) {
	repo := newMemoryRepo()
	svc := auth.NewService(repo)

	user, err := svc.CreateUser(context.Background(), "new@warelane.test", "longenough", auth.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.True(t, user.IsActive)
	require.NotEqual(t, "longenough", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	svc := auth.NewService(newMemoryRepo())

	_, err := svc.CreateUser(context.Background(), "new@warelane.test", "short", auth.RoleViewer)
	require.Error(t, err)
}

func TestCreateUserRejectsBadRole(t *testing.T) {
	svc := auth.NewService(newMemoryRepo())

	_, err := svc.CreateUser(context.Background(), "new@warelane.test", "longenough", auth.Role("owner"))
	require.Error(t, err)
}

func TestSetRoleMissingUser(t *testing.T) {
	svc := auth.NewService(newMemoryRepo())

	err := svc.SetRole(context.Background(), "missing", auth.RoleAdmin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
