package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	findErr          error
	lastLoginUpdated bool
	created          []*models.User
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = map[string]*models.User{}
	}
	user.ID = "generated"
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

func newTestAuthService(t *testing.T, password string) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "staff@school.edu", PasswordHash: string(hash), FullName: "Staff", Role: models.RoleStaff, Active: true},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "yellowcard-api"})
	return svc, repo
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	svc, repo := newTestAuthService(t, "password123")

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: " Staff@School.edu ", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "u1", res.User.ID)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t, "password123")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@school.edu", Password: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t, "password123")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.edu", Password: "password123"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactive(t *testing.T) {
	svc, repo := newTestAuthService(t, "password123")
	repo.users["u1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@school.edu", Password: "password123"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc, _ := newTestAuthService(t, "password123")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestAuthService(t, "password123")
	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "other"})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@school.edu", Password: "password123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(res.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceMe(t *testing.T) {
	svc, _ := newTestAuthService(t, "password123")

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "staff@school.edu", info.Email)

	_, err = svc.Me(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	svc, repo := newTestAuthService(t, "password123")

	created, err := svc.EnsureAdmin(context.Background(), "Admin@School.edu", "s3cret", "")
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "admin@school.edu", repo.created[0].Email)
	assert.Equal(t, models.RoleAdmin, repo.created[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("s3cret")))

	created, err = svc.EnsureAdmin(context.Background(), "admin@school.edu", "s3cret", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureAdmin(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
