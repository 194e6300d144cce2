package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadsys/class-record-api/internal/models"
)

type auUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	auditLogs     []models.AuditLog
}

func newAuUserRepo(users ...*models.User) *auUserRepo {
	repo := &auUserRepo{users: make(map[string]*models.User), refreshTokens: make(map[string]*models.RefreshToken)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *auUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *auUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *auUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *auUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *auUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *auUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *auUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		return stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *auUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (m *auUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func auTestConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "class-record-api",
		Audience:           []string{"class-record-clients"},
	}
}

func auTeacher(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user1",
		Email:        "teacher@example.com",
		PasswordHash: string(hash),
		FullName:     "Test Teacher",
		Role:         models.RoleTeacher,
		Active:       true,
	}
}

func TestAuthLogin(t *testing.T) {
	repo := newAuUserRepo(auTeacher(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), auTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)
	assert.Len(t, repo.refreshTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newAuUserRepo(auTeacher(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), auTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "wrong"})
	require.Error(t, err)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	teacher := auTeacher(t)
	teacher.Active = false
	svc := NewAuthService(newAuUserRepo(teacher), validator.New(), zap.NewNop(), auTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.Error(t, err)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	repo := newAuUserRepo(auTeacher(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), auTestConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken}, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the used token is revoked; replaying it fails
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken}, "", "")
	require.Error(t, err)
}

func TestAuthChangePassword(t *testing.T) {
	repo := newAuUserRepo(auTeacher(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), auTestConfig())

	err := svc.ChangePassword(context.Background(), "user1", models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "secret123"})
	require.Error(t, err)
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "teacher@example.com", Password: "newsecret"})
	require.NoError(t, err)
}

func TestAuthChangePasswordWrongOld(t *testing.T) {
	svc := NewAuthService(newAuUserRepo(auTeacher(t)), validator.New(), zap.NewNop(), auTestConfig())

	err := svc.ChangePassword(context.Background(), "user1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	require.Error(t, err)
}
