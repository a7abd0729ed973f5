package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	findByEmailErr   error
	findByIDErr      error
	refreshTokens    map[string]*models.RefreshToken
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.userByEmail != nil && m.userByEmail.ID == id {
		m.userByEmail.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, errors.New("not found")
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	reg := "21BCE1042"
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "student@hostel.edu", PasswordHash: string(password), Active: true, Role: models.RoleStudent, RegNo: &reg}}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@hostel.edu", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, "21BCE1042", res.User.RegNo)
	assert.True(t, repo.lastLoginUpdated)
	assert.NotEmpty(t, repo.auditLogs)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "student@hostel.edu", PasswordHash: string(password), Active: true}}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@hostel.edu", Password: "wrong"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "student@hostel.edu", PasswordHash: string(password), Active: false}}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@hostel.edu", Password: "password"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ACCOUNT_INACTIVE", appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	user := &models.User{ID: "123", Email: "warden@hostel.edu", Active: true, Role: models.RoleWarden}
	repo := &mockAuthRepo{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"old-token": {ID: "rt-1", UserID: "123", Token: "old-token", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
	}
	svc := newTestAuthService(repo)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "old-token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	repo := &mockAuthRepo{
		refreshTokens: map[string]*models.RefreshToken{
			"stale": {ID: "rt-1", UserID: "123", Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Hour)},
		},
	}
	svc := newTestAuthService(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestAuthServiceValidateToken(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "guard@hostel.edu", PasswordHash: string(password), Active: true, Role: models.RoleGuard}}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "guard@hostel.edu", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "123", claims.UserID)
	assert.Equal(t, models.RoleGuard, claims.Role)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{})

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "student@hostel.edu", PasswordHash: string(password), Active: true}}
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "123", models.ChangePasswordRequest{OldPassword: "oldpassword", NewPassword: "newpassword1"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.userByEmail.PasswordHash), []byte("newpassword1")))
}
