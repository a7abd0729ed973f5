package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "full_name", "role", "reg_no", "room_no", "active", "last_login", "created_at", "updated_at",
	}).AddRow("student-1", "asha@hostel.edu", "$2a$10$hash", "Asha Nair", string(models.RoleStudent), "21BCE1042", "B-214", true, nil, now, now)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
		WithArgs("asha@hostel.edu").
		WillReturnRows(userRows())

	user, err := repo.FindByEmail(context.Background(), "asha@hostel.edu")
	require.NoError(t, err)
	assert.Equal(t, "student-1", user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	require.NotNil(t, user.RegNo)
	assert.Equal(t, "21BCE1042", *user.RegNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{
		UserID:    "student-1",
		Token:     "opaque-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	err := repo.CreateRefreshToken(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.False(t, token.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRevokeRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked = TRUE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RevokeRefreshToken(context.Background(), "token-id", time.Now().UTC())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{
		Action:    models.AuditActionGateScan,
		Resource:  "pass",
		IPAddress: "10.0.0.1",
	}
	err := repo.CreateAuditLog(context.Background(), entry)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
