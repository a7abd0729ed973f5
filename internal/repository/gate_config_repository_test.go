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

func TestGateConfigRepositoryGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGateConfigRepository(db)

	rows := sqlmock.NewRows([]string{"id", "window_open", "capacity", "opening_time", "updated_by", "updated_at"}).
		AddRow(1, true, 60, "17:00", nil, time.Now())
	mock.ExpectQuery("SELECT id, window_open, capacity, opening_time, updated_by, updated_at FROM gate_config WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(rows)

	cfg, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.WindowOpen)
	assert.Equal(t, 60, cfg.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateConfigRepositoryGetNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGateConfigRepository(db)

	mock.ExpectQuery("SELECT id, window_open, capacity, opening_time, updated_by, updated_at FROM gate_config WHERE id = \\$1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGateConfigRepositorySave(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGateConfigRepository(db)

	mock.ExpectExec("INSERT INTO gate_config").WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := &models.GateConfig{WindowOpen: true, Capacity: 75, OpeningTime: "17:00"}
	err := repo.Save(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ID)
	assert.False(t, cfg.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
