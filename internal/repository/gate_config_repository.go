package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

// gateConfigID pins the singleton row.
const gateConfigID = 1

// GateConfigRepository persists the singleton gate configuration.
type GateConfigRepository struct {
	db *sqlx.DB
}

// NewGateConfigRepository constructs the repository.
func NewGateConfigRepository(db *sqlx.DB) *GateConfigRepository {
	return &GateConfigRepository{db: db}
}

// Get fetches the configuration row.
func (r *GateConfigRepository) Get(ctx context.Context) (*models.GateConfig, error) {
	const query = `SELECT id, window_open, capacity, opening_time, updated_by, updated_at FROM gate_config WHERE id = $1`
	var cfg models.GateConfig
	if err := r.db.GetContext(ctx, &cfg, query, gateConfigID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save upserts the configuration row.
func (r *GateConfigRepository) Save(ctx context.Context, cfg *models.GateConfig) error {
	cfg.ID = gateConfigID
	cfg.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO gate_config (id, window_open, capacity, opening_time, updated_by, updated_at)
        VALUES (:id, :window_open, :capacity, :opening_time, :updated_by, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET window_open = EXCLUDED.window_open, capacity = EXCLUDED.capacity,
                      opening_time = EXCLUDED.opening_time, updated_by = EXCLUDED.updated_by,
                      updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("save gate config: %w", err)
	}
	return nil
}
