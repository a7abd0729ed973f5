package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

const passColumns = `id, student_id, student_name, reg_no, room_no, reason, out_date, out_time, status,
        qr_data, out_scanned, out_scan_at, in_scanned, in_scan_at, created_at, updated_at`

// PassRepository manages persistence for outing pass records. It holds no
// policy: admission and promotion decisions are made by the service layer.
type PassRepository struct {
	db *sqlx.DB
}

// NewPassRepository constructs a PassRepository.
func NewPassRepository(db *sqlx.DB) *PassRepository {
	return &PassRepository{db: db}
}

// List returns passes matching the provided filters, most recent first.
func (r *PassRepository) List(ctx context.Context, filter models.PassFilter) ([]models.OutingPass, int, error) {
	base := "FROM outing_passes WHERE 1=1"
	var args []interface{}

	if filter.StudentID != "" {
		base += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.OutDate != nil {
		base += fmt.Sprintf(" AND out_date = $%d", len(args)+1)
		args = append(args, filter.OutDate.Format(models.DateLayout))
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at %s LIMIT %d OFFSET %d", passColumns, base, order, size, offset)
	var passes []models.OutingPass
	if err := r.db.SelectContext(ctx, &passes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list passes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count passes: %w", err)
	}
	return passes, total, nil
}

// FindByID fetches a pass by its code. Callers normalize the code first.
func (r *PassRepository) FindByID(ctx context.Context, id string) (*models.OutingPass, error) {
	query := fmt.Sprintf("SELECT %s FROM outing_passes WHERE id = $1", passColumns)
	var pass models.OutingPass
	if err := r.db.GetContext(ctx, &pass, query, id); err != nil {
		return nil, err
	}
	return &pass, nil
}

// Create inserts a new pass record.
func (r *PassRepository) Create(ctx context.Context, pass *models.OutingPass) error {
	now := time.Now().UTC()
	if pass.CreatedAt.IsZero() {
		pass.CreatedAt = now
	}
	pass.UpdatedAt = now
	const query = `INSERT INTO outing_passes (id, student_id, student_name, reg_no, room_no, reason, out_date, out_time, status,
        qr_data, out_scanned, out_scan_at, in_scanned, in_scan_at, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :reg_no, :room_no, :reason, :out_date, :out_time, :status,
        :qr_data, :out_scanned, :out_scan_at, :in_scanned, :in_scan_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pass); err != nil {
		return fmt.Errorf("create pass: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of a single pass.
func (r *PassRepository) UpdateStatus(ctx context.Context, id string, status models.PassStatus) error {
	const query = `UPDATE outing_passes SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update pass status: %w", err)
	}
	return nil
}

// UpdateStatuses applies several status changes in one transaction. Used
// when a resolution and its resulting promotions must land atomically.
func (r *PassRepository) UpdateStatuses(ctx context.Context, updates map[string]models.PassStatus) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status tx: %w", err)
	}
	const query = `UPDATE outing_passes SET status = $2, updated_at = $3 WHERE id = $1`
	now := time.Now().UTC()
	for id, status := range updates {
		if _, err := tx.ExecContext(ctx, query, id, status, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update pass %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status tx: %w", err)
	}
	return nil
}

// MarkScan records a gate scan: flips the scan flag, stamps the scan time
// and moves the pass to the post-scan status.
func (r *PassRepository) MarkScan(ctx context.Context, id string, scan models.ScanType, at time.Time, status models.PassStatus) error {
	var query string
	switch scan {
	case models.ScanTypeExit:
		query = `UPDATE outing_passes SET out_scanned = TRUE, out_scan_at = $2, status = $3, updated_at = $2 WHERE id = $1`
	case models.ScanTypeEntry:
		query = `UPDATE outing_passes SET in_scanned = TRUE, in_scan_at = $2, status = $3, updated_at = $2 WHERE id = $1`
	default:
		return fmt.Errorf("unknown scan type %q", scan)
	}
	if _, err := r.db.ExecContext(ctx, query, id, at, status); err != nil {
		return fmt.Errorf("mark %s scan: %w", scan, err)
	}
	return nil
}

// CountAdmitted returns how many passes occupy a capacity slot (status
// APPROVED or OUT) for the given calendar date.
func (r *PassRepository) CountAdmitted(ctx context.Context, date time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM outing_passes WHERE out_date = $1 AND status = ANY($2)`
	var count int
	statuses := pq.StringArray{string(models.PassStatusApproved), string(models.PassStatusOut)}
	if err := r.db.GetContext(ctx, &count, query, date.Format(models.DateLayout), statuses); err != nil {
		return 0, fmt.Errorf("count admitted: %w", err)
	}
	return count, nil
}

// ListWaitlisted returns every waitlisted pass, ordered for FCFS promotion:
// by date, then creation time, with the id as a deterministic tie-break.
func (r *PassRepository) ListWaitlisted(ctx context.Context) ([]models.OutingPass, error) {
	query := fmt.Sprintf(`SELECT %s FROM outing_passes WHERE status = $1 ORDER BY out_date ASC, created_at ASC, id ASC`, passColumns)
	var passes []models.OutingPass
	if err := r.db.SelectContext(ctx, &passes, query, models.PassStatusWaitlisted); err != nil {
		return nil, fmt.Errorf("list waitlisted: %w", err)
	}
	return passes, nil
}

// ListWaitlistedByDate returns the waitlist for one date in FCFS order.
func (r *PassRepository) ListWaitlistedByDate(ctx context.Context, date time.Time) ([]models.OutingPass, error) {
	query := fmt.Sprintf(`SELECT %s FROM outing_passes WHERE status = $1 AND out_date = $2 ORDER BY created_at ASC, id ASC`, passColumns)
	var passes []models.OutingPass
	if err := r.db.SelectContext(ctx, &passes, query, models.PassStatusWaitlisted, date.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("list waitlisted by date: %w", err)
	}
	return passes, nil
}

// AdmittedCountsByDate returns, for each date in the slice, how many passes
// currently hold a capacity slot.
func (r *PassRepository) AdmittedCountsByDate(ctx context.Context, dates []time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(dates))
	if len(dates) == 0 {
		return counts, nil
	}
	keys := make(pq.StringArray, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Format(models.DateLayout))
	}
	const query = `SELECT out_date, COUNT(*) AS count FROM outing_passes
        WHERE out_date = ANY($1) AND status = ANY($2) GROUP BY out_date`
	statuses := pq.StringArray{string(models.PassStatusApproved), string(models.PassStatusOut)}
	rows := []struct {
		OutDate time.Time `db:"out_date"`
		Count   int       `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, keys, statuses); err != nil {
		return nil, fmt.Errorf("admitted counts by date: %w", err)
	}
	for _, row := range rows {
		counts[models.DateKey(row.OutDate)] = row.Count
	}
	return counts, nil
}

// CountByStatus tallies passes per status, optionally scoped to one date.
func (r *PassRepository) CountByStatus(ctx context.Context, date *time.Time) (map[models.PassStatus]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM outing_passes`
	var args []interface{}
	if date != nil {
		query += " WHERE out_date = $1"
		args = append(args, date.Format(models.DateLayout))
	}
	query += " GROUP BY status"
	rows := []struct {
		Status models.PassStatus `db:"status"`
		Count  int               `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(map[models.PassStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListByDate returns all passes for a calendar date in FCFS order. Used by
// the gate register export.
func (r *PassRepository) ListByDate(ctx context.Context, date time.Time) ([]models.OutingPass, error) {
	query := fmt.Sprintf(`SELECT %s FROM outing_passes WHERE out_date = $1 ORDER BY created_at ASC, id ASC`, passColumns)
	var passes []models.OutingPass
	if err := r.db.SelectContext(ctx, &passes, query, date.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("list passes by date: %w", err)
	}
	return passes, nil
}
