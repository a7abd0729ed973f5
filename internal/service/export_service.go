package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/export"
)

type exportPassRepository interface {
	FindByID(ctx context.Context, id string) (*models.OutingPass, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.OutingPass, error)
}

// ExportService renders the gate register as CSV and individual pass slips
// as printable PDFs.
type ExportService struct {
	repo   exportPassRepository
	csv    *export.CSVExporter
	slip   *export.SlipRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportPassRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		slip:   export.NewSlipRenderer(),
		logger: logger,
	}
}

// Register renders the full gate register for one date as CSV, ordered the
// way passes were created.
func (s *ExportService) Register(ctx context.Context, date time.Time) ([]byte, string, error) {
	passes, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Pass ID", "Student", "Reg No", "Room", "Reason", "Out Date", "Out Time", "Status", "Exited At", "Returned At"},
	}
	for _, pass := range passes {
		data.Rows = append(data.Rows, []string{
			pass.ID,
			pass.StudentName,
			pass.RegNo,
			pass.RoomNo,
			pass.Reason,
			models.DateKey(pass.OutDate),
			pass.OutTime,
			string(pass.Status),
			formatScanTime(pass.OutScanAt),
			formatScanTime(pass.InScanAt),
		})
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", fmt.Errorf("render register: %w", err)
	}
	filename := fmt.Sprintf("gate-register-%s.csv", models.DateKey(date))
	s.logger.Info("gate register exported", zap.String("date", models.DateKey(date)), zap.Int("rows", len(passes)))
	return payload, filename, nil
}

// Slip renders a printable PDF slip for one pass.
func (s *ExportService) Slip(ctx context.Context, passID string) ([]byte, string, error) {
	pass, err := s.repo.FindByID(ctx, NormalizeCode(passID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.ErrNotFound
		}
		return nil, "", fmt.Errorf("find pass: %w", err)
	}

	payload, err := s.slip.Render(export.SlipData{
		PassID:      pass.ID,
		StudentName: pass.StudentName,
		RegNo:       pass.RegNo,
		RoomNo:      pass.RoomNo,
		Reason:      pass.Reason,
		OutDate:     models.DateKey(pass.OutDate),
		OutTime:     pass.OutTime,
		Status:      string(pass.Status),
		QRData:      pass.QRData,
		IssuedAt:    pass.CreatedAt.Format(time.RFC1123),
	})
	if err != nil {
		return nil, "", fmt.Errorf("render slip: %w", err)
	}
	filename := fmt.Sprintf("pass-%s.pdf", pass.ID)
	return payload, filename, nil
}

func formatScanTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
