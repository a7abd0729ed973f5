package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/qrtoken"
)

type scanPassRepository interface {
	FindByID(ctx context.Context, id string) (*models.OutingPass, error)
	MarkScan(ctx context.Context, id string, scan models.ScanType, at time.Time, status models.PassStatus) error
}

// ScanService handles the guard's gate scans. Each direction accepts exactly
// one prior status, so a second scan of the same pass fails instead of being
// absorbed silently. The pass id is read from the QR payload without
// signature verification; the status machine is what prevents replays.
type ScanService struct {
	repo   scanPassRepository
	mu     *sync.Mutex
	logger *zap.Logger
}

// NewScanService constructs a ScanService.
func NewScanService(repo scanPassRepository, mu *sync.Mutex, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &ScanService{repo: repo, mu: mu, logger: logger}
}

// Exit records a gate exit: the pass must be APPROVED and moves to OUT.
func (s *ScanService) Exit(ctx context.Context, qrData string) (*models.OutingPass, []models.DomainEvent, error) {
	return s.scan(ctx, qrData, models.ScanTypeExit, models.PassStatusApproved, models.PassStatusOut, models.EventPassExited)
}

// Entry records a gate return: the pass must be OUT and moves to RETURNED.
func (s *ScanService) Entry(ctx context.Context, qrData string) (*models.OutingPass, []models.DomainEvent, error) {
	return s.scan(ctx, qrData, models.ScanTypeEntry, models.PassStatusOut, models.PassStatusReturned, models.EventPassReturned)
}

func (s *ScanService) scan(ctx context.Context, qrData string, scanType models.ScanType, from, to models.PassStatus, eventType models.EventType) (*models.OutingPass, []models.DomainEvent, error) {
	code := NormalizeCode(qrtoken.PassID(qrData))
	if code == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "qr payload carries no pass code")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pass, err := s.repo.FindByID(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, fmt.Errorf("find pass: %w", err)
	}
	if pass.Status != from {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("pass %s is %s, expected %s", pass.ID, pass.Status, from))
	}

	now := time.Now().UTC()
	if err := s.repo.MarkScan(ctx, pass.ID, scanType, now, to); err != nil {
		return nil, nil, err
	}

	pass.Status = to
	pass.UpdatedAt = now
	switch scanType {
	case models.ScanTypeExit:
		pass.OutScanned = true
		pass.OutScanAt = &now
	case models.ScanTypeEntry:
		pass.InScanned = true
		pass.InScanAt = &now
	}

	verb := "exited through"
	if scanType == models.ScanTypeEntry {
		verb = "returned through"
	}
	event := models.DomainEvent{
		Type:        eventType,
		PassID:      pass.ID,
		StudentName: pass.StudentName,
		OutDate:     models.DateKey(pass.OutDate),
		Message:     fmt.Sprintf("%s %s the gate on pass %s", pass.StudentName, verb, pass.ID),
		OccurredAt:  now,
	}

	s.logger.Info("gate scan recorded",
		zap.String("pass_id", pass.ID),
		zap.String("scan", string(scanType)),
		zap.String("status", string(to)))
	return pass, []models.DomainEvent{event}, nil
}
