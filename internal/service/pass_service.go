package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/dto"
	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/qrtoken"
)

type passRepository interface {
	List(ctx context.Context, filter models.PassFilter) ([]models.OutingPass, int, error)
	FindByID(ctx context.Context, id string) (*models.OutingPass, error)
	Create(ctx context.Context, pass *models.OutingPass) error
	UpdateStatus(ctx context.Context, id string, status models.PassStatus) error
	UpdateStatuses(ctx context.Context, updates map[string]models.PassStatus) error
	CountAdmitted(ctx context.Context, date time.Time) (int, error)
	ListWaitlistedByDate(ctx context.Context, date time.Time) ([]models.OutingPass, error)
}

type gateConfigReader interface {
	Get(ctx context.Context) (*models.GateConfig, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PassService implements the pass lifecycle: application with the capacity
// gate, warden resolution and the FCFS waitlist promotion that a freed slot
// triggers. All mutating paths run under the shared engine mutex so that
// admission checks and their writes are serialized.
type PassService struct {
	repo     passRepository
	gateRepo gateConfigReader
	users    studentReader
	signer   *qrtoken.Signer
	mu       *sync.Mutex
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPassService constructs a PassService.
func NewPassService(repo passRepository, gateRepo gateConfigReader, users studentReader, signer *qrtoken.Signer, mu *sync.Mutex, validate *validator.Validate, logger *zap.Logger) *PassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &PassService{repo: repo, gateRepo: gateRepo, users: users, signer: signer, mu: mu, validate: validate, logger: logger}
}

// NormalizeCode canonicalizes a pass code for lookup: trimmed and uppercased,
// so hand-typed codes from the printed slip still resolve.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply submits an outing application for the given student. The window must
// be open; the capacity check against already-admitted passes for the
// requested date decides between APPROVED and WAITLISTED.
func (s *PassService) Apply(ctx context.Context, studentID string, req dto.CreatePassRequest) (*models.OutingPass, []models.DomainEvent, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	outDate, err := time.ParseInLocation(models.DateLayout, req.OutDate, time.UTC)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "out_date must be formatted as YYYY-MM-DD")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, fmt.Errorf("load student: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.gateRepo.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load gate config: %w", err)
	}
	if !cfg.WindowOpen {
		return nil, nil, appErrors.ErrWindowClosed
	}

	admitted, err := s.repo.CountAdmitted(ctx, outDate)
	if err != nil {
		return nil, nil, err
	}
	status := admissionStatus(admitted, cfg.Capacity)

	code, err := newPassCode()
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	pass := &models.OutingPass{
		ID:          code,
		StudentID:   student.ID,
		StudentName: student.FullName,
		Reason:      strings.TrimSpace(req.Reason),
		OutDate:     outDate,
		OutTime:     req.OutTime,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if student.RegNo != nil {
		pass.RegNo = *student.RegNo
	}
	if student.RoomNo != nil {
		pass.RoomNo = *student.RoomNo
	}
	if s.signer != nil {
		token, err := s.signer.Generate(pass.ID, pass.StudentID, now)
		if err != nil {
			return nil, nil, fmt.Errorf("sign qr credential: %w", err)
		}
		pass.QRData = token
	}

	if err := s.repo.Create(ctx, pass); err != nil {
		return nil, nil, err
	}

	event := models.DomainEvent{
		Type:        models.EventPassApproved,
		PassID:      pass.ID,
		StudentName: pass.StudentName,
		OutDate:     models.DateKey(outDate),
		Message:     fmt.Sprintf("Pass %s approved for %s", pass.ID, models.DateKey(outDate)),
		OccurredAt:  now,
	}
	if status == models.PassStatusWaitlisted {
		event.Type = models.EventPassWaitlisted
		event.Message = fmt.Sprintf("Capacity reached for %s, pass %s waitlisted", models.DateKey(outDate), pass.ID)
	}

	s.logger.Info("pass application resolved",
		zap.String("pass_id", pass.ID),
		zap.String("student_id", pass.StudentID),
		zap.String("out_date", models.DateKey(outDate)),
		zap.String("status", string(status)))
	return pass, []models.DomainEvent{event}, nil
}

// List returns passes matching the filter.
func (s *PassService) List(ctx context.Context, filter models.PassFilter) ([]models.OutingPass, int, error) {
	if filter.Status != "" && !models.ValidPassStatus(filter.Status) {
		return nil, 0, appErrors.ErrInvalidStatus
	}
	return s.repo.List(ctx, filter)
}

// Get fetches a single pass by code.
func (s *PassService) Get(ctx context.Context, id string) (*models.OutingPass, error) {
	pass, err := s.repo.FindByID(ctx, NormalizeCode(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find pass: %w", err)
	}
	return pass, nil
}

// SetStatus moves a pass to an arbitrary status on the warden's authority.
// When the change frees a capacity slot, the earliest waitlisted pass for the
// same date is promoted in the same transaction.
func (s *PassService) SetStatus(ctx context.Context, id string, next models.PassStatus) (*models.OutingPass, []models.DomainEvent, error) {
	if !models.ValidPassStatus(next) {
		return nil, nil, appErrors.ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pass, err := s.repo.FindByID(ctx, NormalizeCode(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, fmt.Errorf("find pass: %w", err)
	}

	previous := pass.Status
	now := time.Now().UTC()
	updates := map[string]models.PassStatus{pass.ID: next}
	events := []models.DomainEvent{{
		Type:        models.EventPassStatusSet,
		PassID:      pass.ID,
		StudentName: pass.StudentName,
		OutDate:     models.DateKey(pass.OutDate),
		Message:     fmt.Sprintf("Pass %s moved from %s to %s", pass.ID, previous, next),
		OccurredAt:  now,
	}}

	if promotionTriggered(previous, next) {
		waitlist, err := s.repo.ListWaitlistedByDate(ctx, pass.OutDate)
		if err != nil {
			return nil, nil, err
		}
		if promoted := nextPromotion(waitlist); promoted != nil {
			updates[promoted.ID] = models.PassStatusApproved
			events = append(events, models.DomainEvent{
				Type:        models.EventPassPromoted,
				PassID:      promoted.ID,
				StudentName: promoted.StudentName,
				OutDate:     models.DateKey(promoted.OutDate),
				Message:     fmt.Sprintf("Pass %s promoted from the waitlist for %s", promoted.ID, models.DateKey(promoted.OutDate)),
				OccurredAt:  now,
			})
		}
	}

	if err := s.repo.UpdateStatuses(ctx, updates); err != nil {
		return nil, nil, err
	}

	pass.Status = next
	pass.UpdatedAt = now
	s.logger.Info("pass status set",
		zap.String("pass_id", pass.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.Int("promotions", len(updates)-1))
	return pass, events, nil
}
