package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
)

type gateConfigRepository interface {
	Get(ctx context.Context) (*models.GateConfig, error)
	Save(ctx context.Context, cfg *models.GateConfig) error
}

type gatePassRepository interface {
	CountAdmitted(ctx context.Context, date time.Time) (int, error)
	ListWaitlisted(ctx context.Context) ([]models.OutingPass, error)
	AdmittedCountsByDate(ctx context.Context, dates []time.Time) (map[string]int, error)
	UpdateStatuses(ctx context.Context, updates map[string]models.PassStatus) error
}

// GateService owns the singleton gate configuration: the application window
// toggle and the daily capacity, including the promotion cascade a capacity
// increase sets off.
type GateService struct {
	cfgRepo  gateConfigRepository
	passRepo gatePassRepository
	mu       *sync.Mutex
	logger   *zap.Logger
}

// NewGateService constructs a GateService.
func NewGateService(cfgRepo gateConfigRepository, passRepo gatePassRepository, mu *sync.Mutex, logger *zap.Logger) *GateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &GateService{cfgRepo: cfgRepo, passRepo: passRepo, mu: mu, logger: logger}
}

// Status returns the stored configuration plus the derived admitted count.
// The count is scoped to today's date regardless of which out dates hold
// admitted passes.
func (s *GateService) Status(ctx context.Context) (*models.GateStatus, error) {
	cfg, err := s.cfgRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gate config: %w", err)
	}
	count, err := s.passRepo.CountAdmitted(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &models.GateStatus{GateConfig: *cfg, CurrentCount: count}, nil
}

// SetWindow opens or closes the application window. The toggle only gates
// new applications; existing passes are untouched either way.
func (s *GateService) SetWindow(ctx context.Context, open bool, updatedBy string) (*models.GateStatus, []models.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.cfgRepo.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load gate config: %w", err)
	}
	cfg.WindowOpen = open
	if updatedBy != "" {
		cfg.UpdatedBy = &updatedBy
	}
	if err := s.cfgRepo.Save(ctx, cfg); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	event := models.DomainEvent{
		Type:       models.EventWindowOpened,
		Message:    "Outing application window opened",
		OccurredAt: now,
	}
	if !open {
		event.Type = models.EventWindowClosed
		event.Message = "Outing application window closed"
	}

	count, err := s.passRepo.CountAdmitted(ctx, now)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("application window toggled", zap.Bool("open", open), zap.String("updated_by", updatedBy))
	return &models.GateStatus{GateConfig: *cfg, CurrentCount: count}, []models.DomainEvent{event}, nil
}

// SetCapacity updates the daily capacity. Negative values are rejected and
// nothing changes. An increase promotes waitlisted passes FCFS per date until
// each date's admitted count reaches the new capacity; a decrease never
// demotes anyone.
func (s *GateService) SetCapacity(ctx context.Context, capacity int, updatedBy string) (*models.GateStatus, []models.DomainEvent, error) {
	if capacity < 0 {
		return nil, nil, appErrors.ErrInvalidCapacity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.cfgRepo.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load gate config: %w", err)
	}
	cfg.Capacity = capacity
	if updatedBy != "" {
		cfg.UpdatedBy = &updatedBy
	}
	if err := s.cfgRepo.Save(ctx, cfg); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	events := []models.DomainEvent{{
		Type:       models.EventCapacityChanged,
		Message:    fmt.Sprintf("Daily outing capacity set to %d", capacity),
		OccurredAt: now,
	}}

	waitlist, err := s.passRepo.ListWaitlisted(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(waitlist) > 0 {
		dates := uniqueDates(waitlist)
		admitted, err := s.passRepo.AdmittedCountsByDate(ctx, dates)
		if err != nil {
			return nil, nil, err
		}
		promoted := capacityPromotions(waitlist, admitted, capacity)
		if len(promoted) > 0 {
			updates := make(map[string]models.PassStatus, len(promoted))
			for _, pass := range promoted {
				updates[pass.ID] = models.PassStatusApproved
				events = append(events, models.DomainEvent{
					Type:        models.EventPassPromoted,
					PassID:      pass.ID,
					StudentName: pass.StudentName,
					OutDate:     models.DateKey(pass.OutDate),
					Message:     fmt.Sprintf("Pass %s promoted from the waitlist for %s", pass.ID, models.DateKey(pass.OutDate)),
					OccurredAt:  now,
				})
			}
			if err := s.passRepo.UpdateStatuses(ctx, updates); err != nil {
				return nil, nil, err
			}
		}
	}

	count, err := s.passRepo.CountAdmitted(ctx, now)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("capacity updated",
		zap.Int("capacity", capacity),
		zap.Int("promotions", len(events)-1),
		zap.String("updated_by", updatedBy))
	return &models.GateStatus{GateConfig: *cfg, CurrentCount: count}, events, nil
}

func uniqueDates(passes []models.OutingPass) []time.Time {
	seen := make(map[string]struct{}, len(passes))
	var dates []time.Time
	for _, pass := range passes {
		key := models.DateKey(pass.OutDate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, pass.OutDate)
	}
	return dates
}
