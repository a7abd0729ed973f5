package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/dto"
	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:overview"

type dashboardPassRepository interface {
	CountAdmitted(ctx context.Context, date time.Time) (int, error)
	CountByStatus(ctx context.Context, date *time.Time) (map[models.PassStatus]int, error)
	ListWaitlistedByDate(ctx context.Context, date time.Time) ([]models.OutingPass, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DashboardService assembles the warden overview: today's admission picture,
// status tallies and the pending waitlist. The assembled view is cached in
// Redis for a short TTL and invalidated by every pass or gate mutation.
type DashboardService struct {
	passRepo dashboardPassRepository
	gateRepo gateConfigReader
	cache    dashboardCache
	metrics  *MetricsService
	ttl      time.Duration
	enabled  bool
	logger   *zap.Logger
}

// NewDashboardService constructs the dashboard read model service.
func NewDashboardService(passRepo dashboardPassRepository, gateRepo gateConfigReader, cache dashboardCache, metrics *MetricsService, ttl time.Duration, enabled bool, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DashboardService{
		passRepo: passRepo,
		gateRepo: gateRepo,
		cache:    cache,
		metrics:  metrics,
		ttl:      ttl,
		enabled:  enabled,
		logger:   logger,
	}
}

// Overview returns the dashboard view, from cache when fresh.
func (s *DashboardService) Overview(ctx context.Context) (*dto.DashboardResponse, error) {
	if s.enabled && s.cache != nil {
		var cached dto.DashboardResponse
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	view, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.enabled && s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, view, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return view, nil
}

// Invalidate drops the cached view. Called after every mutation that can
// change what the dashboard shows.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if !s.enabled || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) build(ctx context.Context) (*dto.DashboardResponse, error) {
	today := time.Now().UTC()

	cfg, err := s.gateRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	admitted, err := s.passRepo.CountAdmitted(ctx, today)
	if err != nil {
		return nil, err
	}
	todayCounts, err := s.passRepo.CountByStatus(ctx, &today)
	if err != nil {
		return nil, err
	}
	totalCounts, err := s.passRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	waitlist, err := s.passRepo.ListWaitlistedByDate(ctx, today)
	if err != nil {
		return nil, err
	}

	slotsLeft := cfg.Capacity - admitted
	if slotsLeft < 0 {
		slotsLeft = 0
	}
	s.metrics.SetGateGauges(cfg.Capacity, admitted)
	return &dto.DashboardResponse{
		Date:          models.DateKey(today),
		WindowOpen:    cfg.WindowOpen,
		Capacity:      cfg.Capacity,
		AdmittedToday: admitted,
		SlotsLeft:     slotsLeft,
		TodayByStatus: statusCounts(todayCounts),
		TotalByStatus: statusCounts(totalCounts),
		Waitlist:      dto.ToPassResponses(waitlist),
	}, nil
}

func statusCounts(counts map[models.PassStatus]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	return out
}
