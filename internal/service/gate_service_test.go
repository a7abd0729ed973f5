package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
)

type mockGateCfgRepo struct {
	cfg    *models.GateConfig
	saved  []*models.GateConfig
	getErr error
}

func (m *mockGateCfgRepo) Get(ctx context.Context) (*models.GateConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	copied := *m.cfg
	return &copied, nil
}

func (m *mockGateCfgRepo) Save(ctx context.Context, cfg *models.GateConfig) error {
	copied := *cfg
	m.saved = append(m.saved, &copied)
	m.cfg = &copied
	return nil
}

type mockGatePassRepo struct {
	admitted       int
	admittedByDate map[string]int
	waitlist       []models.OutingPass
	statusUpdates  []map[string]models.PassStatus
}

func (m *mockGatePassRepo) CountAdmitted(ctx context.Context, date time.Time) (int, error) {
	return m.admitted, nil
}

func (m *mockGatePassRepo) ListWaitlisted(ctx context.Context) ([]models.OutingPass, error) {
	return m.waitlist, nil
}

func (m *mockGatePassRepo) AdmittedCountsByDate(ctx context.Context, dates []time.Time) (map[string]int, error) {
	return m.admittedByDate, nil
}

func (m *mockGatePassRepo) UpdateStatuses(ctx context.Context, updates map[string]models.PassStatus) error {
	m.statusUpdates = append(m.statusUpdates, updates)
	return nil
}

func newGateFixture(cfg models.GateConfig, passes *mockGatePassRepo) (*GateService, *mockGateCfgRepo) {
	repo := &mockGateCfgRepo{cfg: &cfg}
	if passes == nil {
		passes = &mockGatePassRepo{}
	}
	return NewGateService(repo, passes, &sync.Mutex{}, zap.NewNop()), repo
}

func TestGateServiceStatus(t *testing.T) {
	passes := &mockGatePassRepo{admitted: 12}
	svc, _ := newGateFixture(models.GateConfig{WindowOpen: true, Capacity: 60, OpeningTime: "17:00"}, passes)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.WindowOpen)
	assert.Equal(t, 60, status.Capacity)
	assert.Equal(t, 12, status.CurrentCount)
}

func TestGateServiceSetWindow(t *testing.T) {
	svc, repo := newGateFixture(models.GateConfig{WindowOpen: false, Capacity: 60}, nil)

	status, events, err := svc.SetWindow(context.Background(), true, "warden-1")
	require.NoError(t, err)
	assert.True(t, status.WindowOpen)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventWindowOpened, events[0].Type)
	require.Len(t, repo.saved, 1)
	require.NotNil(t, repo.saved[0].UpdatedBy)
	assert.Equal(t, "warden-1", *repo.saved[0].UpdatedBy)

	_, events, err = svc.SetWindow(context.Background(), false, "warden-1")
	require.NoError(t, err)
	assert.Equal(t, models.EventWindowClosed, events[0].Type)
}

func TestGateServiceSetCapacityNegative(t *testing.T) {
	svc, repo := newGateFixture(models.GateConfig{WindowOpen: true, Capacity: 60}, nil)

	_, _, err := svc.SetCapacity(context.Background(), -1, "warden-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCapacity)
	assert.Empty(t, repo.saved)
}

func TestGateServiceSetCapacityCascadesPromotions(t *testing.T) {
	friday := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	passes := &mockGatePassRepo{
		waitlist: []models.OutingPass{
			datePass("F1", friday, base),
			datePass("F2", friday, base.Add(time.Minute)),
			datePass("S1", saturday, base.Add(2*time.Minute)),
		},
		admittedByDate: map[string]int{
			models.DateKey(friday):   60,
			models.DateKey(saturday): 61,
		},
	}
	svc, repo := newGateFixture(models.GateConfig{WindowOpen: true, Capacity: 60}, passes)

	status, events, err := svc.SetCapacity(context.Background(), 62, "warden-1")
	require.NoError(t, err)
	assert.Equal(t, 62, status.Capacity)
	require.Len(t, repo.saved, 1)

	require.Len(t, passes.statusUpdates, 1)
	updates := passes.statusUpdates[0]
	assert.Equal(t, models.PassStatusApproved, updates["F1"])
	assert.Equal(t, models.PassStatusApproved, updates["F2"])
	assert.Equal(t, models.PassStatusApproved, updates["S1"])

	require.Len(t, events, 4)
	assert.Equal(t, models.EventCapacityChanged, events[0].Type)
	for _, event := range events[1:] {
		assert.Equal(t, models.EventPassPromoted, event.Type)
	}
}

func TestGateServiceSetCapacityDecreaseNeverDemotes(t *testing.T) {
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	passes := &mockGatePassRepo{
		waitlist:       []models.OutingPass{datePass("AAA", date, time.Now().UTC())},
		admittedByDate: map[string]int{models.DateKey(date): 40},
	}
	svc, _ := newGateFixture(models.GateConfig{WindowOpen: true, Capacity: 60}, passes)

	status, events, err := svc.SetCapacity(context.Background(), 10, "warden-1")
	require.NoError(t, err)
	assert.Equal(t, 10, status.Capacity)
	assert.Empty(t, passes.statusUpdates)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventCapacityChanged, events[0].Type)
}
