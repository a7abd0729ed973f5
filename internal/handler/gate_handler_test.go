package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/middleware"
	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
)

type fakeGatePassRepo struct {
	admitted       int
	waitlist       []models.OutingPass
	admittedByDate map[string]int
	updates        []map[string]models.PassStatus
}

func (f *fakeGatePassRepo) CountAdmitted(ctx context.Context, date time.Time) (int, error) {
	return f.admitted, nil
}

func (f *fakeGatePassRepo) ListWaitlisted(ctx context.Context) ([]models.OutingPass, error) {
	return f.waitlist, nil
}

func (f *fakeGatePassRepo) AdmittedCountsByDate(ctx context.Context, dates []time.Time) (map[string]int, error) {
	return f.admittedByDate, nil
}

func (f *fakeGatePassRepo) UpdateStatuses(ctx context.Context, updates map[string]models.PassStatus) error {
	f.updates = append(f.updates, updates)
	return nil
}

func newGateHandlerFixture(cfg models.GateConfig, passes *fakeGatePassRepo) (*GateHandler, *fakeGateRepo) {
	repo := &fakeGateRepo{cfg: cfg}
	if passes == nil {
		passes = &fakeGatePassRepo{}
	}
	svc := service.NewGateService(repo, passes, &sync.Mutex{}, zap.NewNop())
	return NewGateHandler(svc, testNotifier(), testDashboard(), nil), repo
}

func TestGateHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newGateHandlerFixture(models.GateConfig{WindowOpen: true, Capacity: 60, OpeningTime: "17:00"}, &fakeGatePassRepo{admitted: 12})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/gate", nil)

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			WindowOpen   bool `json:"is_window_open"`
			Capacity     int  `json:"capacity"`
			CurrentCount int  `json:"current_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.WindowOpen)
	assert.Equal(t, 60, envelope.Data.Capacity)
	assert.Equal(t, 12, envelope.Data.CurrentCount)
}

func TestGateHandlerSetWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGateHandlerFixture(models.GateConfig{WindowOpen: false, Capacity: 60}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPut, "/gate/window", map[string]bool{"open": true})
	c.Set(middleware.ContextUserKey, wardenClaims())

	handler.SetWindow(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.cfg.WindowOpen)
}

func TestGateHandlerSetWindowMissingFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newGateHandlerFixture(models.GateConfig{WindowOpen: false, Capacity: 60}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPut, "/gate/window", map[string]string{})
	c.Set(middleware.ContextUserKey, wardenClaims())

	handler.SetWindow(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGateHandlerSetCapacityNegative(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newGateHandlerFixture(models.GateConfig{WindowOpen: true, Capacity: 60}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPut, "/gate/capacity", map[string]int{"capacity": -5})
	c.Set(middleware.ContextUserKey, wardenClaims())

	handler.SetCapacity(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 60, repo.cfg.Capacity)
}

func TestGateHandlerSetCapacityPromotes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	passes := &fakeGatePassRepo{
		waitlist: []models.OutingPass{
			{ID: "WAITING001", OutDate: date, Status: models.PassStatusWaitlisted, CreatedAt: time.Now().UTC()},
		},
		admittedByDate: map[string]int{models.DateKey(date): 60},
	}
	handler, repo := newGateHandlerFixture(models.GateConfig{WindowOpen: true, Capacity: 60}, passes)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPut, "/gate/capacity", map[string]int{"capacity": 61})
	c.Set(middleware.ContextUserKey, wardenClaims())

	handler.SetCapacity(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 61, repo.cfg.Capacity)
	require.Len(t, passes.updates, 1)
	assert.Equal(t, models.PassStatusApproved, passes.updates[0]["WAITING001"])
}
