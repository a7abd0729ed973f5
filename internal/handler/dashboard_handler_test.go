package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
)

type fakeDashboardPassRepo struct {
	admitted int
	byStatus map[models.PassStatus]int
	waitlist []models.OutingPass
}

func (f *fakeDashboardPassRepo) CountAdmitted(ctx context.Context, date time.Time) (int, error) {
	return f.admitted, nil
}

func (f *fakeDashboardPassRepo) CountByStatus(ctx context.Context, date *time.Time) (map[models.PassStatus]int, error) {
	return f.byStatus, nil
}

func (f *fakeDashboardPassRepo) ListWaitlistedByDate(ctx context.Context, date time.Time) ([]models.OutingPass, error) {
	return f.waitlist, nil
}

func TestDashboardHandlerOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeDashboardPassRepo{
		admitted: 12,
		byStatus: map[models.PassStatus]int{
			models.PassStatusApproved:   12,
			models.PassStatusWaitlisted: 3,
		},
		waitlist: []models.OutingPass{
			{ID: "WAITING001", StudentID: "student-2", Status: models.PassStatusWaitlisted, OutDate: time.Now().UTC()},
		},
	}
	gate := &fakeGateRepo{cfg: models.GateConfig{WindowOpen: true, Capacity: 60}}
	svc := service.NewDashboardService(repo, gate, nil, nil, time.Minute, false, zap.NewNop())
	handler := NewDashboardHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			WindowOpen    bool           `json:"is_window_open"`
			Capacity      int            `json:"capacity"`
			AdmittedToday int            `json:"admitted_today"`
			SlotsLeft     int            `json:"slots_left"`
			TodayByStatus map[string]int `json:"today_by_status"`
			Waitlist      []struct {
				ID string `json:"id"`
			} `json:"waitlist"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.WindowOpen)
	assert.Equal(t, 60, envelope.Data.Capacity)
	assert.Equal(t, 12, envelope.Data.AdmittedToday)
	assert.Equal(t, 48, envelope.Data.SlotsLeft)
	assert.Equal(t, 3, envelope.Data.TodayByStatus["WAITLISTED"])
	require.Len(t, envelope.Data.Waitlist, 1)
	assert.Equal(t, "WAITING001", envelope.Data.Waitlist[0].ID)
}
