package handler

import (
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

func newScanHandlerFixture(repo *fakePassRepo) *ScanHandler {
	svc := service.NewScanService(repo, &sync.Mutex{}, zap.NewNop())
	return NewScanHandler(svc, testNotifier(), testDashboard(), nil)
}

func guardClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "guard-1", Role: models.RoleGuard}
}

func TestScanHandlerExit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePassRepo()
	repo.passes["ABCDE23456"] = &models.OutingPass{ID: "ABCDE23456", Status: models.PassStatusApproved, OutDate: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)}
	handler := newScanHandlerFixture(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/scans/exit", map[string]string{"qr_data": "ABCDE23456.1234.c3R1ZGVudA.deadbeef"})
	c.Set(middleware.ContextUserKey, guardClaims())

	handler.Exit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Direction string `json:"direction"`
			Pass      struct {
				Status string `json:"status"`
			} `json:"pass"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "EXIT", envelope.Data.Direction)
	assert.Equal(t, "OUT", envelope.Data.Pass.Status)
	assert.Equal(t, models.PassStatusOut, repo.passes["ABCDE23456"].Status)
}

func TestScanHandlerEntryRequiresOut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newFakePassRepo()
	repo.passes["ABCDE23456"] = &models.OutingPass{ID: "ABCDE23456", Status: models.PassStatusApproved}
	handler := newScanHandlerFixture(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/scans/entry", map[string]string{"qr_data": "ABCDE23456"})
	c.Set(middleware.ContextUserKey, guardClaims())

	handler.Entry(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_TRANSITION", envelope.Error.Code)
}

func TestScanHandlerUnknownPass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScanHandlerFixture(newFakePassRepo())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/scans/exit", map[string]string{"qr_data": "MISSING999"})
	c.Set(middleware.ContextUserKey, guardClaims())

	handler.Exit(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanHandlerMissingPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScanHandlerFixture(newFakePassRepo())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/scans/exit", nil)
	c.Set(middleware.ContextUserKey, guardClaims())

	handler.Exit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
