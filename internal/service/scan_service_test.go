package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/hostel-gatepass-api/pkg/errors"
	"github.com/noah-isme/hostel-gatepass-api/pkg/qrtoken"
)

type mockScanRepo struct {
	passes    map[string]*models.OutingPass
	markCalls []models.ScanType
	markErr   error
}

func (m *mockScanRepo) FindByID(ctx context.Context, id string) (*models.OutingPass, error) {
	pass, ok := m.passes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *pass
	return &copied, nil
}

func (m *mockScanRepo) MarkScan(ctx context.Context, id string, scan models.ScanType, at time.Time, status models.PassStatus) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.markCalls = append(m.markCalls, scan)
	if pass, ok := m.passes[id]; ok {
		pass.Status = status
	}
	return nil
}

func newScanFixture(status models.PassStatus) (*ScanService, *mockScanRepo, string) {
	repo := &mockScanRepo{passes: map[string]*models.OutingPass{
		"ABCDE23456": {ID: "ABCDE23456", Status: status, StudentName: "Asha Nair", OutDate: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewScanService(repo, &sync.Mutex{}, zap.NewNop())
	signer := qrtoken.NewSigner("test-secret", time.Hour)
	token, _ := signer.Generate("ABCDE23456", "student-1", time.Now().UTC())
	return svc, repo, token
}

func TestScanServiceExit(t *testing.T) {
	svc, repo, token := newScanFixture(models.PassStatusApproved)

	pass, events, err := svc.Exit(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.PassStatusOut, pass.Status)
	assert.True(t, pass.OutScanned)
	require.NotNil(t, pass.OutScanAt)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventPassExited, events[0].Type)
	assert.Equal(t, []models.ScanType{models.ScanTypeExit}, repo.markCalls)
}

func TestScanServiceEntry(t *testing.T) {
	svc, repo, token := newScanFixture(models.PassStatusOut)

	pass, events, err := svc.Entry(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.PassStatusReturned, pass.Status)
	assert.True(t, pass.InScanned)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventPassReturned, events[0].Type)
	assert.Equal(t, []models.ScanType{models.ScanTypeEntry}, repo.markCalls)
}

func TestScanServiceExitRejectsWrongStatus(t *testing.T) {
	for _, status := range []models.PassStatus{
		models.PassStatusPending,
		models.PassStatusWaitlisted,
		models.PassStatusOut,
		models.PassStatusReturned,
		models.PassStatusRejected,
	} {
		svc, repo, token := newScanFixture(status)
		_, _, err := svc.Exit(context.Background(), token)
		require.Error(t, err, "status %s", status)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INVALID_TRANSITION", appErr.Code)
		assert.Empty(t, repo.markCalls)
	}
}

func TestScanServiceEntryRejectsSecondScan(t *testing.T) {
	svc, _, token := newScanFixture(models.PassStatusOut)

	_, _, err := svc.Entry(context.Background(), token)
	require.NoError(t, err)

	_, _, err = svc.Entry(context.Background(), token)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_TRANSITION", appErr.Code)
}

func TestScanServiceAcceptsBareCode(t *testing.T) {
	svc, _, _ := newScanFixture(models.PassStatusApproved)

	pass, _, err := svc.Exit(context.Background(), "abcde23456")
	require.NoError(t, err)
	assert.Equal(t, "ABCDE23456", pass.ID)
}

func TestScanServiceUnknownPass(t *testing.T) {
	svc, _, _ := newScanFixture(models.PassStatusApproved)

	_, _, err := svc.Exit(context.Background(), "MISSING999")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
