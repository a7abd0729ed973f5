package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

func datePass(id string, date time.Time, created time.Time) models.OutingPass {
	return models.OutingPass{
		ID:        id,
		OutDate:   date,
		Status:    models.PassStatusWaitlisted,
		CreatedAt: created,
	}
}

func TestAdmissionStatus(t *testing.T) {
	assert.Equal(t, models.PassStatusApproved, admissionStatus(0, 1))
	assert.Equal(t, models.PassStatusApproved, admissionStatus(59, 60))
	assert.Equal(t, models.PassStatusWaitlisted, admissionStatus(60, 60))
	assert.Equal(t, models.PassStatusWaitlisted, admissionStatus(0, 0))
}

func TestNextPromotionOrdersByCreation(t *testing.T) {
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	waitlist := []models.OutingPass{
		datePass("CCC", date, base.Add(2*time.Minute)),
		datePass("AAA", date, base),
		datePass("BBB", date, base.Add(time.Minute)),
	}

	picked := nextPromotion(waitlist)
	require.NotNil(t, picked)
	assert.Equal(t, "AAA", picked.ID)
}

func TestNextPromotionTieBreaksByID(t *testing.T) {
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	waitlist := []models.OutingPass{
		datePass("ZZZ", date, created),
		datePass("MMM", date, created),
	}

	picked := nextPromotion(waitlist)
	require.NotNil(t, picked)
	assert.Equal(t, "MMM", picked.ID)
}

func TestNextPromotionEmpty(t *testing.T) {
	assert.Nil(t, nextPromotion(nil))
}

func TestPromotionTriggered(t *testing.T) {
	cases := []struct {
		from, to models.PassStatus
		want     bool
	}{
		{models.PassStatusApproved, models.PassStatusCancelled, true},
		{models.PassStatusApproved, models.PassStatusRejected, true},
		{models.PassStatusPending, models.PassStatusCancelled, true},
		{models.PassStatusPending, models.PassStatusRejected, true},
		{models.PassStatusWaitlisted, models.PassStatusCancelled, false},
		{models.PassStatusOut, models.PassStatusCancelled, false},
		{models.PassStatusApproved, models.PassStatusOut, false},
		{models.PassStatusCancelled, models.PassStatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, promotionTriggered(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCapacityPromotionsFillsPerDate(t *testing.T) {
	friday := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	waitlist := []models.OutingPass{
		datePass("F1", friday, base),
		datePass("F2", friday, base.Add(time.Minute)),
		datePass("S1", saturday, base.Add(2*time.Minute)),
		datePass("S2", saturday, base.Add(3*time.Minute)),
	}
	admitted := map[string]int{
		models.DateKey(friday):   2,
		models.DateKey(saturday): 3,
	}

	promoted := capacityPromotions(waitlist, admitted, 4)

	ids := make([]string, 0, len(promoted))
	for _, p := range promoted {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"F1", "F2", "S1"}, ids)
}

func TestCapacityPromotionsDecreaseIsNoop(t *testing.T) {
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	waitlist := []models.OutingPass{datePass("AAA", date, time.Now().UTC())}
	admitted := map[string]int{models.DateKey(date): 10}

	assert.Empty(t, capacityPromotions(waitlist, admitted, 5))
}

func TestNewPassCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := newPassCode()
		require.NoError(t, err)
		assert.Len(t, code, 10)
		assert.Equal(t, strings.ToUpper(code), code)
		for _, r := range code {
			assert.Contains(t, passCodeAlphabet, string(r))
		}
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
