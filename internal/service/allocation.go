package service

import (
	"crypto/rand"
	"fmt"
	"sort"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

// Allocation decisions are pure functions over pass snapshots. Callers load
// state through repositories, decide here, and persist the result; nothing
// in this file touches storage.

// admissionStatus applies the capacity gate for one application: the number
// of already-admitted passes for the requested date decides between
// immediate approval and the waitlist.
func admissionStatus(admittedCount, capacity int) models.PassStatus {
	if admittedCount < capacity {
		return models.PassStatusApproved
	}
	return models.PassStatusWaitlisted
}

// sortFCFS orders passes by creation time, earliest first, with the pass id
// as a deterministic tie-break.
func sortFCFS(passes []models.OutingPass) {
	sort.SliceStable(passes, func(i, j int) bool {
		if passes[i].CreatedAt.Equal(passes[j].CreatedAt) {
			return passes[i].ID < passes[j].ID
		}
		return passes[i].CreatedAt.Before(passes[j].CreatedAt)
	})
}

// nextPromotion picks the single pass to promote when one capacity slot is
// freed: the earliest-created waitlisted pass for the affected date. Exactly
// one promotion per freed slot; a cancellation never re-scans the whole
// waitlist. Returns nil when the waitlist is empty.
func nextPromotion(waitlist []models.OutingPass) *models.OutingPass {
	if len(waitlist) == 0 {
		return nil
	}
	ordered := make([]models.OutingPass, len(waitlist))
	copy(ordered, waitlist)
	sortFCFS(ordered)
	return &ordered[0]
}

// promotionTriggered reports whether a status change frees a capacity slot:
// only a transition out of APPROVED or PENDING into CANCELLED or REJECTED
// does. Re-asserting the current status never fires a promotion.
func promotionTriggered(previous, next models.PassStatus) bool {
	if previous == next {
		return false
	}
	fromHolds := previous == models.PassStatusApproved || previous == models.PassStatusPending
	toFrees := next == models.PassStatusCancelled || next == models.PassStatusRejected
	return fromHolds && toFrees
}

// capacityPromotions computes the full promotion cascade after a capacity
// change. For every date with a waitlist it promotes FCFS until that date's
// admitted count reaches the new capacity, counting each promotion against
// the date as it goes. Admitted passes are never demoted, so a capacity
// decrease yields no promotions and no other changes.
func capacityPromotions(waitlist []models.OutingPass, admittedByDate map[string]int, capacity int) []models.OutingPass {
	if len(waitlist) == 0 {
		return nil
	}
	ordered := make([]models.OutingPass, len(waitlist))
	copy(ordered, waitlist)
	sortFCFS(ordered)

	admitted := make(map[string]int, len(admittedByDate))
	for date, count := range admittedByDate {
		admitted[date] = count
	}

	var promoted []models.OutingPass
	for _, pass := range ordered {
		date := models.DateKey(pass.OutDate)
		if admitted[date] < capacity {
			promoted = append(promoted, pass)
			admitted[date]++
		}
	}
	return promoted
}

// passCodeAlphabet deliberately drops 0/O/1/I to keep codes legible on a
// printed slip.
const passCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newPassCode generates a random uppercase pass code. Uniqueness is
// enforced by the primary key; at 10 characters over a 32-symbol alphabet
// collisions are vanishingly rare.
func newPassCode() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate pass code: %w", err)
	}
	code := make([]byte, len(buf))
	for i, b := range buf {
		code[i] = passCodeAlphabet[int(b)%len(passCodeAlphabet)]
	}
	return string(code), nil
}
