package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOrderedLockKeysSymmetric(t *testing.T) {
	clinicianID := uuid.New()
	dayOne := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	keyOne := bookingLockKey(clinicianID, dayOne)
	keyTwo := bookingLockKey(clinicianID, dayTwo)

	// A move from day one to day two and a move back must acquire the two
	// locks in the same order.
	f1, s1 := orderedLockKeys(keyOne, keyTwo)
	f2, s2 := orderedLockKeys(keyTwo, keyOne)
	if f1 != f2 || s1 != s2 {
		t.Errorf("orderedLockKeys not symmetric: (%d,%d) vs (%d,%d)", f1, s1, f2, s2)
	}
	if f1 > s1 {
		t.Errorf("keys not ascending: %d > %d", f1, s1)
	}
}

func TestBookingLockKeyStable(t *testing.T) {
	clinicianID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if bookingLockKey(clinicianID, day) != bookingLockKey(clinicianID, day) {
		t.Error("lock key not deterministic for the same clinician-day")
	}
	other := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if bookingLockKey(clinicianID, day) == bookingLockKey(clinicianID, other) {
		t.Error("adjacent days hashed to the same lock key")
	}
}
