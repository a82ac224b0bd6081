package schedule

import (
	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

// The facility closes for lunch; slots intersecting this window are never
// generated and the cursor jumps to its end.
var (
	lunchStart = timeofday.MustParse("12:00")
	lunchEnd   = timeofday.MustParse("13:00")
)

// GenerateSlots partitions a working day into typed slots under the
// allocation policy and marks the ones occupied by existing bookings.
//
// Quotas floor both ways: appointmentMinutes = floor(effective * pct/100)
// where effective excludes lunch, then maxSlots =
// floor(appointmentMinutes / slotMinutes). Slots are classified in
// fixed priority order, appointment first, then walk-in buffer, then
// everything remaining as emergency buffer. Early-day slots are deliberately
// reserved for scheduled appointments rather than interleaving by ratio.
//
// The result is recomputed fresh on every call; bookings and exceptions can
// change between requests so it must never be cached.
func GenerateSlots(hours WorkingHours, policy AllocationPolicy, booked []BookedInterval) []TimeSlot {
	slotMinutes := hours.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	totalMinutes := int(hours.End) - int(hours.Start)
	if totalMinutes <= 0 {
		return nil
	}

	// Lunch does not count toward allocatable time.
	lo, hi := lunchStart, lunchEnd
	if hours.Start > lo {
		lo = hours.Start
	}
	if hours.End < hi {
		hi = hours.End
	}
	if lo < hi {
		totalMinutes -= int(hi) - int(lo)
	}

	appointmentMinutes := totalMinutes * policy.AppointmentPercent / 100
	walkInMinutes := totalMinutes * policy.WalkInPercent / 100
	maxAppointmentSlots := appointmentMinutes / slotMinutes
	maxWalkInSlots := walkInMinutes / slotMinutes

	var slots []TimeSlot
	appointmentSlots := 0
	walkInSlots := 0

	cur := hours.Start
	for int(cur)+slotMinutes <= int(hours.End) {
		end := timeofday.Minutes(int(cur) + slotMinutes)

		if timeofday.Overlap(cur, end, lunchStart, lunchEnd) {
			cur = lunchEnd
			continue
		}

		var slotType SlotType
		switch {
		case appointmentSlots < maxAppointmentSlots:
			slotType = SlotAppointment
			appointmentSlots++
		case walkInSlots < maxWalkInSlots:
			slotType = SlotWalkInBuffer
			walkInSlots++
		default:
			slotType = SlotEmergencyBuffer
		}

		slot := TimeSlot{
			Start:       cur,
			End:         end,
			Minutes:     slotMinutes,
			IsAvailable: true,
			Type:        slotType,
		}

		for i := range booked {
			b := &booked[i]
			if timeofday.Overlap(cur, end, b.Start, b.End) {
				slot.IsAvailable = false
				id := b.AppointmentID
				slot.AppointmentID = &id
				slot.BookedBy = b.PatientName
				break
			}
		}

		slots = append(slots, slot)
		cur = end
	}

	return slots
}
