package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

type ExceptionType string

const (
	ExceptionLeave      ExceptionType = "LEAVE"
	ExceptionConference ExceptionType = "CONFERENCE"
	ExceptionHoliday    ExceptionType = "HOLIDAY"
	ExceptionEmergency  ExceptionType = "EMERGENCY"
	ExceptionHalfDay    ExceptionType = "HALF_DAY"
)

type SlotType string

const (
	SlotAppointment     SlotType = "appointment"
	SlotWalkInBuffer    SlotType = "walk_in_buffer"
	SlotEmergencyBuffer SlotType = "emergency_buffer"
)

const DefaultSlotMinutes = 30

type Clinician struct {
	ID        uuid.UUID
	Name      string
	Phone     *string
	Specialty *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllocationPolicy splits a working day's capacity among slot types. The
// three percentages must sum to exactly 100.
type AllocationPolicy struct {
	AppointmentPercent int
	WalkInPercent      int
	EmergencyPercent   int
}

func (p AllocationPolicy) Valid() bool {
	if p.AppointmentPercent < 0 || p.WalkInPercent < 0 || p.EmergencyPercent < 0 {
		return false
	}
	return p.AppointmentPercent+p.WalkInPercent+p.EmergencyPercent == 100
}

// DefaultAllocation protects most of the day for pre-booked appointments.
var DefaultAllocation = AllocationPolicy{
	AppointmentPercent: 70,
	WalkInPercent:      20,
	EmergencyPercent:   10,
}

// WeeklyTemplate is a clinician's recurring working window for one weekday
// (0=Sunday .. 6=Saturday). At most one template exists per clinician and
// weekday.
type WeeklyTemplate struct {
	ID          uuid.UUID
	ClinicianID uuid.UUID
	DayOfWeek   int
	StartTime   timeofday.Minutes
	EndTime     timeofday.Minutes
	SlotMinutes int
	Location    *string
	Allocation  AllocationPolicy
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exception overrides the weekly template for a single date. At most one
// exists per clinician and date; a second write updates the first.
type Exception struct {
	ID          uuid.UUID
	ClinicianID uuid.UUID
	Date        time.Time
	Type        ExceptionType
	IsAvailable bool
	CustomStart *timeofday.Minutes
	CustomEnd   *timeofday.Minutes
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Holiday is a facility-wide closure date. Recurring holidays apply every
// year on the same month and day.
type Holiday struct {
	ID          uuid.UUID
	Name        string
	Date        time.Time
	IsRecurring bool
}

type WorkingHours struct {
	Start       timeofday.Minutes
	End         timeofday.Minutes
	SlotMinutes int
	Location    *string
}

// Availability is the resolved verdict for one clinician and one date.
type Availability struct {
	IsAvailable  bool
	IsHoliday    bool
	HolidayName  string
	Exception    *Exception
	WorkingHours *WorkingHours
	Allocation   *AllocationPolicy
}

// TimeSlot is one generated increment of a working day.
type TimeSlot struct {
	Start         timeofday.Minutes
	End           timeofday.Minutes
	Minutes       int
	IsAvailable   bool
	Type          SlotType
	AppointmentID *uuid.UUID
	BookedBy      string
}

// BookedInterval is the slice of an existing active appointment the slot
// engine overlap-tests against.
type BookedInterval struct {
	AppointmentID uuid.UUID
	PatientName   string
	Start         timeofday.Minutes
	End           timeofday.Minutes
}
