package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

// Terminal reports whether no further status writes are accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Active reports whether the appointment still occupies its interval for
// conflict purposes.
func (s Status) Active() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// transitions is the appointment state machine. Status only moves forward;
// the sole reversal is an explicit cancel.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCheckedIn, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type Channel string

const (
	ChannelPortal Channel = "PORTAL"
	ChannelPhone  Channel = "PHONE"
	ChannelDesk   Channel = "DESK"
	ChannelWalkIn Channel = "WALKIN"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Phone     *string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID              uuid.UUID
	ClinicianID     uuid.UUID
	PatientID       uuid.UUID
	BranchID        uuid.UUID
	Date            time.Time
	StartTime       timeofday.Minutes
	EndTime         timeofday.Minutes
	DurationMinutes int
	Status          Status
	Channel         Channel
	IsWalkIn        bool
	ChiefComplaint  *string
	Notes           *string
	Reminder24hSent bool
	Reminder2hSent  bool
	CancelReason    *string
	ActualMinutes   *int
	CheckedInAt     *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
