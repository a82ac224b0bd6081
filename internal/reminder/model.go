package reminder

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

type Type string

const (
	Type24h         Type = "24h"
	Type2h          Type = "2h"
	TypeRunningLate Type = "running_late"
	TypeNoShow      Type = "no_show"
)

// Log records one delivery attempt so support staff can answer "was this
// patient actually texted".
type Log struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Type          Type
	Recipient     string
	Sent          bool
	MessageID     *string
	Error         *string
	CreatedAt     time.Time
}

// DueAppointment is the join of an appointment with the contact details a
// sweep needs to text its patient.
type DueAppointment struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	PatientName   string
	PatientPhone  *string
	ClinicianName string
	Date          time.Time
	StartTime     timeofday.Minutes
}
