package queue

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

type Priority string

const (
	PriorityEmergency     Priority = "EMERGENCY"
	PriorityUrgent        Priority = "URGENT"
	PrioritySeniorCitizen Priority = "SENIOR_CITIZEN"
	PriorityPregnant      Priority = "PREGNANT"
	PriorityWithChild     Priority = "WITH_CHILD"
	PriorityRegular       Priority = "REGULAR"
	PriorityLateArrival   Priority = "LATE_ARRIVAL"
)

// PriorityScores orders the waiting room. Ties fall back to queue position.
var PriorityScores = map[Priority]int{
	PriorityEmergency:     100,
	PriorityUrgent:        80,
	PrioritySeniorCitizen: 60,
	PriorityPregnant:      60,
	PriorityWithChild:     50,
	PriorityRegular:       0,
	PriorityLateArrival:   -10,
}

// Entry is one patient in a branch's walk-in queue. Created at check-in,
// terminal once completed.
type Entry struct {
	ID            uuid.UUID
	BranchID      uuid.UUID
	PatientID     uuid.UUID
	ClinicianID   uuid.UUID
	AppointmentID *uuid.UUID
	QueueNumber   string
	QueuePosition int
	Priority      Priority
	PriorityScore int
	Status        Status
	CheckedInAt   time.Time
	CalledAt      *time.Time
	CompletedAt   *time.Time
}

// DefaultConsultMinutes is the wait-estimate fallback when a clinician has
// no completed consultations in the trailing window.
const DefaultConsultMinutes = 25
