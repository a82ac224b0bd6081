package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentConflict = errors.New("appointment conflicts with an existing booking")
	ErrInvalidStatus       = errors.New("invalid status transition")
	ErrAlreadyQueued       = errors.New("patient is already waiting in the queue")
)

// CreateParams carries everything needed to insert a new appointment.
type CreateParams struct {
	ClinicianID    uuid.UUID
	PatientID      uuid.UUID
	BranchID       uuid.UUID
	Date           time.Time
	StartTime      timeofday.Minutes
	EndTime        timeofday.Minutes
	Channel        Channel
	IsWalkIn       bool
	ChiefComplaint *string
	Notes          *string
}

type Repository interface {
	// CreateAppointment inserts the appointment inside a transaction that
	// holds an advisory lock on (clinician, date) and re-checks overlap
	// against active appointments. Returns ErrAppointmentConflict when a
	// conflicting booking exists and the new one is not a walk-in.
	CreateAppointment(ctx context.Context, p CreateParams) (*Appointment, error)

	// UpdateTimes reschedules an appointment under the same advisory lock
	// and overlap re-check, excluding the appointment itself.
	UpdateTimes(ctx context.Context, id uuid.UUID, date time.Time, start, end timeofday.Minutes) (*Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByClinicianDate(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, upcoming bool) ([]Appointment, error)

	// UpdateStatus moves the appointment from one of the given statuses to
	// the target status, setting the matching timestamp column. Returns
	// ErrInvalidStatus when the current status is not in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Appointment, error)

	Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// CheckIn transitions the appointment to CHECKED_IN and inserts a queue
	// entry for it in a single transaction.
	CheckIn(ctx context.Context, id uuid.UUID, priority queue.Priority) (*Appointment, *queue.Entry, error)

	// CreateWalkIn inserts a walk-in appointment already CHECKED_IN together
	// with its queue entry in a single transaction. Returns ErrAlreadyQueued
	// when the patient already has a WAITING entry at the branch today.
	CreateWalkIn(ctx context.Context, p CreateParams, priority queue.Priority) (*Appointment, *queue.Entry, error)

	// Complete finishes the appointment, records actual duration, and closes
	// the linked queue entry if one exists.
	Complete(ctx context.Context, id uuid.UUID, actualMinutes int) (*Appointment, error)

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	CreatePatient(ctx context.Context, name string, phone, email *string) (*Patient, error)
}
