package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Due24h returns active appointments starting inside [from, to) whose
	// 24-hour reminder flag is still unset.
	Due24h(ctx context.Context, from, to time.Time) ([]DueAppointment, error)

	// Due2h is the 2-hour counterpart of Due24h.
	Due2h(ctx context.Context, from, to time.Time) ([]DueAppointment, error)

	// RemainingForClinicianDay returns not-yet-completed appointments for a
	// clinician on a date, ordered by start time. Used for delay broadcasts.
	RemainingForClinicianDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]DueAppointment, error)

	MarkReminder24hSent(ctx context.Context, appointmentID uuid.UUID) error
	MarkReminder2hSent(ctx context.Context, appointmentID uuid.UUID) error

	InsertLog(ctx context.Context, l Log) error
}
