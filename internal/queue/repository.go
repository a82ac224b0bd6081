package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound   = errors.New("queue entry not found")
	ErrQueueEmpty      = errors.New("no patients waiting")
	ErrUnknownPriority = errors.New("unknown priority level")
)

// Contact is the patient subset needed for queue notifications.
type Contact struct {
	Name  string
	Phone *string
}

type Repository interface {
	GetEntryByID(ctx context.Context, id uuid.UUID) (*Entry, error)

	// EntriesForToday returns the branch's queue for the current day ordered
	// by priority score descending, then queue position ascending.
	EntriesForToday(ctx context.Context, branchID uuid.UUID) ([]Entry, error)

	// NextWaiting returns the waiting entry that would be called next.
	// Returns ErrQueueEmpty when nobody is waiting.
	NextWaiting(ctx context.Context, branchID uuid.UUID) (*Entry, error)

	// WaitingAhead counts waiting entries that outrank the given entry.
	WaitingAhead(ctx context.Context, e *Entry) (int, error)

	// CountWaitingForClinician counts today's waiting entries assigned to the
	// clinician.
	CountWaitingForClinician(ctx context.Context, clinicianID uuid.UUID) (int, error)

	// CompleteInProgress closes whichever entry is currently in consultation
	// at the branch. No-op when nobody is in progress.
	CompleteInProgress(ctx context.Context, branchID uuid.UUID) error

	MarkInProgress(ctx context.Context, id uuid.UUID) (*Entry, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (*Entry, error)
	UpdatePriority(ctx context.Context, id uuid.UUID, priority Priority, score int) (*Entry, error)

	// AvgConsultMinutes returns the clinician's average actual consultation
	// length over completed appointments since the given time. ok is false
	// when there is no history to average.
	AvgConsultMinutes(ctx context.Context, clinicianID uuid.UUID, since time.Time) (avg float64, ok bool, err error)

	PatientContact(ctx context.Context, patientID uuid.UUID) (*Contact, error)
}
