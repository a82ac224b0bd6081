package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const entryColumns = `id, branch_id, patient_id, clinician_id, appointment_id,
	queue_number, queue_position, priority, priority_score, status,
	checked_in_at, called_at, completed_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.BranchID, &e.PatientID, &e.ClinicianID, &e.AppointmentID,
		&e.QueueNumber, &e.QueuePosition, &e.Priority, &e.PriorityScore, &e.Status,
		&e.CheckedInAt, &e.CalledAt, &e.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("scan queue entry: %w", err)
	}
	return &e, nil
}

func (r *PgRepository) GetEntryByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE id = $1`, id)
	return scanEntry(row)
}

func (r *PgRepository) EntriesForToday(ctx context.Context, branchID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE branch_id = $1 AND checked_in_at::date = CURRENT_DATE
		ORDER BY priority_score DESC, queue_position`, branchID)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *PgRepository) NextWaiting(ctx context.Context, branchID uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE branch_id = $1 AND status = 'WAITING'
		  AND checked_in_at::date = CURRENT_DATE
		ORDER BY priority_score DESC, queue_position
		LIMIT 1`, branchID)
	e, err := scanEntry(row)
	if errors.Is(err, ErrEntryNotFound) {
		return nil, ErrQueueEmpty
	}
	return e, err
}

func (r *PgRepository) WaitingAhead(ctx context.Context, e *Entry) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM queue_entries
		WHERE branch_id = $1 AND status = 'WAITING'
		  AND checked_in_at::date = CURRENT_DATE
		  AND (priority_score > $2
		       OR (priority_score = $2 AND queue_position < $3))`,
		e.BranchID, e.PriorityScore, e.QueuePosition).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waiting ahead: %w", err)
	}
	return n, nil
}

func (r *PgRepository) CountWaitingForClinician(ctx context.Context, clinicianID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM queue_entries
		WHERE clinician_id = $1 AND status = 'WAITING'
		  AND checked_in_at::date = CURRENT_DATE`, clinicianID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waiting for clinician: %w", err)
	}
	return n, nil
}

func (r *PgRepository) CompleteInProgress(ctx context.Context, branchID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE queue_entries
		SET status = 'COMPLETED', completed_at = NOW()
		WHERE branch_id = $1 AND status = 'IN_PROGRESS'
		  AND checked_in_at::date = CURRENT_DATE`, branchID)
	if err != nil {
		return fmt.Errorf("complete in-progress entry: %w", err)
	}
	return nil
}

func (r *PgRepository) MarkInProgress(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queue_entries
		SET status = 'IN_PROGRESS', called_at = NOW()
		WHERE id = $1 AND status = 'WAITING'
		RETURNING `+entryColumns, id)
	return scanEntry(row)
}

func (r *PgRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queue_entries
		SET status = 'COMPLETED', completed_at = NOW()
		WHERE id = $1
		RETURNING `+entryColumns, id)
	return scanEntry(row)
}

func (r *PgRepository) UpdatePriority(ctx context.Context, id uuid.UUID, priority Priority, score int) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queue_entries
		SET priority = $2, priority_score = $3
		WHERE id = $1
		RETURNING `+entryColumns, id, priority, score)
	return scanEntry(row)
}

func (r *PgRepository) AvgConsultMinutes(ctx context.Context, clinicianID uuid.UUID, since time.Time) (float64, bool, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx, `
		SELECT AVG(actual_duration_minutes)
		FROM appointments
		WHERE clinician_id = $1 AND status = 'COMPLETED'
		  AND actual_duration_minutes IS NOT NULL
		  AND completed_at >= $2`, clinicianID, since).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("average consult minutes: %w", err)
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

func (r *PgRepository) PatientContact(ctx context.Context, patientID uuid.UUID) (*Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `SELECT name, phone FROM patients WHERE id = $1`, patientID).
		Scan(&c.Name, &c.Phone)
	if err != nil {
		return nil, fmt.Errorf("patient contact: %w", err)
	}
	return &c, nil
}
