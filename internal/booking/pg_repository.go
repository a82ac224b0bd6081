package booking

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, clinician_id, patient_id, branch_id, date,
	start_time, end_time, duration_minutes, status, channel, is_walk_in,
	chief_complaint, notes, reminder_24h_sent, reminder_2h_sent,
	cancel_reason, actual_duration_minutes, checked_in_at, started_at,
	completed_at, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end string
	err := row.Scan(
		&a.ID, &a.ClinicianID, &a.PatientID, &a.BranchID, &a.Date,
		&start, &end, &a.DurationMinutes, &a.Status, &a.Channel, &a.IsWalkIn,
		&a.ChiefComplaint, &a.Notes, &a.Reminder24hSent, &a.Reminder2hSent,
		&a.CancelReason, &a.ActualMinutes, &a.CheckedInAt, &a.StartedAt,
		&a.CompletedAt, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	if a.StartTime, err = timeofday.Parse(start); err != nil {
		return nil, fmt.Errorf("appointment %s start_time: %w", a.ID, err)
	}
	if a.EndTime, err = timeofday.Parse(end); err != nil {
		return nil, fmt.Errorf("appointment %s end_time: %w", a.ID, err)
	}
	return &a, nil
}

// bookingLockKey derives the advisory lock key for a clinician's day. Every
// write that can change that day's occupied intervals takes this lock, which
// is what makes the overlap re-check authoritative.
func bookingLockKey(clinicianID uuid.UUID, date time.Time) int64 {
	h := fnv.New64a()
	h.Write(clinicianID[:])
	h.Write([]byte(date.Format("2006-01-02")))
	return int64(h.Sum64())
}

// orderedLockKeys returns the two keys in ascending order. Transactions that
// take both days of a move must agree on the order or Postgres will pick a
// deadlock victim when two moves cross between the same pair of days.
func orderedLockKeys(a, b int64) (int64, int64) {
	if b < a {
		return b, a
	}
	return a, b
}

func branchLockKey(branchID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("branch"))
	h.Write(branchID[:])
	return int64(h.Sum64())
}

func (r *PgRepository) CreateAppointment(ctx context.Context, p CreateParams) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingLockKey(p.ClinicianID, p.Date)); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	if !p.IsWalkIn {
		conflict, err := hasOverlap(ctx, tx, p.ClinicianID, p.Date, p.StartTime, p.EndTime, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrAppointmentConflict
		}
	}

	appt, err := insertAppointment(ctx, tx, p, StatusScheduled)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return appt, nil
}

func insertAppointment(ctx context.Context, tx pgx.Tx, p CreateParams, status Status) (*Appointment, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (
			id, clinician_id, patient_id, branch_id, date,
			start_time, end_time, duration_minutes, status, channel,
			is_walk_in, chief_complaint, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+appointmentColumns,
		uuid.New(), p.ClinicianID, p.PatientID, p.BranchID, p.Date,
		p.StartTime.String(), p.EndTime.String(), int(p.EndTime-p.StartTime), status, p.Channel,
		p.IsWalkIn, p.ChiefComplaint, p.Notes,
	)
	return scanAppointment(row)
}

// hasOverlap reports whether any active appointment for the clinician on the
// date intersects [start, end). Intervals are half-open, so back-to-back
// bookings do not conflict.
func hasOverlap(ctx context.Context, tx pgx.Tx, clinicianID uuid.UUID, date time.Time, start, end timeofday.Minutes, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE clinician_id = $1 AND date = $2
			  AND status NOT IN ('CANCELLED', 'NO_SHOW')
			  AND id <> $5
			  AND start_time < $4 AND $3 < end_time
		)`, clinicianID, date, start.String(), end.String(), exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) UpdateTimes(ctx context.Context, id uuid.UUID, date time.Time, start, end timeofday.Minutes) (*Appointment, error) {
	current, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock both the old and new day so a concurrent booking on either one
	// serializes against this move. Keys are taken in ascending order so
	// cross-direction moves between the same two days cannot deadlock.
	if current.Date.Equal(date) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingLockKey(current.ClinicianID, current.Date)); err != nil {
			return nil, fmt.Errorf("acquire advisory lock: %w", err)
		}
	} else {
		first, second := orderedLockKeys(
			bookingLockKey(current.ClinicianID, current.Date),
			bookingLockKey(current.ClinicianID, date))
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, first); err != nil {
			return nil, fmt.Errorf("acquire advisory lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, second); err != nil {
			return nil, fmt.Errorf("acquire advisory lock: %w", err)
		}
	}

	conflict, err := hasOverlap(ctx, tx, current.ClinicianID, date, start, end, id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrAppointmentConflict
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET date = $2, start_time = $3, end_time = $4,
		    duration_minutes = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, date, start.String(), end.String(), int(end-start))
	appt, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return appt, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByClinicianDate(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinician_id = $1 AND date = $2
		ORDER BY start_time`, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, upcoming bool) ([]Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE patient_id = $1`
	if upcoming {
		q += ` AND date >= CURRENT_DATE AND status NOT IN ('CANCELLED', 'NO_SHOW', 'COMPLETED')`
	}
	q += ` ORDER BY date, start_time`

	rows, err := r.pool.Query(ctx, q, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// statusTimestamp maps a target status to the timestamp column it stamps.
func statusTimestamp(to Status) string {
	switch to {
	case StatusCheckedIn:
		return "checked_in_at"
	case StatusInProgress:
		return "started_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Appointment, error) {
	set := `status = $2, updated_at = NOW()`
	if col := statusTimestamp(to); col != "" {
		set += `, ` + col + ` = NOW()`
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments SET `+set+`
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+appointmentColumns,
		id, to, statusStrings(from))
	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		// Row exists but is in the wrong state, or does not exist at all.
		if _, getErr := r.GetAppointmentByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidStatus
	}
	return appt, err
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'CANCELLED', cancel_reason = $2, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('SCHEDULED', 'CONFIRMED', 'CHECKED_IN')
		RETURNING `+appointmentColumns, id, reason)
	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		if _, getErr := r.GetAppointmentByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidStatus
	}
	return appt, err
}

func (r *PgRepository) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.UpdateStatus(ctx, id, []Status{StatusCheckedIn}, StatusNoShow)
}

func (r *PgRepository) CheckIn(ctx context.Context, id uuid.UUID, priority queue.Priority) (*Appointment, *queue.Entry, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, branchLockKey(appt.BranchID)); err != nil {
		return nil, nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'CHECKED_IN', checked_in_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('SCHEDULED', 'CONFIRMED')
		RETURNING `+appointmentColumns, id)
	updated, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, nil, ErrInvalidStatus
	}
	if err != nil {
		return nil, nil, err
	}

	entry, err := insertQueueEntry(ctx, tx, updated.BranchID, updated.PatientID, updated.ClinicianID, &updated.ID, "Q", priority)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, entry, nil
}

func (r *PgRepository) CreateWalkIn(ctx context.Context, p CreateParams, priority queue.Priority) (*Appointment, *queue.Entry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, branchLockKey(p.BranchID)); err != nil {
		return nil, nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var queued bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM queue_entries
			WHERE branch_id = $1 AND patient_id = $2
			  AND status = 'WAITING' AND checked_in_at::date = CURRENT_DATE
		)`, p.BranchID, p.PatientID).Scan(&queued)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing queue entry: %w", err)
	}
	if queued {
		return nil, nil, ErrAlreadyQueued
	}

	appt, err := insertAppointment(ctx, tx, p, StatusCheckedIn)
	if err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE appointments SET checked_in_at = NOW() WHERE id = $1`, appt.ID); err != nil {
		return nil, nil, fmt.Errorf("stamp check-in: %w", err)
	}

	entry, err := insertQueueEntry(ctx, tx, p.BranchID, p.PatientID, p.ClinicianID, &appt.ID, "W", priority)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return appt, entry, nil
}

// insertQueueEntry adds a queue row behind everyone already waiting. Queue
// numbers restart daily per branch: Q-%03d for check-ins, W-%03d for
// walk-ins.
func insertQueueEntry(ctx context.Context, tx pgx.Tx, branchID, patientID, clinicianID uuid.UUID, appointmentID *uuid.UUID, prefix string, priority queue.Priority) (*queue.Entry, error) {
	var seq, waiting int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE queue_number LIKE $2 || '-%'),
		       COUNT(*) FILTER (WHERE status = 'WAITING')
		FROM queue_entries
		WHERE branch_id = $1 AND checked_in_at::date = CURRENT_DATE`,
		branchID, prefix).Scan(&seq, &waiting)
	if err != nil {
		return nil, fmt.Errorf("count queue entries: %w", err)
	}

	e := queue.Entry{
		ID:            uuid.New(),
		BranchID:      branchID,
		PatientID:     patientID,
		ClinicianID:   clinicianID,
		AppointmentID: appointmentID,
		QueueNumber:   fmt.Sprintf("%s-%03d", prefix, seq+1),
		QueuePosition: waiting + 1,
		Priority:      priority,
		PriorityScore: queue.PriorityScores[priority],
		Status:        queue.StatusWaiting,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO queue_entries (
			id, branch_id, patient_id, clinician_id, appointment_id,
			queue_number, queue_position, priority, priority_score, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING checked_in_at`,
		e.ID, e.BranchID, e.PatientID, e.ClinicianID, e.AppointmentID,
		e.QueueNumber, e.QueuePosition, e.Priority, e.PriorityScore, e.Status,
	).Scan(&e.CheckedInAt)
	if err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}
	return &e, nil
}

func (r *PgRepository) Complete(ctx context.Context, id uuid.UUID, actualMinutes int) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'COMPLETED', actual_duration_minutes = $2,
		    completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('CHECKED_IN', 'IN_PROGRESS')
		RETURNING `+appointmentColumns, id, actualMinutes)
	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		if _, getErr := r.GetAppointmentByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidStatus
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE queue_entries
		SET status = 'COMPLETED', completed_at = NOW()
		WHERE appointment_id = $1 AND status <> 'COMPLETED'`, id); err != nil {
		return nil, fmt.Errorf("close queue entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return appt, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (r *PgRepository) CreatePatient(ctx context.Context, name string, phone, email *string) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, phone, email, created_at, updated_at`,
		uuid.New(), name, phone, email).
		Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &p, nil
}
