package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const dueQuery = `
	SELECT a.id, a.patient_id, p.name, p.phone, c.name, a.date, a.start_time
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN clinicians c ON c.id = a.clinician_id
	WHERE a.status IN ('SCHEDULED', 'CONFIRMED')
	  AND NOT a.is_walk_in
	  AND (a.date + a.start_time::time) >= $1
	  AND (a.date + a.start_time::time) < $2
	  AND NOT a.%s
	ORDER BY a.date, a.start_time`

func (r *PgRepository) Due24h(ctx context.Context, from, to time.Time) ([]DueAppointment, error) {
	return r.due(ctx, fmt.Sprintf(dueQuery, "reminder_24h_sent"), from, to)
}

func (r *PgRepository) Due2h(ctx context.Context, from, to time.Time) ([]DueAppointment, error) {
	return r.due(ctx, fmt.Sprintf(dueQuery, "reminder_2h_sent"), from, to)
}

func (r *PgRepository) due(ctx context.Context, query string, from, to time.Time) ([]DueAppointment, error) {
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query due appointments: %w", err)
	}
	defer rows.Close()
	return collectDue(rows)
}

func (r *PgRepository) RemainingForClinicianDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]DueAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, p.name, p.phone, c.name, a.date, a.start_time
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN clinicians c ON c.id = a.clinician_id
		WHERE a.clinician_id = $1 AND a.date = $2
		  AND a.status IN ('SCHEDULED', 'CONFIRMED', 'CHECKED_IN')
		ORDER BY a.start_time`, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("query remaining appointments: %w", err)
	}
	defer rows.Close()
	return collectDue(rows)
}

func collectDue(rows pgx.Rows) ([]DueAppointment, error) {
	var out []DueAppointment
	for rows.Next() {
		var d DueAppointment
		var start string
		if err := rows.Scan(&d.AppointmentID, &d.PatientID, &d.PatientName,
			&d.PatientPhone, &d.ClinicianName, &d.Date, &start); err != nil {
			return nil, fmt.Errorf("scan due appointment: %w", err)
		}
		var err error
		if d.StartTime, err = timeofday.Parse(start); err != nil {
			return nil, fmt.Errorf("appointment %s start_time: %w", d.AppointmentID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PgRepository) MarkReminder24hSent(ctx context.Context, appointmentID uuid.UUID) error {
	return r.markSent(ctx, appointmentID, "reminder_24h_sent")
}

func (r *PgRepository) MarkReminder2hSent(ctx context.Context, appointmentID uuid.UUID) error {
	return r.markSent(ctx, appointmentID, "reminder_2h_sent")
}

func (r *PgRepository) markSent(ctx context.Context, appointmentID uuid.UUID, column string) error {
	_, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE appointments SET %s = TRUE, updated_at = NOW() WHERE id = $1`, column),
		appointmentID)
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}
	return nil
}

func (r *PgRepository) InsertLog(ctx context.Context, l Log) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_logs (id, appointment_id, patient_id, type, recipient, sent, message_id, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), l.AppointmentID, l.PatientID, l.Type, l.Recipient, l.Sent, l.MessageID, l.Error)
	if err != nil {
		return fmt.Errorf("insert reminder log: %w", err)
	}
	return nil
}
