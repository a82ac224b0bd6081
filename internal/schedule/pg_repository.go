package schedule

import (
	"context"
	"errors"
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

// Helpers

func scanClinician(row pgx.Row) (*Clinician, error) {
	var c Clinician

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Specialty,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicianNotFound
		}
		return nil, err
	}

	return &c, nil
}

func scanTemplate(row pgx.Row) (*WeeklyTemplate, error) {
	var t WeeklyTemplate
	var start, end string

	err := row.Scan(
		&t.ID,
		&t.ClinicianID,
		&t.DayOfWeek,
		&start,
		&end,
		&t.SlotMinutes,
		&t.Location,
		&t.Allocation.AppointmentPercent,
		&t.Allocation.WalkInPercent,
		&t.Allocation.EmergencyPercent,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	if t.StartTime, err = timeofday.Parse(start); err != nil {
		return nil, fmt.Errorf("template %s start: %w", t.ID, err)
	}
	if t.EndTime, err = timeofday.Parse(end); err != nil {
		return nil, fmt.Errorf("template %s end: %w", t.ID, err)
	}

	return &t, nil
}

func scanException(row pgx.Row) (*Exception, error) {
	var e Exception
	var customStart, customEnd *string

	err := row.Scan(
		&e.ID,
		&e.ClinicianID,
		&e.Date,
		&e.Type,
		&e.IsAvailable,
		&customStart,
		&customEnd,
		&e.Reason,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExceptionNotFound
		}
		return nil, err
	}

	if customStart != nil {
		m, err := timeofday.Parse(*customStart)
		if err != nil {
			return nil, fmt.Errorf("exception %s custom start: %w", e.ID, err)
		}
		e.CustomStart = &m
	}
	if customEnd != nil {
		m, err := timeofday.Parse(*customEnd)
		if err != nil {
			return nil, fmt.Errorf("exception %s custom end: %w", e.ID, err)
		}
		e.CustomEnd = &m
	}

	return &e, nil
}

func scanHoliday(row pgx.Row) (*Holiday, error) {
	var h Holiday

	err := row.Scan(&h.ID, &h.Name, &h.Date, &h.IsRecurring)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHolidayNotFound
		}
		return nil, err
	}

	return &h, nil
}

func minutesPtr(m *timeofday.Minutes) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

// Interface methods

func (r *PgRepository) GetClinicianByID(ctx context.Context, id uuid.UUID) (*Clinician, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, specialty, is_active, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`, id)
	return scanClinician(row)
}

func (r *PgRepository) ListActiveClinicians(ctx context.Context) ([]Clinician, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, specialty, is_active, created_at, updated_at
		FROM clinicians
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Clinician
	for rows.Next() {
		c, err := scanClinician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

const templateColumns = `id, clinician_id, day_of_week, start_time, end_time, slot_minutes,
	location, appointment_percent, walk_in_percent, emergency_percent, is_active, created_at, updated_at`

func (r *PgRepository) CreateTemplate(ctx context.Context, t *WeeklyTemplate) (*WeeklyTemplate, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO weekly_templates
			(id, clinician_id, day_of_week, start_time, end_time, slot_minutes,
			 location, appointment_percent, walk_in_percent, emergency_percent, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, now(), now())
		RETURNING `+templateColumns+`
	`, id, t.ClinicianID, t.DayOfWeek, t.StartTime.String(), t.EndTime.String(), t.SlotMinutes,
		t.Location, t.Allocation.AppointmentPercent, t.Allocation.WalkInPercent, t.Allocation.EmergencyPercent)

	return scanTemplate(row)
}

func (r *PgRepository) CreateTemplates(ctx context.Context, ts []WeeklyTemplate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range ts {
		t := &ts[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO weekly_templates
				(id, clinician_id, day_of_week, start_time, end_time, slot_minutes,
				 location, appointment_percent, walk_in_percent, emergency_percent, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, now(), now())
		`, uuid.New(), t.ClinicianID, t.DayOfWeek, t.StartTime.String(), t.EndTime.String(), t.SlotMinutes,
			t.Location, t.Allocation.AppointmentPercent, t.Allocation.WalkInPercent, t.Allocation.EmergencyPercent)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*WeeklyTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM weekly_templates
		WHERE id = $1
	`, id)
	return scanTemplate(row)
}

func (r *PgRepository) TemplateForDay(ctx context.Context, clinicianID uuid.UUID, dayOfWeek int) (*WeeklyTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM weekly_templates
		WHERE clinician_id = $1 AND day_of_week = $2
	`, clinicianID, dayOfWeek)
	return scanTemplate(row)
}

func (r *PgRepository) ActiveTemplateForDay(ctx context.Context, clinicianID uuid.UUID, dayOfWeek int) (*WeeklyTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM weekly_templates
		WHERE clinician_id = $1 AND day_of_week = $2 AND is_active
	`, clinicianID, dayOfWeek)
	return scanTemplate(row)
}

func (r *PgRepository) TemplatesByClinician(ctx context.Context, clinicianID uuid.UUID) ([]WeeklyTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM weekly_templates
		WHERE clinician_id = $1
		ORDER BY day_of_week
	`, clinicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WeeklyTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateTemplate(ctx context.Context, t *WeeklyTemplate) (*WeeklyTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE weekly_templates
		SET start_time = $2,
		    end_time = $3,
		    slot_minutes = $4,
		    location = $5,
		    appointment_percent = $6,
		    walk_in_percent = $7,
		    emergency_percent = $8,
		    is_active = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+templateColumns+`
	`, t.ID, t.StartTime.String(), t.EndTime.String(), t.SlotMinutes, t.Location,
		t.Allocation.AppointmentPercent, t.Allocation.WalkInPercent, t.Allocation.EmergencyPercent, t.IsActive)

	return scanTemplate(row)
}

func (r *PgRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM weekly_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *PgRepository) DeleteTemplatesByClinician(ctx context.Context, clinicianID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM weekly_templates WHERE clinician_id = $1`, clinicianID)
	return err
}

const exceptionColumns = `id, clinician_id, date, type, is_available,
	custom_start, custom_end, reason, created_at, updated_at`

func (r *PgRepository) UpsertException(ctx context.Context, e *Exception) (*Exception, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedule_exceptions
			(id, clinician_id, date, type, is_available,
			 custom_start, custom_end, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (clinician_id, date) DO UPDATE
		SET type = EXCLUDED.type,
		    is_available = EXCLUDED.is_available,
		    custom_start = EXCLUDED.custom_start,
		    custom_end = EXCLUDED.custom_end,
		    reason = EXCLUDED.reason,
		    updated_at = now()
		RETURNING `+exceptionColumns+`
	`, uuid.New(), e.ClinicianID, e.Date, e.Type, e.IsAvailable,
		minutesPtr(e.CustomStart), minutesPtr(e.CustomEnd), e.Reason)

	return scanException(row)
}

func (r *PgRepository) GetExceptionByID(ctx context.Context, id uuid.UUID) (*Exception, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+exceptionColumns+`
		FROM schedule_exceptions
		WHERE id = $1
	`, id)
	return scanException(row)
}

func (r *PgRepository) ExceptionForDate(ctx context.Context, clinicianID uuid.UUID, date time.Time) (*Exception, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+exceptionColumns+`
		FROM schedule_exceptions
		WHERE clinician_id = $1 AND date = $2
	`, clinicianID, date)
	return scanException(row)
}

func (r *PgRepository) ExceptionsByClinician(ctx context.Context, clinicianID uuid.UUID, from, to *time.Time) ([]Exception, error) {
	query := `
		SELECT ` + exceptionColumns + `
		FROM schedule_exceptions
		WHERE clinician_id = $1`
	args := []any{clinicianID}

	if from != nil && to != nil {
		query += ` AND date BETWEEN $2 AND $3`
		args = append(args, *from, *to)
	}
	query += ` ORDER BY date`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Exception
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeleteException(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExceptionNotFound
	}
	return nil
}

func (r *PgRepository) UpsertHoliday(ctx context.Context, h *Holiday) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO holidays (id, name, date, is_recurring)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, date) DO UPDATE
		SET is_recurring = EXCLUDED.is_recurring
	`, uuid.New(), h.Name, h.Date, h.IsRecurring)
	if err != nil {
		return fmt.Errorf("upsert holiday %s: %w", h.Name, err)
	}
	return nil
}

func (r *PgRepository) HolidayForDate(ctx context.Context, date time.Time) (*Holiday, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, date, is_recurring
		FROM holidays
		WHERE date = $1
		   OR (is_recurring
		       AND EXTRACT(MONTH FROM date) = $2
		       AND EXTRACT(DAY FROM date) = $3)
		LIMIT 1
	`, date, int(date.Month()), date.Day())
	return scanHoliday(row)
}

func (r *PgRepository) HolidaysForYear(ctx context.Context, year int) ([]Holiday, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, date, is_recurring
		FROM holidays
		WHERE EXTRACT(YEAR FROM date) = $1 OR is_recurring
		ORDER BY EXTRACT(MONTH FROM date), EXTRACT(DAY FROM date)
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Holiday
	seen := make(map[string]bool)
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		key := h.Date.Format("01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, *h)
	}
	return result, rows.Err()
}

func (r *PgRepository) ActiveBookings(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]BookedInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, p.name, a.start_time, a.end_time
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.clinician_id = $1
		  AND a.date = $2
		  AND a.status NOT IN ('CANCELLED', 'NO_SHOW')
	`, clinicianID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BookedInterval
	for rows.Next() {
		var b BookedInterval
		var start, end string
		if err := rows.Scan(&b.AppointmentID, &b.PatientName, &start, &end); err != nil {
			return nil, err
		}
		if b.Start, err = timeofday.Parse(start); err != nil {
			return nil, fmt.Errorf("appointment %s start: %w", b.AppointmentID, err)
		}
		if b.End, err = timeofday.Parse(end); err != nil {
			return nil, fmt.Errorf("appointment %s end: %w", b.AppointmentID, err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *PgRepository) HasFutureAppointments(ctx context.Context, clinicianID uuid.UUID, dayOfWeek int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE clinician_id = $1
			  AND date >= CURRENT_DATE
			  AND EXTRACT(DOW FROM date) = $2
			  AND status NOT IN ('COMPLETED', 'CANCELLED', 'NO_SHOW')
		)
	`, clinicianID, dayOfWeek).Scan(&exists)
	return exists, err
}
