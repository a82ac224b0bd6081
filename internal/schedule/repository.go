package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClinicianNotFound = errors.New("clinician not found")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrExceptionNotFound = errors.New("schedule exception not found")
	ErrHolidayNotFound   = errors.New("holiday not found")
)

// Repository contains all DB interactions needed by the schedule service.
type Repository interface {
	GetClinicianByID(ctx context.Context, id uuid.UUID) (*Clinician, error)
	ListActiveClinicians(ctx context.Context) ([]Clinician, error)

	// Weekly templates
	CreateTemplate(ctx context.Context, t *WeeklyTemplate) (*WeeklyTemplate, error)
	CreateTemplates(ctx context.Context, ts []WeeklyTemplate) error
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*WeeklyTemplate, error)
	TemplateForDay(ctx context.Context, clinicianID uuid.UUID, dayOfWeek int) (*WeeklyTemplate, error)
	ActiveTemplateForDay(ctx context.Context, clinicianID uuid.UUID, dayOfWeek int) (*WeeklyTemplate, error)
	TemplatesByClinician(ctx context.Context, clinicianID uuid.UUID) ([]WeeklyTemplate, error)
	UpdateTemplate(ctx context.Context, t *WeeklyTemplate) (*WeeklyTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	DeleteTemplatesByClinician(ctx context.Context, clinicianID uuid.UUID) error

	// Exceptions
	UpsertException(ctx context.Context, e *Exception) (*Exception, error)
	GetExceptionByID(ctx context.Context, id uuid.UUID) (*Exception, error)
	ExceptionForDate(ctx context.Context, clinicianID uuid.UUID, date time.Time) (*Exception, error)
	ExceptionsByClinician(ctx context.Context, clinicianID uuid.UUID, from, to *time.Time) ([]Exception, error)
	DeleteException(ctx context.Context, id uuid.UUID) error

	// Holidays
	UpsertHoliday(ctx context.Context, h *Holiday) error
	HolidayForDate(ctx context.Context, date time.Time) (*Holiday, error)
	HolidaysForYear(ctx context.Context, year int) ([]Holiday, error)

	// For slot generation and template retirement checks
	ActiveBookings(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]BookedInterval, error)
	HasFutureAppointments(ctx context.Context, clinicianID uuid.UUID, dayOfWeek int) (bool, error)
}
