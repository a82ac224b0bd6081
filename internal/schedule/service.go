package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

var (
	ErrScheduleExists    = errors.New("schedule already exists for this day")
	ErrInvalidAllocation = errors.New("allocation percentages must sum to 100")
	ErrInvalidHours      = errors.New("invalid working hours")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "schedule").Logger(),
	}
}

type CreateTemplateInput struct {
	ClinicianID uuid.UUID
	DayOfWeek   int
	StartTime   timeofday.Minutes
	EndTime     timeofday.Minutes
	SlotMinutes int
	Location    *string
	Allocation  *AllocationPolicy
}

type UpdateTemplateInput struct {
	StartTime   *timeofday.Minutes
	EndTime     *timeofday.Minutes
	SlotMinutes *int
	Location    *string
	Allocation  *AllocationPolicy
	IsActive    *bool
}

// CreateTemplate registers a clinician's recurring hours for one weekday.
// Fails if a template for that weekday already exists, active or not.
func (s *Service) CreateTemplate(ctx context.Context, in CreateTemplateInput) (*WeeklyTemplate, error) {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day of week %d", ErrInvalidHours, in.DayOfWeek)
	}
	if in.StartTime >= in.EndTime {
		return nil, fmt.Errorf("%w: start %s not before end %s", ErrInvalidHours, in.StartTime, in.EndTime)
	}

	slotMinutes := in.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if slotMinutes < 0 {
		return nil, fmt.Errorf("%w: slot duration %d", ErrInvalidHours, in.SlotMinutes)
	}

	alloc := DefaultAllocation
	if in.Allocation != nil {
		alloc = *in.Allocation
	}
	if !alloc.Valid() {
		return nil, ErrInvalidAllocation
	}

	if _, err := s.repo.GetClinicianByID(ctx, in.ClinicianID); err != nil {
		return nil, err
	}

	existing, err := s.repo.TemplateForDay(ctx, in.ClinicianID, in.DayOfWeek)
	if err != nil && !errors.Is(err, ErrScheduleNotFound) {
		return nil, fmt.Errorf("check existing template: %w", err)
	}
	if existing != nil {
		return nil, ErrScheduleExists
	}

	return s.repo.CreateTemplate(ctx, &WeeklyTemplate{
		ClinicianID: in.ClinicianID,
		DayOfWeek:   in.DayOfWeek,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		SlotMinutes: slotMinutes,
		Location:    in.Location,
		Allocation:  alloc,
	})
}

func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, in UpdateTemplateInput) (*WeeklyTemplate, error) {
	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.StartTime != nil {
		t.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		t.EndTime = *in.EndTime
	}
	if t.StartTime >= t.EndTime {
		return nil, fmt.Errorf("%w: start %s not before end %s", ErrInvalidHours, t.StartTime, t.EndTime)
	}
	if in.SlotMinutes != nil {
		if *in.SlotMinutes <= 0 {
			return nil, fmt.Errorf("%w: slot duration %d", ErrInvalidHours, *in.SlotMinutes)
		}
		t.SlotMinutes = *in.SlotMinutes
	}
	if in.Location != nil {
		t.Location = in.Location
	}
	if in.Allocation != nil {
		if !in.Allocation.Valid() {
			return nil, ErrInvalidAllocation
		}
		t.Allocation = *in.Allocation
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}

	return s.repo.UpdateTemplate(ctx, t)
}

// DeleteTemplate removes a weekly template. Templates still referenced by
// future bookings are soft-disabled instead of deleted so existing
// appointments keep their context.
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.repo.HasFutureAppointments(ctx, t.ClinicianID, t.DayOfWeek)
	if err != nil {
		return fmt.Errorf("check future appointments: %w", err)
	}
	if referenced {
		t.IsActive = false
		if _, err := s.repo.UpdateTemplate(ctx, t); err != nil {
			return err
		}
		s.log.Info().Str("template_id", id.String()).Msg("template soft-disabled, future bookings reference it")
		return nil
	}

	return s.repo.DeleteTemplate(ctx, id)
}

func (s *Service) TemplatesByClinician(ctx context.Context, clinicianID uuid.UUID) ([]WeeklyTemplate, error) {
	if _, err := s.repo.GetClinicianByID(ctx, clinicianID); err != nil {
		return nil, err
	}
	return s.repo.TemplatesByClinician(ctx, clinicianID)
}

type TemplateDay struct {
	DayOfWeek   int
	StartTime   timeofday.Minutes
	EndTime     timeofday.Minutes
	SlotMinutes int
	Location    *string
	Allocation  *AllocationPolicy
}

// ReplaceWeeklySchedule swaps a clinician's full week of templates in one
// operation.
func (s *Service) ReplaceWeeklySchedule(ctx context.Context, clinicianID uuid.UUID, days []TemplateDay) ([]WeeklyTemplate, error) {
	if _, err := s.repo.GetClinicianByID(ctx, clinicianID); err != nil {
		return nil, err
	}

	templates := make([]WeeklyTemplate, 0, len(days))
	seen := make(map[int]bool)
	for _, d := range days {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 || seen[d.DayOfWeek] {
			return nil, fmt.Errorf("%w: day of week %d", ErrInvalidHours, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
		if d.StartTime >= d.EndTime {
			return nil, fmt.Errorf("%w: start %s not before end %s", ErrInvalidHours, d.StartTime, d.EndTime)
		}

		slotMinutes := d.SlotMinutes
		if slotMinutes <= 0 {
			slotMinutes = DefaultSlotMinutes
		}
		alloc := DefaultAllocation
		if d.Allocation != nil {
			alloc = *d.Allocation
		}
		if !alloc.Valid() {
			return nil, ErrInvalidAllocation
		}

		templates = append(templates, WeeklyTemplate{
			ClinicianID: clinicianID,
			DayOfWeek:   d.DayOfWeek,
			StartTime:   d.StartTime,
			EndTime:     d.EndTime,
			SlotMinutes: slotMinutes,
			Location:    d.Location,
			Allocation:  alloc,
		})
	}

	if err := s.repo.DeleteTemplatesByClinician(ctx, clinicianID); err != nil {
		return nil, fmt.Errorf("clear existing templates: %w", err)
	}
	if err := s.repo.CreateTemplates(ctx, templates); err != nil {
		return nil, fmt.Errorf("create templates: %w", err)
	}

	return s.repo.TemplatesByClinician(ctx, clinicianID)
}

type ExceptionInput struct {
	ClinicianID uuid.UUID
	Date        time.Time
	Type        ExceptionType
	IsAvailable bool
	CustomStart *timeofday.Minutes
	CustomEnd   *timeofday.Minutes
	Reason      *string
}

// UpsertException records a date-specific override. Writing a second
// exception for the same date updates the first.
func (s *Service) UpsertException(ctx context.Context, in ExceptionInput) (*Exception, error) {
	if _, err := s.repo.GetClinicianByID(ctx, in.ClinicianID); err != nil {
		return nil, err
	}
	if (in.CustomStart == nil) != (in.CustomEnd == nil) {
		return nil, fmt.Errorf("%w: custom hours need both start and end", ErrInvalidHours)
	}
	if in.CustomStart != nil && *in.CustomStart >= *in.CustomEnd {
		return nil, fmt.Errorf("%w: custom start %s not before end %s", ErrInvalidHours, *in.CustomStart, *in.CustomEnd)
	}

	return s.repo.UpsertException(ctx, &Exception{
		ClinicianID: in.ClinicianID,
		Date:        DateOnly(in.Date),
		Type:        in.Type,
		IsAvailable: in.IsAvailable,
		CustomStart: in.CustomStart,
		CustomEnd:   in.CustomEnd,
		Reason:      in.Reason,
	})
}

func (s *Service) BulkUpsertExceptions(ctx context.Context, ins []ExceptionInput) ([]Exception, error) {
	result := make([]Exception, 0, len(ins))
	for _, in := range ins {
		e, err := s.UpsertException(ctx, in)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, nil
}

func (s *Service) DeleteException(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteException(ctx, id)
}

func (s *Service) ExceptionsByClinician(ctx context.Context, clinicianID uuid.UUID, from, to *time.Time) ([]Exception, error) {
	return s.repo.ExceptionsByClinician(ctx, clinicianID, from, to)
}

// SeedHolidays loads the built-in holiday table for a year into storage so
// facility staff can adjust the movable dates afterwards.
func (s *Service) SeedHolidays(ctx context.Context, year int) ([]Holiday, error) {
	for _, h := range BuiltinHolidays(year) {
		holiday := h
		if err := s.repo.UpsertHoliday(ctx, &holiday); err != nil {
			return nil, err
		}
	}
	return s.repo.HolidaysForYear(ctx, year)
}

func (s *Service) Holidays(ctx context.Context, year int) ([]Holiday, error) {
	return s.repo.HolidaysForYear(ctx, year)
}

// Availability fetches the three sources and resolves them. No side effects.
func (s *Service) Availability(ctx context.Context, clinicianID uuid.UUID, date time.Time) (Availability, error) {
	if _, err := s.repo.GetClinicianByID(ctx, clinicianID); err != nil {
		return Availability{}, err
	}

	date = DateOnly(date)

	holiday := MatchHoliday(date, BuiltinHolidays(date.Year()))
	if holiday == nil {
		stored, err := s.repo.HolidayForDate(ctx, date)
		if err != nil && !errors.Is(err, ErrHolidayNotFound) {
			return Availability{}, fmt.Errorf("load holiday: %w", err)
		}
		holiday = stored
	}

	exc, err := s.repo.ExceptionForDate(ctx, clinicianID, date)
	if err != nil && !errors.Is(err, ErrExceptionNotFound) {
		return Availability{}, fmt.Errorf("load exception: %w", err)
	}

	tmpl, err := s.repo.ActiveTemplateForDay(ctx, clinicianID, int(date.Weekday()))
	if err != nil && !errors.Is(err, ErrScheduleNotFound) {
		return Availability{}, fmt.Errorf("load template: %w", err)
	}

	return ResolveAvailability(holiday, exc, tmpl), nil
}

func (s *Service) IsWorkingDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) (bool, error) {
	avail, err := s.Availability(ctx, clinicianID, date)
	if err != nil {
		return false, err
	}
	return avail.IsAvailable, nil
}

type ClinicianAvailability struct {
	Clinician    Clinician
	Availability Availability
}

// AvailableClinicians lists every active clinician who is working on date.
func (s *Service) AvailableClinicians(ctx context.Context, date time.Time) ([]ClinicianAvailability, error) {
	clinicians, err := s.repo.ListActiveClinicians(ctx)
	if err != nil {
		return nil, err
	}

	var result []ClinicianAvailability
	for _, c := range clinicians {
		avail, err := s.Availability(ctx, c.ID, date)
		if err != nil {
			return nil, err
		}
		if avail.IsAvailable {
			result = append(result, ClinicianAvailability{Clinician: c, Availability: avail})
		}
	}
	return result, nil
}

type DaySlots struct {
	Date         time.Time
	ClinicianID  uuid.UUID
	IsAvailable  bool
	WorkingHours *WorkingHours
	TotalMinutes int
	Allocation   AllocationPolicy
	Slots        []TimeSlot
}

// SlotsForDay resolves availability and generates the day's typed slot grid
// cross-referenced against active bookings.
func (s *Service) SlotsForDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) (*DaySlots, error) {
	date = DateOnly(date)

	avail, err := s.Availability(ctx, clinicianID, date)
	if err != nil {
		return nil, err
	}

	out := &DaySlots{
		Date:        date,
		ClinicianID: clinicianID,
		IsAvailable: avail.IsAvailable,
		Allocation:  DefaultAllocation,
	}
	if !avail.IsAvailable {
		return out, nil
	}

	if avail.Allocation != nil {
		out.Allocation = *avail.Allocation
	}
	out.WorkingHours = avail.WorkingHours
	out.TotalMinutes = int(avail.WorkingHours.End) - int(avail.WorkingHours.Start)

	booked, err := s.repo.ActiveBookings(ctx, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	out.Slots = GenerateSlots(*avail.WorkingHours, out.Allocation, booked)
	return out, nil
}

// DateOnly truncates to facility-local midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
