package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	clinicians map[uuid.UUID]Clinician
	templates  map[uuid.UUID]WeeklyTemplate
	exceptions map[uuid.UUID]Exception
	holidays   map[string]Holiday // keyed by date string
	bookings   map[string][]BookedInterval
	futureAppt map[uuid.UUID]map[int]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clinicians: make(map[uuid.UUID]Clinician),
		templates:  make(map[uuid.UUID]WeeklyTemplate),
		exceptions: make(map[uuid.UUID]Exception),
		holidays:   make(map[string]Holiday),
		bookings:   make(map[string][]BookedInterval),
		futureAppt: make(map[uuid.UUID]map[int]bool),
	}
}

func (f *fakeRepo) addClinician() uuid.UUID {
	id := uuid.New()
	f.clinicians[id] = Clinician{ID: id, Name: "Dr. Test", IsActive: true}
	return id
}

func (f *fakeRepo) GetClinicianByID(_ context.Context, id uuid.UUID) (*Clinician, error) {
	c, ok := f.clinicians[id]
	if !ok {
		return nil, ErrClinicianNotFound
	}
	return &c, nil
}

func (f *fakeRepo) ListActiveClinicians(_ context.Context) ([]Clinician, error) {
	var out []Clinician
	for _, c := range f.clinicians {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateTemplate(_ context.Context, t *WeeklyTemplate) (*WeeklyTemplate, error) {
	cp := *t
	cp.ID = uuid.New()
	cp.IsActive = true
	f.templates[cp.ID] = cp
	return &cp, nil
}

func (f *fakeRepo) CreateTemplates(ctx context.Context, ts []WeeklyTemplate) error {
	for i := range ts {
		if _, err := f.CreateTemplate(ctx, &ts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRepo) GetTemplateByID(_ context.Context, id uuid.UUID) (*WeeklyTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return &t, nil
}

func (f *fakeRepo) TemplateForDay(_ context.Context, clinicianID uuid.UUID, day int) (*WeeklyTemplate, error) {
	for _, t := range f.templates {
		if t.ClinicianID == clinicianID && t.DayOfWeek == day {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrScheduleNotFound
}

func (f *fakeRepo) ActiveTemplateForDay(ctx context.Context, clinicianID uuid.UUID, day int) (*WeeklyTemplate, error) {
	t, err := f.TemplateForDay(ctx, clinicianID, day)
	if err != nil || !t.IsActive {
		return nil, ErrScheduleNotFound
	}
	return t, nil
}

func (f *fakeRepo) TemplatesByClinician(_ context.Context, clinicianID uuid.UUID) ([]WeeklyTemplate, error) {
	var out []WeeklyTemplate
	for _, t := range f.templates {
		if t.ClinicianID == clinicianID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateTemplate(_ context.Context, t *WeeklyTemplate) (*WeeklyTemplate, error) {
	if _, ok := f.templates[t.ID]; !ok {
		return nil, ErrScheduleNotFound
	}
	f.templates[t.ID] = *t
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	if _, ok := f.templates[id]; !ok {
		return ErrScheduleNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeRepo) DeleteTemplatesByClinician(_ context.Context, clinicianID uuid.UUID) error {
	for id, t := range f.templates {
		if t.ClinicianID == clinicianID {
			delete(f.templates, id)
		}
	}
	return nil
}

func (f *fakeRepo) UpsertException(_ context.Context, e *Exception) (*Exception, error) {
	for id, existing := range f.exceptions {
		if existing.ClinicianID == e.ClinicianID && existing.Date.Equal(e.Date) {
			cp := *e
			cp.ID = id
			f.exceptions[id] = cp
			return &cp, nil
		}
	}
	cp := *e
	cp.ID = uuid.New()
	f.exceptions[cp.ID] = cp
	return &cp, nil
}

func (f *fakeRepo) GetExceptionByID(_ context.Context, id uuid.UUID) (*Exception, error) {
	e, ok := f.exceptions[id]
	if !ok {
		return nil, ErrExceptionNotFound
	}
	return &e, nil
}

func (f *fakeRepo) ExceptionForDate(_ context.Context, clinicianID uuid.UUID, date time.Time) (*Exception, error) {
	for _, e := range f.exceptions {
		if e.ClinicianID == clinicianID && e.Date.Equal(date) {
			cp := e
			return &cp, nil
		}
	}
	return nil, ErrExceptionNotFound
}

func (f *fakeRepo) ExceptionsByClinician(_ context.Context, clinicianID uuid.UUID, from, to *time.Time) ([]Exception, error) {
	var out []Exception
	for _, e := range f.exceptions {
		if e.ClinicianID != clinicianID {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRepo) DeleteException(_ context.Context, id uuid.UUID) error {
	if _, ok := f.exceptions[id]; !ok {
		return ErrExceptionNotFound
	}
	delete(f.exceptions, id)
	return nil
}

func (f *fakeRepo) UpsertHoliday(_ context.Context, h *Holiday) error {
	cp := *h
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	f.holidays[h.Date.Format("2006-01-02")] = cp
	return nil
}

func (f *fakeRepo) HolidayForDate(_ context.Context, date time.Time) (*Holiday, error) {
	if h, ok := f.holidays[date.Format("2006-01-02")]; ok {
		return &h, nil
	}
	for _, h := range f.holidays {
		if h.IsRecurring && h.Date.Month() == date.Month() && h.Date.Day() == date.Day() {
			cp := h
			return &cp, nil
		}
	}
	return nil, ErrHolidayNotFound
}

func (f *fakeRepo) HolidaysForYear(_ context.Context, year int) ([]Holiday, error) {
	var out []Holiday
	for _, h := range f.holidays {
		if h.Date.Year() == year || h.IsRecurring {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeRepo) ActiveBookings(_ context.Context, clinicianID uuid.UUID, date time.Time) ([]BookedInterval, error) {
	return f.bookings[clinicianID.String()+date.Format("2006-01-02")], nil
}

func (f *fakeRepo) HasFutureAppointments(_ context.Context, clinicianID uuid.UUID, day int) (bool, error) {
	return f.futureAppt[clinicianID][day], nil
}
