package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, zerolog.Nop())
}

func baseTemplateInput(clinicianID uuid.UUID) CreateTemplateInput {
	return CreateTemplateInput{
		ClinicianID: clinicianID,
		DayOfWeek:   1,
		StartTime:   timeofday.MustParse("08:00"),
		EndTime:     timeofday.MustParse("17:00"),
		SlotMinutes: 30,
	}
}

func TestCreateTemplateDuplicateDay(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	in := baseTemplateInput(clinicianID)
	if _, err := svc.CreateTemplate(context.Background(), in); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateTemplate(context.Background(), in)
	if !errors.Is(err, ErrScheduleExists) {
		t.Fatalf("duplicate create err = %v, want ErrScheduleExists", err)
	}
}

func TestCreateTemplateInvalidAllocation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	in := baseTemplateInput(clinicianID)
	in.Allocation = &AllocationPolicy{AppointmentPercent: 70, WalkInPercent: 20, EmergencyPercent: 20}

	_, err := svc.CreateTemplate(context.Background(), in)
	if !errors.Is(err, ErrInvalidAllocation) {
		t.Fatalf("err = %v, want ErrInvalidAllocation", err)
	}
}

func TestCreateTemplateUnknownClinician(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	in := baseTemplateInput(uuid.New())
	_, err := svc.CreateTemplate(context.Background(), in)
	if !errors.Is(err, ErrClinicianNotFound) {
		t.Fatalf("err = %v, want ErrClinicianNotFound", err)
	}
}

func TestAvailabilityHolidayPrecedence(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	// Christmas 2025 falls on a Thursday (weekday 4).
	christmas := time.Date(2025, time.December, 25, 0, 0, 0, 0, time.Local)

	in := baseTemplateInput(clinicianID)
	in.DayOfWeek = int(christmas.Weekday())
	if _, err := svc.CreateTemplate(context.Background(), in); err != nil {
		t.Fatalf("create template: %v", err)
	}

	// Even an exception claiming availability cannot reopen a holiday.
	start := timeofday.MustParse("09:00")
	end := timeofday.MustParse("12:00")
	_, err := svc.UpsertException(context.Background(), ExceptionInput{
		ClinicianID: clinicianID,
		Date:        christmas,
		Type:        ExceptionHalfDay,
		IsAvailable: true,
		CustomStart: &start,
		CustomEnd:   &end,
	})
	if err != nil {
		t.Fatalf("upsert exception: %v", err)
	}

	avail, err := svc.Availability(context.Background(), clinicianID, christmas)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if avail.IsAvailable {
		t.Fatal("holiday must override an available exception")
	}
	if !avail.IsHoliday || avail.HolidayName != "Christmas Day" {
		t.Errorf("verdict = %+v", avail)
	}
}

func TestAvailabilityTemplateDay(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	// A plain Monday with no holiday or exception.
	monday := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.Local)
	in := baseTemplateInput(clinicianID)
	in.DayOfWeek = int(monday.Weekday())
	if _, err := svc.CreateTemplate(context.Background(), in); err != nil {
		t.Fatalf("create template: %v", err)
	}

	avail, err := svc.Availability(context.Background(), clinicianID, monday)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if !avail.IsAvailable || avail.WorkingHours == nil {
		t.Fatalf("verdict = %+v, want available with hours", avail)
	}
	if avail.WorkingHours.Start.String() != "08:00" {
		t.Errorf("start = %s", avail.WorkingHours.Start)
	}
}

func TestUpsertExceptionUpdatesExisting(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	date := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)

	first, err := svc.UpsertException(context.Background(), ExceptionInput{
		ClinicianID: clinicianID,
		Date:        date,
		Type:        ExceptionLeave,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := svc.UpsertException(context.Background(), ExceptionInput{
		ClinicianID: clinicianID,
		Date:        date,
		Type:        ExceptionConference,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Fatal("second write for the same date must update the existing row")
	}
	if second.Type != ExceptionConference {
		t.Errorf("type = %s, want CONFERENCE", second.Type)
	}
}

func TestDeleteTemplateSoftDisablesWhenReferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	tmpl, err := svc.CreateTemplate(context.Background(), baseTemplateInput(clinicianID))
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	repo.futureAppt[clinicianID] = map[int]bool{tmpl.DayOfWeek: true}

	if err := svc.DeleteTemplate(context.Background(), tmpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	kept, err := repo.GetTemplateByID(context.Background(), tmpl.ID)
	if err != nil {
		t.Fatal("referenced template must not be deleted")
	}
	if kept.IsActive {
		t.Fatal("referenced template must be soft-disabled")
	}
}

func TestDeleteTemplateRemovesWhenUnreferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	tmpl, err := svc.CreateTemplate(context.Background(), baseTemplateInput(clinicianID))
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	if err := svc.DeleteTemplate(context.Background(), tmpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTemplateByID(context.Background(), tmpl.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatal("unreferenced template must be deleted")
	}
}

func TestSlotsForDayUnavailable(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	clinicianID := repo.addClinician()

	// No template for this weekday at all.
	day := time.Date(2025, time.February, 11, 0, 0, 0, 0, time.Local)
	got, err := svc.SlotsForDay(context.Background(), clinicianID, day)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if got.IsAvailable || len(got.Slots) != 0 {
		t.Fatalf("expected empty unavailable day, got %+v", got)
	}
}
