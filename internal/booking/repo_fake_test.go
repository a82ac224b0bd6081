package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	redisclient "github.com/medicare-gh/clinic-scheduling/internal/redis"
	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

// fakeRepo is an in-memory Repository. It mirrors the Postgres repository's
// semantics closely enough for service tests: half-open overlap checks,
// conditional status updates, and combined check-in plus queue insert.
type fakeRepo struct {
	appointments map[uuid.UUID]*Appointment
	patients     map[uuid.UUID]*Patient
	entries      []*queue.Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		patients:     make(map[uuid.UUID]*Patient),
	}
}

func (f *fakeRepo) addPatient(name, phone string) uuid.UUID {
	p := &Patient{ID: uuid.New(), Name: name}
	if phone != "" {
		p.Phone = &phone
	}
	f.patients[p.ID] = p
	return p.ID
}

func (f *fakeRepo) hasConflict(clinicianID uuid.UUID, date time.Time, start, end timeofday.Minutes, exclude uuid.UUID) bool {
	for _, a := range f.appointments {
		if a.ID == exclude || a.ClinicianID != clinicianID || !a.Date.Equal(date) {
			continue
		}
		if !a.Status.Active() {
			continue
		}
		if timeofday.Overlap(start, end, a.StartTime, a.EndTime) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) insert(p CreateParams, status Status) *Appointment {
	a := &Appointment{
		ID:              uuid.New(),
		ClinicianID:     p.ClinicianID,
		PatientID:       p.PatientID,
		BranchID:        p.BranchID,
		Date:            p.Date,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		DurationMinutes: int(p.EndTime - p.StartTime),
		Status:          status,
		Channel:         p.Channel,
		IsWalkIn:        p.IsWalkIn,
		ChiefComplaint:  p.ChiefComplaint,
		Notes:           p.Notes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.appointments[a.ID] = a
	return a
}

func (f *fakeRepo) CreateAppointment(_ context.Context, p CreateParams) (*Appointment, error) {
	if !p.IsWalkIn && f.hasConflict(p.ClinicianID, p.Date, p.StartTime, p.EndTime, uuid.Nil) {
		return nil, ErrAppointmentConflict
	}
	return f.insert(p, StatusScheduled), nil
}

func (f *fakeRepo) UpdateTimes(_ context.Context, id uuid.UUID, date time.Time, start, end timeofday.Minutes) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if f.hasConflict(a.ClinicianID, date, start, end, id) {
		return nil, ErrAppointmentConflict
	}
	a.Date = date
	a.StartTime = start
	a.EndTime = end
	a.DurationMinutes = int(end - start)
	return a, nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeRepo) ListByClinicianDate(_ context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.ClinicianID == clinicianID && a.Date.Equal(date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByPatient(_ context.Context, patientID uuid.UUID, upcoming bool) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, from []Status, to Status) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	for _, s := range from {
		if a.Status == s {
			a.Status = to
			now := time.Now()
			switch to {
			case StatusCheckedIn:
				a.CheckedInAt = &now
			case StatusInProgress:
				a.StartedAt = &now
			case StatusCompleted:
				a.CompletedAt = &now
			}
			return a, nil
		}
	}
	return nil, ErrInvalidStatus
}

func (f *fakeRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := f.UpdateStatus(ctx, id, []Status{StatusScheduled, StatusConfirmed, StatusCheckedIn}, StatusCancelled)
	if err != nil {
		return nil, err
	}
	a.CancelReason = &reason
	now := time.Now()
	a.CancelledAt = &now
	return a, nil
}

func (f *fakeRepo) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return f.UpdateStatus(ctx, id, []Status{StatusCheckedIn}, StatusNoShow)
}

func (f *fakeRepo) addQueueEntry(branchID, patientID, clinicianID uuid.UUID, appointmentID *uuid.UUID, prefix string, priority queue.Priority) *queue.Entry {
	seq := 0
	waiting := 0
	for _, e := range f.entries {
		if e.BranchID != branchID {
			continue
		}
		if e.QueueNumber[:1] == prefix {
			seq++
		}
		if e.Status == queue.StatusWaiting {
			waiting++
		}
	}
	e := &queue.Entry{
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
		CheckedInAt:   time.Now(),
	}
	f.entries = append(f.entries, e)
	return e
}

func (f *fakeRepo) CheckIn(ctx context.Context, id uuid.UUID, priority queue.Priority) (*Appointment, *queue.Entry, error) {
	a, err := f.UpdateStatus(ctx, id, []Status{StatusScheduled, StatusConfirmed}, StatusCheckedIn)
	if err != nil {
		return nil, nil, err
	}
	entry := f.addQueueEntry(a.BranchID, a.PatientID, a.ClinicianID, &a.ID, "Q", priority)
	return a, entry, nil
}

func (f *fakeRepo) CreateWalkIn(_ context.Context, p CreateParams, priority queue.Priority) (*Appointment, *queue.Entry, error) {
	for _, e := range f.entries {
		if e.BranchID == p.BranchID && e.PatientID == p.PatientID && e.Status == queue.StatusWaiting {
			return nil, nil, ErrAlreadyQueued
		}
	}
	a := f.insert(p, StatusCheckedIn)
	entry := f.addQueueEntry(p.BranchID, p.PatientID, p.ClinicianID, &a.ID, "W", priority)
	return a, entry, nil
}

func (f *fakeRepo) Complete(ctx context.Context, id uuid.UUID, actualMinutes int) (*Appointment, error) {
	a, err := f.UpdateStatus(ctx, id, []Status{StatusCheckedIn, StatusInProgress}, StatusCompleted)
	if err != nil {
		return nil, err
	}
	a.ActualMinutes = &actualMinutes
	for _, e := range f.entries {
		if e.AppointmentID != nil && *e.AppointmentID == id {
			e.Status = queue.StatusCompleted
		}
	}
	return a, nil
}

func (f *fakeRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (f *fakeRepo) CreatePatient(_ context.Context, name string, phone, email *string) (*Patient, error) {
	p := &Patient{ID: uuid.New(), Name: name, Phone: phone, Email: email}
	f.patients[p.ID] = p
	return p, nil
}

// fakeLocker runs the callback inline. Set held to simulate a contended lock.
type fakeLocker struct {
	held bool
}

func (l *fakeLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return l.run(ctx, fn)
}

func (l *fakeLocker) WithBranchLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return l.run(ctx, fn)
}

func (l *fakeLocker) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.held {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

type fakeMessenger struct {
	sent []string
}

func (m *fakeMessenger) Send(_ context.Context, _, text string) (string, error) {
	m.sent = append(m.sent, text)
	return "fake-msg-id", nil
}
