package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

// fakeRepo holds appointments in memory and applies the same window and
// flag filters as the SQL repository.
type fakeRepo struct {
	appts map[uuid.UUID]*fakeAppt
	logs  []Log
}

type fakeAppt struct {
	due         DueAppointment
	clinicianID uuid.UUID
	startAt     time.Time
	sent24h     bool
	sent2h      bool
	finished    bool
	walkIn      bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appts: make(map[uuid.UUID]*fakeAppt)}
}

func (f *fakeRepo) add(clinicianID uuid.UUID, startAt time.Time, phone string) uuid.UUID {
	id := uuid.New()
	d := DueAppointment{
		AppointmentID: id,
		PatientID:     uuid.New(),
		PatientName:   "Akosua Boateng",
		ClinicianName: "Owusu",
		Date:          time.Date(startAt.Year(), startAt.Month(), startAt.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:     timeofday.Minutes(startAt.Hour()*60 + startAt.Minute()),
	}
	if phone != "" {
		d.PatientPhone = &phone
	}
	f.appts[id] = &fakeAppt{due: d, clinicianID: clinicianID, startAt: startAt}
	return id
}

func (f *fakeRepo) Due24h(_ context.Context, from, to time.Time) ([]DueAppointment, error) {
	return f.due(from, to, func(a *fakeAppt) bool { return !a.sent24h }), nil
}

func (f *fakeRepo) Due2h(_ context.Context, from, to time.Time) ([]DueAppointment, error) {
	return f.due(from, to, func(a *fakeAppt) bool { return !a.sent2h }), nil
}

func (f *fakeRepo) due(from, to time.Time, unsent func(*fakeAppt) bool) []DueAppointment {
	var out []DueAppointment
	for _, a := range f.appts {
		if a.finished || a.walkIn || !unsent(a) {
			continue
		}
		if !a.startAt.Before(from) && a.startAt.Before(to) {
			out = append(out, a.due)
		}
	}
	return out
}

func (f *fakeRepo) RemainingForClinicianDay(_ context.Context, clinicianID uuid.UUID, _ time.Time) ([]DueAppointment, error) {
	var out []DueAppointment
	for _, a := range f.appts {
		if a.clinicianID == clinicianID && !a.finished {
			out = append(out, a.due)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkReminder24hSent(_ context.Context, id uuid.UUID) error {
	f.appts[id].sent24h = true
	return nil
}

func (f *fakeRepo) MarkReminder2hSent(_ context.Context, id uuid.UUID) error {
	f.appts[id].sent2h = true
	return nil
}

func (f *fakeRepo) InsertLog(_ context.Context, l Log) error {
	f.logs = append(f.logs, l)
	return nil
}

// flakyMessenger fails sends to the phones listed in failFor.
type flakyMessenger struct {
	failFor map[string]bool
	sent    []string
}

func (m *flakyMessenger) Send(_ context.Context, to, text string) (string, error) {
	if m.failFor[to] {
		return "", errors.New("gateway timeout")
	}
	m.sent = append(m.sent, text)
	return "msg-" + to, nil
}

func newTestService(repo *fakeRepo, m *flakyMessenger) *Service {
	return NewService(repo, m, zerolog.Nop())
}

func TestRun24hSweepWindow(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clinicianID := uuid.New()

	inWindow := repo.add(clinicianID, now.Add(24*time.Hour), "0244111111")
	repo.add(clinicianID, now.Add(6*time.Hour), "0244222222")  // too soon
	repo.add(clinicianID, now.Add(48*time.Hour), "0244333333") // too far

	res, err := newTestService(repo, m).Run24hSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Sent != 1 || res.Eligible != 1 {
		t.Fatalf("sent %d of %d eligible, want 1 of 1", res.Sent, res.Eligible)
	}
	if !repo.appts[inWindow].sent24h {
		t.Error("24h flag not set after send")
	}
	if repo.appts[inWindow].sent2h {
		t.Error("24h sweep must not set the 2h flag")
	}
}

func TestSweepExcludesWalkIns(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clinicianID := uuid.New()

	// Walk-ins are already on site; reminding them would be noise.
	id := repo.add(clinicianID, now.Add(24*time.Hour), "0244111111")
	repo.appts[id].walkIn = true

	res, err := newTestService(repo, m).Run24hSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Eligible != 0 || len(m.sent) != 0 {
		t.Fatalf("walk-in swept: %d eligible, %d sent, want none", res.Eligible, len(m.sent))
	}
}

func TestSweepIdempotence(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.add(uuid.New(), now.Add(24*time.Hour), "0244111111")

	svc := newTestService(repo, m)
	ctx := context.Background()

	first, _ := svc.Run24hSweep(ctx, now)
	second, _ := svc.Run24hSweep(ctx, now)
	// And again an hour later, while the window still covers it.
	third, _ := svc.Run24hSweep(ctx, now.Add(time.Hour))

	if first.Sent != 1 {
		t.Fatalf("first sweep sent %d, want 1", first.Sent)
	}
	if second.Sent != 0 || third.Sent != 0 {
		t.Errorf("repeat sweeps sent %d and %d, want 0 and 0", second.Sent, third.Sent)
	}
	if len(m.sent) != 1 {
		t.Errorf("patient received %d messages, want 1", len(m.sent))
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{failFor: map[string]bool{"233244111111": true}}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clinicianID := uuid.New()

	failing := repo.add(clinicianID, now.Add(24*time.Hour), "0244111111")
	repo.add(clinicianID, now.Add(24*time.Hour), "0244222222")

	svc := newTestService(repo, m)
	res, err := svc.Run24hSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Sent != 1 || res.Failed != 1 {
		t.Fatalf("sent=%d failed=%d, want 1 and 1", res.Sent, res.Failed)
	}
	if repo.appts[failing].sent24h {
		t.Error("failed send must leave the flag unset for retry")
	}

	// Gateway recovers; the next sweep picks up only the failed one.
	m.failFor = nil
	res, _ = svc.Run24hSweep(context.Background(), now.Add(time.Hour))
	if res.Sent != 1 {
		t.Errorf("retry sweep sent %d, want 1", res.Sent)
	}
}

func TestSweepSkipsMissingPhone(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.add(uuid.New(), now.Add(2*time.Hour), "")

	res, err := newTestService(repo, m).Run2hSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Skipped != 1 || res.Sent != 0 {
		t.Errorf("skipped=%d sent=%d, want 1 and 0", res.Skipped, res.Sent)
	}
}

func TestSweepLogsDeliveries(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{failFor: map[string]bool{"233244111111": true}}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clinicianID := uuid.New()

	repo.add(clinicianID, now.Add(2*time.Hour), "0244111111")
	repo.add(clinicianID, now.Add(2*time.Hour), "0244222222")

	if _, err := newTestService(repo, m).Run2hSweep(context.Background(), now); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(repo.logs) != 2 {
		t.Fatalf("got %d log rows, want 2", len(repo.logs))
	}
	var sentRows, failRows int
	for _, l := range repo.logs {
		if l.Type != Type2h {
			t.Errorf("log type = %s, want 2h", l.Type)
		}
		if l.Sent {
			sentRows++
			if l.MessageID == nil {
				t.Error("successful log missing message id")
			}
		} else {
			failRows++
			if l.Error == nil {
				t.Error("failed log missing error")
			}
		}
	}
	if sentRows != 1 || failRows != 1 {
		t.Errorf("sent rows=%d fail rows=%d, want 1 and 1", sentRows, failRows)
	}
}

func TestLogNoShowWritesAuditRow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &flakyMessenger{})
	appointmentID, patientID := uuid.New(), uuid.New()

	svc.LogNoShow(context.Background(), appointmentID, patientID, "233244123456", "msg-1", nil)
	svc.LogNoShow(context.Background(), appointmentID, patientID, "233244123456", "", errors.New("gateway timeout"))

	if len(repo.logs) != 2 {
		t.Fatalf("got %d log rows, want 2", len(repo.logs))
	}
	ok, failed := repo.logs[0], repo.logs[1]
	if ok.Type != TypeNoShow || !ok.Sent || ok.MessageID == nil || *ok.MessageID != "msg-1" {
		t.Errorf("delivered row = %+v, want no_show with message id", ok)
	}
	if failed.Sent || failed.Error == nil || !strings.Contains(*failed.Error, "gateway timeout") {
		t.Errorf("failed row = %+v, want unsent with error", failed)
	}
}

func TestNotifyRunningLate(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clinicianID := uuid.New()
	repo.add(clinicianID, now.Add(time.Hour), "0244111111")

	res, err := newTestService(repo, m).NotifyRunningLate(context.Background(), clinicianID, now, 30)
	if err != nil {
		t.Fatalf("notify running late: %v", err)
	}
	if res.Sent != 1 {
		t.Fatalf("sent %d, want 1", res.Sent)
	}
	// 10:00 start pushed by 30 minutes.
	if len(m.sent) == 0 || !strings.Contains(m.sent[0], "10:30") {
		t.Errorf("message %q does not mention new time 10:30", m.sent[0])
	}
}
