package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSchedulerRunsSweepsOnTrigger(t *testing.T) {
	repo := newFakeRepo()
	m := &flakyMessenger{}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clinicianID := uuid.New()

	// One appointment a day out, one two hours out. The startup pass sends
	// the 24h reminder and the 2h reminder in a single sweep cycle.
	repo.add(clinicianID, base.Add(24*time.Hour), "0244111111")
	repo.add(clinicianID, base.Add(2*time.Hour), "0244222222")

	trigger := make(chan time.Time)
	sched := NewScheduler(newTestService(repo, m), time.Hour, zerolog.Nop())
	sched.now = func() time.Time { return base }
	sched.trigger = trigger

	sched.Start(context.Background())

	// The ticker fires an hour later; flags keep both patients at one
	// message each.
	trigger <- base.Add(time.Hour)
	sched.Stop()

	if len(m.sent) != 2 {
		t.Fatalf("sent %d messages across two sweep cycles, want 2", len(m.sent))
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	sched := NewScheduler(newTestService(newFakeRepo(), &flakyMessenger{}), time.Hour, zerolog.Nop())
	sched.Start(context.Background())
	sched.Stop()
	sched.Stop()
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := NewScheduler(newTestService(newFakeRepo(), &flakyMessenger{}), time.Hour, zerolog.Nop())
	sched.Start(ctx)
	cancel()

	select {
	case <-sched.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}
