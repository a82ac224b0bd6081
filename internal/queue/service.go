package queue

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/notify"
)

// avgWindow is how far back completed consultations count toward the
// average used by wait estimates.
const avgWindow = 30 * 24 * time.Hour

// waitBufferPercent pads estimates so patients are rarely told a shorter
// wait than they actually get.
const waitBufferPercent = 15

type Service struct {
	repo      Repository
	messenger notify.Messenger
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, messenger notify.Messenger, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		messenger: messenger,
		log:       log.With().Str("component", "queue").Logger(),
		now:       time.Now,
	}
}

// EntryView is a queue entry decorated with its live wait estimate.
type EntryView struct {
	Entry
	Ahead            int
	EstimatedWaitMin int
}

// Snapshot returns today's queue for a branch ordered by call order, each
// entry carrying its estimated wait.
func (s *Service) Snapshot(ctx context.Context, branchID uuid.UUID) ([]EntryView, error) {
	entries, err := s.repo.EntriesForToday(ctx, branchID)
	if err != nil {
		return nil, err
	}

	views := make([]EntryView, 0, len(entries))
	ahead := 0
	for _, e := range entries {
		v := EntryView{Entry: e}
		if e.Status == StatusWaiting {
			avg, err := s.avgFor(ctx, e.ClinicianID)
			if err != nil {
				return nil, err
			}
			v.Ahead = ahead
			v.EstimatedWaitMin = estimateWait(ahead, avg)
			ahead++
		}
		views = append(views, v)
	}
	return views, nil
}

// EstimateWait returns the padded wait estimate in minutes for one entry.
func (s *Service) EstimateWait(ctx context.Context, entryID uuid.UUID) (int, error) {
	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if entry.Status != StatusWaiting {
		return 0, nil
	}
	ahead, err := s.repo.WaitingAhead(ctx, entry)
	if err != nil {
		return 0, err
	}
	avg, err := s.avgFor(ctx, entry.ClinicianID)
	if err != nil {
		return 0, err
	}
	return estimateWait(ahead, avg), nil
}

func (s *Service) avgFor(ctx context.Context, clinicianID uuid.UUID) (float64, error) {
	avg, ok, err := s.repo.AvgConsultMinutes(ctx, clinicianID, s.now().Add(-avgWindow))
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultConsultMinutes, nil
	}
	return avg, nil
}

// estimateWait multiplies the queue depth ahead of the patient by the
// average consultation length, then pads the result upward.
func estimateWait(ahead int, avgMinutes float64) int {
	base := int(math.Round(float64(ahead) * avgMinutes))
	buffer := int(math.Ceil(float64(base) * waitBufferPercent / 100))
	return base + buffer
}

// ClinicianLoad reports how many patients are waiting for a clinician today
// and the padded wait a new arrival should expect.
func (s *Service) ClinicianLoad(ctx context.Context, clinicianID uuid.UUID) (waiting, estimatedWaitMin int, err error) {
	waiting, err = s.repo.CountWaitingForClinician(ctx, clinicianID)
	if err != nil {
		return 0, 0, err
	}
	avg, err := s.avgFor(ctx, clinicianID)
	if err != nil {
		return 0, 0, err
	}
	return waiting, estimateWait(waiting, avg), nil
}

// CallNext finishes whoever is in the consultation room, pulls the
// highest-ranked waiting patient in, and notifies them, plus a heads-up to
// whoever is now first in line.
func (s *Service) CallNext(ctx context.Context, branchID uuid.UUID, room string) (*Entry, error) {
	next, err := s.repo.NextWaiting(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CompleteInProgress(ctx, branchID); err != nil {
		return nil, err
	}
	called, err := s.repo.MarkInProgress(ctx, next.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("branch_id", branchID.String()).
		Str("queue_number", called.QueueNumber).
		Msg("patient called")
	s.notifyPatient(ctx, called.PatientID, notify.QueueTurnNow(room))

	upcoming, err := s.repo.NextWaiting(ctx, branchID)
	if err == nil {
		s.notifyPatient(ctx, upcoming.PatientID, notify.QueueTurnSoon(upcoming.QueueNumber))
	} else if !errors.Is(err, ErrQueueEmpty) {
		s.log.Warn().Err(err).Msg("peek next waiting failed")
	}
	return called, nil
}

// UpdatePriority reclassifies a waiting patient, which reorders the queue.
func (s *Service) UpdatePriority(ctx context.Context, entryID uuid.UUID, priority Priority) (*Entry, error) {
	score, ok := PriorityScores[priority]
	if !ok {
		return nil, ErrUnknownPriority
	}
	return s.repo.UpdatePriority(ctx, entryID, priority, score)
}

func (s *Service) Complete(ctx context.Context, entryID uuid.UUID) (*Entry, error) {
	return s.repo.MarkCompleted(ctx, entryID)
}

func (s *Service) notifyPatient(ctx context.Context, patientID uuid.UUID, text string) {
	contact, err := s.repo.PatientContact(ctx, patientID)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("sms skipped, contact lookup failed")
		return
	}
	if contact.Phone == nil || *contact.Phone == "" {
		return
	}
	if _, err := s.messenger.Send(ctx, notify.FormatPhone(*contact.Phone), text); err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("sms send failed")
	}
}
