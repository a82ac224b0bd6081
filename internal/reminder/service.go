package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/notify"
)

// The 24h sweep covers the whole of tomorrow; the 2h sweep covers a
// half-hour window two hours ahead. The sent flags keep repeat sweeps
// inside the same window from double-texting.
const (
	window2hLead  = 2 * time.Hour
	window2hWidth = 30 * time.Minute
)

type Service struct {
	repo      Repository
	messenger notify.Messenger
	log       zerolog.Logger
}

func NewService(repo Repository, messenger notify.Messenger, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		messenger: messenger,
		log:       log.With().Str("component", "reminder").Logger(),
	}
}

type SweepResult struct {
	Eligible int
	Sent     int
	Failed   int
	Skipped  int
}

// Run24hSweep texts everyone whose appointment falls tomorrow and has not
// been reminded yet. One failed send never stops the sweep.
func (s *Service) Run24hSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	due, err := s.repo.Due24h(ctx, tomorrow, tomorrow.AddDate(0, 0, 1))
	if err != nil {
		return SweepResult{}, err
	}
	return s.deliver(ctx, due, Type24h, s.repo.MarkReminder24hSent, func(d DueAppointment) string {
		return notify.Reminder24h(d.ClinicianName, d.StartTime.String())
	}), nil
}

// Run2hSweep is the same-day counterpart of Run24hSweep.
func (s *Service) Run2hSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	from := now.Add(window2hLead)
	due, err := s.repo.Due2h(ctx, from, from.Add(window2hWidth))
	if err != nil {
		return SweepResult{}, err
	}
	return s.deliver(ctx, due, Type2h, s.repo.MarkReminder2hSent, func(d DueAppointment) string {
		return notify.Reminder2h(d.ClinicianName, d.StartTime.String())
	}), nil
}

func (s *Service) deliver(ctx context.Context, due []DueAppointment, typ Type, markSent func(context.Context, uuid.UUID) error, build func(DueAppointment) string) SweepResult {
	res := SweepResult{Eligible: len(due)}
	for _, d := range due {
		if d.PatientPhone == nil || *d.PatientPhone == "" {
			res.Skipped++
			continue
		}
		recipient := notify.FormatPhone(*d.PatientPhone)

		msgID, err := s.messenger.Send(ctx, recipient, build(d))
		if err != nil {
			res.Failed++
			s.log.Warn().Err(err).
				Str("appointment_id", d.AppointmentID.String()).
				Str("type", string(typ)).
				Msg("reminder send failed")
			s.writeLog(ctx, d, typ, recipient, false, nil, err)
			continue
		}

		// The flag flips only after a successful send, so a failure is
		// retried on the next sweep while the window still covers it.
		if err := markSent(ctx, d.AppointmentID); err != nil {
			s.log.Error().Err(err).
				Str("appointment_id", d.AppointmentID.String()).
				Msg("reminder sent but flag update failed")
		}
		res.Sent++
		s.writeLog(ctx, d, typ, recipient, true, &msgID, nil)
	}

	s.log.Info().
		Str("type", string(typ)).
		Int("eligible", res.Eligible).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("reminder sweep finished")
	return res
}

// NotifyRunningLate broadcasts a delay to every patient still expected for
// the clinician's day, with each one's pushed-back time.
func (s *Service) NotifyRunningLate(ctx context.Context, clinicianID uuid.UUID, date time.Time, delayMinutes int) (SweepResult, error) {
	remaining, err := s.repo.RemainingForClinicianDay(ctx, clinicianID, date)
	if err != nil {
		return SweepResult{}, err
	}
	return s.deliver(ctx, remaining, TypeRunningLate, func(context.Context, uuid.UUID) error { return nil },
		func(d DueAppointment) string {
			newTime := d.StartTime.Add(delayMinutes)
			return notify.RunningLate(d.ClinicianName, delayMinutes, newTime.String())
		}), nil
}

// LogNoShow records the notice sent when staff flag a checked-in patient as
// a no-show. The send happens in the booking flow; the audit row lives here
// with the rest of the delivery history.
func (s *Service) LogNoShow(ctx context.Context, appointmentID, patientID uuid.UUID, recipient, messageID string, sendErr error) {
	l := Log{
		AppointmentID: appointmentID,
		PatientID:     patientID,
		Type:          TypeNoShow,
		Recipient:     recipient,
		Sent:          sendErr == nil,
	}
	if messageID != "" {
		l.MessageID = &messageID
	}
	if sendErr != nil {
		msg := sendErr.Error()
		l.Error = &msg
	}
	if err := s.repo.InsertLog(ctx, l); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appointmentID.String()).Msg("reminder log write failed")
	}
}

func (s *Service) writeLog(ctx context.Context, d DueAppointment, typ Type, recipient string, sent bool, messageID *string, sendErr error) {
	l := Log{
		AppointmentID: d.AppointmentID,
		PatientID:     d.PatientID,
		Type:          typ,
		Recipient:     recipient,
		Sent:          sent,
		MessageID:     messageID,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		l.Error = &msg
	}
	if err := s.repo.InsertLog(ctx, l); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", d.AppointmentID.String()).Msg("reminder log write failed")
	}
}
