package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/notify"
	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	redisclient "github.com/medicare-gh/clinic-scheduling/internal/redis"
	"github.com/medicare-gh/clinic-scheduling/internal/schedule"
	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

var (
	ErrClinicianUnavailable = errors.New("clinician is not available on this date")
	ErrOutsideWorkingHours  = errors.New("appointment falls outside working hours")
	ErrCrossesMidnight      = errors.New("appointment may not cross midnight")
	ErrInvalidTimes         = errors.New("duration must be a positive number of minutes")
	ErrCancelReasonRequired = errors.New("cancel reason is required")
	ErrBookingInProgress    = errors.New("another booking for this clinician is in progress, retry shortly")
)

// AvailabilityResolver is the slice of the schedule service booking needs.
type AvailabilityResolver interface {
	Availability(ctx context.Context, clinicianID uuid.UUID, date time.Time) (schedule.Availability, error)
}

// NotificationLog receives an audit row for notices that support staff may
// later have to account for. Satisfied by the reminder service.
type NotificationLog interface {
	LogNoShow(ctx context.Context, appointmentID, patientID uuid.UUID, recipient, messageID string, sendErr error)
}

type Service struct {
	repo      Repository
	schedules AvailabilityResolver
	locker    redisclient.Locker
	messenger notify.Messenger
	audit     NotificationLog
	log       zerolog.Logger
}

func NewService(repo Repository, schedules AvailabilityResolver, locker redisclient.Locker, messenger notify.Messenger, audit NotificationLog, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		schedules: schedules,
		locker:    locker,
		messenger: messenger,
		audit:     audit,
		log:       log.With().Str("component", "booking").Logger(),
	}
}

type CreateInput struct {
	ClinicianID     uuid.UUID
	PatientID       uuid.UUID
	BranchID        uuid.UUID
	Date            time.Time
	StartTime       timeofday.Minutes
	DurationMinutes int
	Channel         Channel
	ChiefComplaint  *string
	Notes           *string
}

// Create books a scheduled appointment. The Redis lock is a fast path that
// keeps concurrent requests for the same clinician-day from racing to the
// database; the transaction-level overlap re-check in the repository is what
// actually guarantees no double booking.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	end, err := endFromDuration(in.StartTime, in.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvailability(ctx, in.ClinicianID, in.Date, in.StartTime, end); err != nil {
		return nil, err
	}

	var appt *Appointment
	err = s.locker.WithBookingLock(ctx, in.ClinicianID, in.Date, func(ctx context.Context) error {
		var err error
		appt, err = s.repo.CreateAppointment(ctx, CreateParams{
			ClinicianID:    in.ClinicianID,
			PatientID:      in.PatientID,
			BranchID:       in.BranchID,
			Date:           in.Date,
			StartTime:      in.StartTime,
			EndTime:        end,
			Channel:        in.Channel,
			ChiefComplaint: in.ChiefComplaint,
			Notes:          in.Notes,
		})
		return err
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return nil, ErrBookingInProgress
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("clinician_id", appt.ClinicianID.String()).
		Str("date", appt.Date.Format("2006-01-02")).
		Str("slot", appt.StartTime.String()+"-"+appt.EndTime.String()).
		Msg("appointment booked")
	return appt, nil
}

// WalkIn registers a walk-in patient. Walk-ins skip availability and conflict
// checks entirely: they are absorbed by the queue, not by the slot grid.
func (s *Service) WalkIn(ctx context.Context, in CreateInput, priority queue.Priority) (*Appointment, *queue.Entry, error) {
	end, err := endFromDuration(in.StartTime, in.DurationMinutes)
	if err != nil {
		return nil, nil, err
	}
	if priority == "" {
		priority = queue.PriorityRegular
	}

	var (
		appt  *Appointment
		entry *queue.Entry
	)
	err = s.locker.WithBranchLock(ctx, in.BranchID, func(ctx context.Context) error {
		var err error
		appt, entry, err = s.repo.CreateWalkIn(ctx, CreateParams{
			ClinicianID:    in.ClinicianID,
			PatientID:      in.PatientID,
			BranchID:       in.BranchID,
			Date:           in.Date,
			StartTime:      in.StartTime,
			EndTime:        end,
			Channel:        ChannelWalkIn,
			IsWalkIn:       true,
			ChiefComplaint: in.ChiefComplaint,
			Notes:          in.Notes,
		}, priority)
		return err
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return nil, nil, ErrBookingInProgress
	}
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("queue_number", entry.QueueNumber).
		Int("position", entry.QueuePosition).
		Msg("walk-in registered")
	s.sendSMS(ctx, appt.PatientID, func(p *Patient) string {
		return notify.QueueJoined(p.Name, entry.QueueNumber, entry.QueuePosition*queue.DefaultConsultMinutes)
	})
	return appt, entry, nil
}

// Reschedule moves an appointment to a new date and time slot. The
// appointment itself is excluded from the conflict check.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, start timeofday.Minutes, durationMinutes int) (*Appointment, error) {
	end, err := endFromDuration(start, durationMinutes)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() || current.Status == StatusInProgress {
		return nil, ErrInvalidStatus
	}
	if err := s.checkAvailability(ctx, current.ClinicianID, date, start, end); err != nil {
		return nil, err
	}

	var appt *Appointment
	err = s.locker.WithBookingLock(ctx, current.ClinicianID, date, func(ctx context.Context) error {
		var err error
		appt, err = s.repo.UpdateTimes(ctx, id, date, start, end)
		return err
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return nil, ErrBookingInProgress
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", id.String()).
		Str("date", date.Format("2006-01-02")).
		Str("slot", start.String()+"-"+end.String()).
		Msg("appointment rescheduled")
	return appt, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.UpdateStatus(ctx, id, []Status{StatusScheduled}, StatusConfirmed)
}

// CheckIn marks arrival and places the patient in the branch queue. The
// status update and queue insert commit together.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, priority queue.Priority) (*Appointment, *queue.Entry, error) {
	if priority == "" {
		priority = queue.PriorityRegular
	}
	appt, entry, err := s.repo.CheckIn(ctx, id, priority)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("appointment_id", id.String()).
		Str("queue_number", entry.QueueNumber).
		Int("position", entry.QueuePosition).
		Msg("patient checked in")
	s.sendSMS(ctx, appt.PatientID, func(p *Patient) string {
		return notify.QueueJoined(p.Name, entry.QueueNumber, entry.QueuePosition*queue.DefaultConsultMinutes)
	})
	return appt, entry, nil
}

func (s *Service) Start(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.UpdateStatus(ctx, id, []Status{StatusCheckedIn}, StatusInProgress)
}

// Complete finishes an appointment and records how long it actually took,
// which feeds the queue wait estimator's trailing average.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actualMinutes int) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actualMinutes <= 0 {
		if appt.StartedAt != nil {
			actualMinutes = int(time.Since(*appt.StartedAt).Minutes())
		}
		if actualMinutes <= 0 {
			actualMinutes = appt.DurationMinutes
		}
	}
	return s.repo.Complete(ctx, id, actualMinutes)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	if reason == "" {
		return nil, ErrCancelReasonRequired
	}
	appt, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("appointment_id", id.String()).Str("reason", reason).Msg("appointment cancelled")
	s.sendSMS(ctx, appt.PatientID, func(*Patient) string {
		return notify.Cancelled(appt.Date.Format("Mon 2 Jan") + " " + appt.StartTime.String())
	})
	return appt, nil
}

// MarkNoShow flags a checked-in patient who never made it to the consult
// room. Scheduled no-shows are handled by the reminder sweep, not here.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.MarkNoShow(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyNoShow(ctx, appt)
	return appt, nil
}

// notifyNoShow texts the patient and writes an audit row: unlike other
// courtesy messages, a no-show notice may later be disputed.
func (s *Service) notifyNoShow(ctx context.Context, appt *Appointment) {
	patient, err := s.repo.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", appt.PatientID.String()).Msg("sms skipped, patient lookup failed")
		return
	}
	if patient.Phone == nil || *patient.Phone == "" {
		return
	}

	recipient := notify.FormatPhone(*patient.Phone)
	text := notify.NoShow(appt.Date.Format("Mon 2 Jan") + " " + appt.StartTime.String())
	messageID, sendErr := s.messenger.Send(ctx, recipient, text)
	if sendErr != nil {
		s.log.Warn().Err(sendErr).Str("patient_id", appt.PatientID.String()).Msg("sms send failed")
	}
	if s.audit != nil {
		s.audit.LogNoShow(ctx, appt.ID, appt.PatientID, recipient, messageID, sendErr)
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListForDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error) {
	return s.repo.ListByClinicianDate(ctx, clinicianID, date)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, upcoming bool) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID, upcoming)
}

// endFromDuration derives the end of a slot from its start and duration.
// Callers never supply an end time, so a slot cannot be inverted; one that
// would reach midnight or beyond is rejected rather than wrapped.
func endFromDuration(start timeofday.Minutes, durationMinutes int) (timeofday.Minutes, error) {
	if durationMinutes <= 0 {
		return 0, ErrInvalidTimes
	}
	if start < 0 || int(start)+durationMinutes >= timeofday.MinutesPerDay {
		return 0, ErrCrossesMidnight
	}
	return start.Add(durationMinutes), nil
}

func (s *Service) checkAvailability(ctx context.Context, clinicianID uuid.UUID, date time.Time, start, end timeofday.Minutes) error {
	avail, err := s.schedules.Availability(ctx, clinicianID, date)
	if err != nil {
		return err
	}
	if !avail.IsAvailable {
		return ErrClinicianUnavailable
	}
	if start < avail.WorkingHours.Start || end > avail.WorkingHours.End {
		return ErrOutsideWorkingHours
	}
	return nil
}

// sendSMS looks up the patient and fires a notification. SMS is best effort:
// failures are logged, never returned to the caller.
func (s *Service) sendSMS(ctx context.Context, patientID uuid.UUID, build func(p *Patient) string) {
	patient, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("sms skipped, patient lookup failed")
		return
	}
	if patient.Phone == nil || *patient.Phone == "" {
		return
	}
	if _, err := s.messenger.Send(ctx, notify.FormatPhone(*patient.Phone), build(patient)); err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("sms send failed")
	}
}
