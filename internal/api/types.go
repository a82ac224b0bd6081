package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/booking"
	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	"github.com/medicare-gh/clinic-scheduling/internal/schedule"
)

// Times on the wire are "HH:MM" strings and dates are "YYYY-MM-DD"; the
// handlers convert at the boundary so services only see minute offsets.

const dateLayout = "2006-01-02"

type AllocationPayload struct {
	AppointmentPercent int `json:"appointment_percent"`
	WalkInPercent      int `json:"walk_in_percent"`
	EmergencyPercent   int `json:"emergency_percent"`
}

func (p *AllocationPayload) toPolicy() *schedule.AllocationPolicy {
	if p == nil {
		return nil
	}
	return &schedule.AllocationPolicy{
		AppointmentPercent: p.AppointmentPercent,
		WalkInPercent:      p.WalkInPercent,
		EmergencyPercent:   p.EmergencyPercent,
	}
}

func allocationPayload(p schedule.AllocationPolicy) AllocationPayload {
	return AllocationPayload{
		AppointmentPercent: p.AppointmentPercent,
		WalkInPercent:      p.WalkInPercent,
		EmergencyPercent:   p.EmergencyPercent,
	}
}

type TemplateDayRequest struct {
	DayOfWeek   int                `json:"day_of_week"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time"`
	SlotMinutes int                `json:"slot_minutes,omitempty"`
	Location    *string            `json:"location,omitempty"`
	Allocation  *AllocationPayload `json:"allocation,omitempty"`
}

type ReplaceScheduleRequest struct {
	Days []TemplateDayRequest `json:"days"`
}

type UpdateTemplateRequest struct {
	StartTime   *string            `json:"start_time,omitempty"`
	EndTime     *string            `json:"end_time,omitempty"`
	SlotMinutes *int               `json:"slot_minutes,omitempty"`
	Location    *string            `json:"location,omitempty"`
	Allocation  *AllocationPayload `json:"allocation,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

type TemplateResponse struct {
	ID          uuid.UUID         `json:"id"`
	ClinicianID uuid.UUID         `json:"clinician_id"`
	DayOfWeek   int               `json:"day_of_week"`
	StartTime   string            `json:"start_time"`
	EndTime     string            `json:"end_time"`
	SlotMinutes int               `json:"slot_minutes"`
	Location    *string           `json:"location,omitempty"`
	Allocation  AllocationPayload `json:"allocation"`
	IsActive    bool              `json:"is_active"`
}

func templateResponse(t schedule.WeeklyTemplate) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID,
		ClinicianID: t.ClinicianID,
		DayOfWeek:   t.DayOfWeek,
		StartTime:   t.StartTime.String(),
		EndTime:     t.EndTime.String(),
		SlotMinutes: t.SlotMinutes,
		Location:    t.Location,
		Allocation:  allocationPayload(t.Allocation),
		IsActive:    t.IsActive,
	}
}

type ExceptionRequest struct {
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	IsAvailable bool    `json:"is_available"`
	CustomStart *string `json:"custom_start,omitempty"`
	CustomEnd   *string `json:"custom_end,omitempty"`
	Reason      *string `json:"reason,omitempty"`
}

type BulkExceptionsRequest struct {
	Exceptions []ExceptionRequest `json:"exceptions"`
}

type ExceptionResponse struct {
	ID          uuid.UUID `json:"id"`
	ClinicianID uuid.UUID `json:"clinician_id"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	IsAvailable bool      `json:"is_available"`
	CustomStart *string   `json:"custom_start,omitempty"`
	CustomEnd   *string   `json:"custom_end,omitempty"`
	Reason      *string   `json:"reason,omitempty"`
}

func exceptionResponse(e schedule.Exception) ExceptionResponse {
	resp := ExceptionResponse{
		ID:          e.ID,
		ClinicianID: e.ClinicianID,
		Date:        e.Date.Format(dateLayout),
		Type:        string(e.Type),
		IsAvailable: e.IsAvailable,
		Reason:      e.Reason,
	}
	if e.CustomStart != nil {
		s := e.CustomStart.String()
		resp.CustomStart = &s
	}
	if e.CustomEnd != nil {
		s := e.CustomEnd.String()
		resp.CustomEnd = &s
	}
	return resp
}

type WorkingHoursPayload struct {
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	SlotMinutes int     `json:"slot_minutes"`
	Location    *string `json:"location,omitempty"`
}

type AvailabilityResponse struct {
	Date          string               `json:"date"`
	ClinicianID   uuid.UUID            `json:"clinician_id"`
	IsAvailable   bool                 `json:"is_available"`
	IsHoliday     bool                 `json:"is_holiday"`
	HolidayName   string               `json:"holiday_name,omitempty"`
	ExceptionType string               `json:"exception_type,omitempty"`
	WorkingHours  *WorkingHoursPayload `json:"working_hours,omitempty"`
	Allocation    *AllocationPayload   `json:"allocation,omitempty"`
}

func availabilityResponse(clinicianID uuid.UUID, date time.Time, a schedule.Availability) AvailabilityResponse {
	resp := AvailabilityResponse{
		Date:        date.Format(dateLayout),
		ClinicianID: clinicianID,
		IsAvailable: a.IsAvailable,
		IsHoliday:   a.IsHoliday,
		HolidayName: a.HolidayName,
	}
	if a.Exception != nil {
		resp.ExceptionType = string(a.Exception.Type)
	}
	if a.WorkingHours != nil {
		resp.WorkingHours = &WorkingHoursPayload{
			StartTime:   a.WorkingHours.Start.String(),
			EndTime:     a.WorkingHours.End.String(),
			SlotMinutes: a.WorkingHours.SlotMinutes,
			Location:    a.WorkingHours.Location,
		}
	}
	if a.Allocation != nil {
		alloc := allocationPayload(*a.Allocation)
		resp.Allocation = &alloc
	}
	return resp
}

type SlotResponse struct {
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Minutes       int        `json:"minutes"`
	Type          string     `json:"type"`
	IsAvailable   bool       `json:"is_available"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	BookedBy      string     `json:"booked_by,omitempty"`
}

type DaySlotsResponse struct {
	Date             string               `json:"date"`
	ClinicianID      uuid.UUID            `json:"clinician_id"`
	IsAvailable      bool                 `json:"is_available"`
	WorkingHours     *WorkingHoursPayload `json:"working_hours,omitempty"`
	TotalMinutes     int                  `json:"total_minutes"`
	Allocation       AllocationPayload    `json:"allocation"`
	Slots            []SlotResponse       `json:"slots"`
	QueueLength      int                  `json:"queue_length"`
	EstimatedWaitMin int                  `json:"estimated_wait_minutes"`
}

func daySlotsResponse(d *schedule.DaySlots) DaySlotsResponse {
	resp := DaySlotsResponse{
		Date:         d.Date.Format(dateLayout),
		ClinicianID:  d.ClinicianID,
		IsAvailable:  d.IsAvailable,
		TotalMinutes: d.TotalMinutes,
		Allocation:   allocationPayload(d.Allocation),
		Slots:        make([]SlotResponse, 0, len(d.Slots)),
	}
	if d.WorkingHours != nil {
		resp.WorkingHours = &WorkingHoursPayload{
			StartTime:   d.WorkingHours.Start.String(),
			EndTime:     d.WorkingHours.End.String(),
			SlotMinutes: d.WorkingHours.SlotMinutes,
			Location:    d.WorkingHours.Location,
		}
	}
	for _, s := range d.Slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			StartTime:     s.Start.String(),
			EndTime:       s.End.String(),
			Minutes:       s.Minutes,
			Type:          string(s.Type),
			IsAvailable:   s.IsAvailable,
			AppointmentID: s.AppointmentID,
			BookedBy:      s.BookedBy,
		})
	}
	return resp
}

type HolidayResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	IsRecurring bool      `json:"is_recurring"`
}

func holidayResponse(h schedule.Holiday) HolidayResponse {
	return HolidayResponse{
		ID:          h.ID,
		Name:        h.Name,
		Date:        h.Date.Format(dateLayout),
		IsRecurring: h.IsRecurring,
	}
}

type ClinicianResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
}

type CreateAppointmentRequest struct {
	ClinicianID     string  `json:"clinician_id"`
	PatientID       string  `json:"patient_id"`
	BranchID        string  `json:"branch_id"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Channel         string  `json:"channel,omitempty"`
	ChiefComplaint  *string `json:"chief_complaint,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type WalkInRequest struct {
	CreateAppointmentRequest
	Priority string `json:"priority,omitempty"`
}

type RescheduleRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type CheckInRequest struct {
	Priority string `json:"priority,omitempty"`
}

type CompleteRequest struct {
	ActualDurationMinutes int `json:"actual_duration_minutes,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	ClinicianID     uuid.UUID `json:"clinician_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	BranchID        uuid.UUID `json:"branch_id"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Channel         string    `json:"channel"`
	IsWalkIn        bool      `json:"is_walk_in"`
	ChiefComplaint  *string   `json:"chief_complaint,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CancelReason    *string   `json:"cancel_reason,omitempty"`
	ActualMinutes   *int      `json:"actual_duration_minutes,omitempty"`
}

func appointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		ClinicianID:     a.ClinicianID,
		PatientID:       a.PatientID,
		BranchID:        a.BranchID,
		Date:            a.Date.Format(dateLayout),
		StartTime:       a.StartTime.String(),
		EndTime:         a.EndTime.String(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Channel:         string(a.Channel),
		IsWalkIn:        a.IsWalkIn,
		ChiefComplaint:  a.ChiefComplaint,
		Notes:           a.Notes,
		CancelReason:    a.CancelReason,
		ActualMinutes:   a.ActualMinutes,
	}
}

type QueueEntryResponse struct {
	ID               uuid.UUID  `json:"id"`
	BranchID         uuid.UUID  `json:"branch_id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	ClinicianID      uuid.UUID  `json:"clinician_id"`
	AppointmentID    *uuid.UUID `json:"appointment_id,omitempty"`
	QueueNumber      string     `json:"queue_number"`
	QueuePosition    int        `json:"queue_position"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	Ahead            int        `json:"ahead,omitempty"`
	EstimatedWaitMin int        `json:"estimated_wait_minutes,omitempty"`
}

func queueEntryResponse(e queue.Entry) QueueEntryResponse {
	return QueueEntryResponse{
		ID:            e.ID,
		BranchID:      e.BranchID,
		PatientID:     e.PatientID,
		ClinicianID:   e.ClinicianID,
		AppointmentID: e.AppointmentID,
		QueueNumber:   e.QueueNumber,
		QueuePosition: e.QueuePosition,
		Priority:      string(e.Priority),
		Status:        string(e.Status),
	}
}

type CheckInResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	QueueEntry  QueueEntryResponse  `json:"queue_entry"`
}

type WaitEstimateResponse struct {
	EntryID              uuid.UUID `json:"entry_id"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
}

type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

type CallNextRequest struct {
	Room string `json:"room,omitempty"`
}

type RunningLateRequest struct {
	Date         string `json:"date"`
	DelayMinutes int    `json:"delay_minutes"`
}

type SweepResultResponse struct {
	Eligible int `json:"eligible"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}
