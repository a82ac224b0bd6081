package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	"github.com/medicare-gh/clinic-scheduling/internal/schedule"
)

func createTemplateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		var req TemplateDayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := parseClock("start_time", req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", err.Error())
			return
		}
		end, err := parseClock("end_time", req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", err.Error())
			return
		}

		t, err := svc.CreateTemplate(r.Context(), schedule.CreateTemplateInput{
			ClinicianID: clinicianID,
			DayOfWeek:   req.DayOfWeek,
			StartTime:   start,
			EndTime:     end,
			SlotMinutes: req.SlotMinutes,
			Location:    req.Location,
			Allocation:  req.Allocation.toPolicy(),
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, templateResponse(*t))
	}
}

func replaceScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		var req ReplaceScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		days := make([]schedule.TemplateDay, 0, len(req.Days))
		for _, d := range req.Days {
			start, err := parseClock("start_time", d.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_time", err.Error())
				return
			}
			end, err := parseClock("end_time", d.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_time", err.Error())
				return
			}
			days = append(days, schedule.TemplateDay{
				DayOfWeek:   d.DayOfWeek,
				StartTime:   start,
				EndTime:     end,
				SlotMinutes: d.SlotMinutes,
				Location:    d.Location,
				Allocation:  d.Allocation.toPolicy(),
			})
		}

		templates, err := svc.ReplaceWeeklySchedule(r.Context(), clinicianID, days)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			out = append(out, templateResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listTemplatesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		templates, err := svc.TemplatesByClinician(r.Context(), clinicianID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			out = append(out, templateResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateTemplateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_template_id", err.Error())
			return
		}

		var req UpdateTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := parseClockPtr("start_time", req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", err.Error())
			return
		}
		end, err := parseClockPtr("end_time", req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", err.Error())
			return
		}

		t, err := svc.UpdateTemplate(r.Context(), id, schedule.UpdateTemplateInput{
			StartTime:   start,
			EndTime:     end,
			SlotMinutes: req.SlotMinutes,
			Location:    req.Location,
			Allocation:  req.Allocation.toPolicy(),
			IsActive:    req.IsActive,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, templateResponse(*t))
	}
}

func deleteTemplateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_template_id", err.Error())
			return
		}
		if err := svc.DeleteTemplate(r.Context(), id); err != nil {
			handleScheduleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func exceptionInputFromRequest(req ExceptionRequest) (schedule.ExceptionInput, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return schedule.ExceptionInput{}, err
	}
	start, err := parseClockPtr("custom_start", req.CustomStart)
	if err != nil {
		return schedule.ExceptionInput{}, err
	}
	end, err := parseClockPtr("custom_end", req.CustomEnd)
	if err != nil {
		return schedule.ExceptionInput{}, err
	}
	return schedule.ExceptionInput{
		Date:        date,
		Type:        schedule.ExceptionType(req.Type),
		IsAvailable: req.IsAvailable,
		CustomStart: start,
		CustomEnd:   end,
		Reason:      req.Reason,
	}, nil
}

func upsertExceptionHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		var req ExceptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in, err := exceptionInputFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_exception", err.Error())
			return
		}
		in.ClinicianID = clinicianID

		e, err := svc.UpsertException(r.Context(), in)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exceptionResponse(*e))
	}
}

func bulkUpsertExceptionsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		var req BulkExceptionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		ins := make([]schedule.ExceptionInput, 0, len(req.Exceptions))
		for _, e := range req.Exceptions {
			in, err := exceptionInputFromRequest(e)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_exception", err.Error())
				return
			}
			in.ClinicianID = clinicianID
			ins = append(ins, in)
		}

		exceptions, err := svc.BulkUpsertExceptions(r.Context(), ins)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]ExceptionResponse, 0, len(exceptions))
		for _, e := range exceptions {
			out = append(out, exceptionResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listExceptionsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		var from, to *time.Time
		if s := r.URL.Query().Get("from"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_from", err.Error())
				return
			}
			from = &d
		}
		if s := r.URL.Query().Get("to"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", err.Error())
				return
			}
			to = &d
		}

		exceptions, err := svc.ExceptionsByClinician(r.Context(), clinicianID, from, to)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]ExceptionResponse, 0, len(exceptions))
		for _, e := range exceptions {
			out = append(out, exceptionResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteExceptionHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_exception_id", err.Error())
			return
		}
		if err := svc.DeleteException(r.Context(), id); err != nil {
			handleScheduleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func availabilityHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}
		date, err := parseDateQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		avail, err := svc.Availability(r.Context(), clinicianID, date)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse(clinicianID, date, avail))
	}
}

func slotsHandler(svc *schedule.Service, queueSvc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}
		date, err := parseDateQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		slots, err := svc.SlotsForDay(r.Context(), clinicianID, date)
		if err != nil {
			handleScheduleError(w, err)
			return
		}
		resp := daySlotsResponse(slots)
		// Walk-in context alongside the bookable slots: how deep the
		// clinician's queue is right now and the estimated wait to join it.
		waiting, waitMin, err := queueSvc.ClinicianLoad(r.Context(), clinicianID)
		if err != nil {
			handleQueueError(w, err)
			return
		}
		resp.QueueLength = waiting
		resp.EstimatedWaitMin = waitMin
		writeJSON(w, http.StatusOK, resp)
	}
}

func availableCliniciansHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		available, err := svc.AvailableClinicians(r.Context(), date)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		type entry struct {
			Clinician    ClinicianResponse    `json:"clinician"`
			Availability AvailabilityResponse `json:"availability"`
		}
		out := make([]entry, 0, len(available))
		for _, ca := range available {
			out = append(out, entry{
				Clinician: ClinicianResponse{
					ID:        ca.Clinician.ID,
					Name:      ca.Clinician.Name,
					Specialty: ca.Clinician.Specialty,
				},
				Availability: availabilityResponse(ca.Clinician.ID, date, ca.Availability),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listHolidaysHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year := time.Now().Year()
		if s := r.URL.Query().Get("year"); s != "" {
			y, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_year", "year must be an integer")
				return
			}
			year = y
		}

		holidays, err := svc.Holidays(r.Context(), year)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]HolidayResponse, 0, len(holidays))
		for _, h := range holidays {
			out = append(out, holidayResponse(h))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func seedHolidaysHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year := time.Now().Year()
		if s := r.URL.Query().Get("year"); s != "" {
			y, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_year", "year must be an integer")
				return
			}
			year = y
		}

		holidays, err := svc.SeedHolidays(r.Context(), year)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]HolidayResponse, 0, len(holidays))
		for _, h := range holidays {
			out = append(out, holidayResponse(h))
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrClinicianNotFound):
		writeError(w, http.StatusNotFound, "clinician_not_found", err.Error())
	case errors.Is(err, schedule.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, schedule.ErrExceptionNotFound):
		writeError(w, http.StatusNotFound, "exception_not_found", err.Error())
	case errors.Is(err, schedule.ErrScheduleExists):
		writeError(w, http.StatusConflict, "schedule_exists", err.Error())
	case errors.Is(err, schedule.ErrInvalidAllocation):
		writeError(w, http.StatusBadRequest, "invalid_allocation", err.Error())
	case errors.Is(err, schedule.ErrInvalidHours):
		writeError(w, http.StatusBadRequest, "invalid_hours", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
