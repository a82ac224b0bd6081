package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	"github.com/medicare-gh/clinic-scheduling/internal/reminder"
)

func queueSnapshotHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseUUIDParam(r, "branchID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_branch_id", err.Error())
			return
		}

		views, err := svc.Snapshot(r.Context(), branchID)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		out := make([]QueueEntryResponse, 0, len(views))
		for _, v := range views {
			resp := queueEntryResponse(v.Entry)
			resp.Ahead = v.Ahead
			resp.EstimatedWaitMin = v.EstimatedWaitMin
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func callNextHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID, err := parseUUIDParam(r, "branchID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_branch_id", err.Error())
			return
		}

		var req CallNextRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		entry, err := svc.CallNext(r.Context(), branchID, req.Room)
		if err != nil {
			handleQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, queueEntryResponse(*entry))
	}
}

func waitEstimateHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := parseUUIDParam(r, "entryID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_entry_id", err.Error())
			return
		}

		wait, err := svc.EstimateWait(r.Context(), entryID)
		if err != nil {
			handleQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, WaitEstimateResponse{
			EntryID:              entryID,
			EstimatedWaitMinutes: wait,
		})
	}
}

func updatePriorityHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := parseUUIDParam(r, "entryID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_entry_id", err.Error())
			return
		}

		var req UpdatePriorityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		entry, err := svc.UpdatePriority(r.Context(), entryID, queue.Priority(req.Priority))
		if err != nil {
			handleQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, queueEntryResponse(*entry))
	}
}

func completeQueueEntryHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := parseUUIDParam(r, "entryID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_entry_id", err.Error())
			return
		}
		entry, err := svc.Complete(r.Context(), entryID)
		if err != nil {
			handleQueueError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, queueEntryResponse(*entry))
	}
}

func runningLateHandler(svc *reminder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicianID, err := parseUUIDParam(r, "clinicianID")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinician_id", err.Error())
			return
		}

		var req RunningLateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DelayMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_delay", "delay_minutes must be positive")
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		res, err := svc.NotifyRunningLate(r.Context(), clinicianID, date, req.DelayMinutes)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SweepResultResponse{
			Eligible: res.Eligible,
			Sent:     res.Sent,
			Failed:   res.Failed,
			Skipped:  res.Skipped,
		})
	}
}

// runSweepsHandler triggers both reminder sweeps immediately, outside the
// worker's hourly cadence. Safe to repeat: sent flags make sweeps idempotent.
func runSweepsHandler(svc *reminder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		res24, err := svc.Run24hSweep(r.Context(), now)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		res2, err := svc.Run2hSweep(r.Context(), now)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]SweepResultResponse{
			"reminder_24h": {Eligible: res24.Eligible, Sent: res24.Sent, Failed: res24.Failed, Skipped: res24.Skipped},
			"reminder_2h":  {Eligible: res2.Eligible, Sent: res2.Sent, Failed: res2.Failed, Skipped: res2.Skipped},
		})
	}
}

func handleQueueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "queue_entry_not_found", err.Error())
	case errors.Is(err, queue.ErrQueueEmpty):
		writeError(w, http.StatusNotFound, "queue_empty", err.Error())
	case errors.Is(err, queue.ErrUnknownPriority):
		writeError(w, http.StatusUnprocessableEntity, "unknown_priority", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
