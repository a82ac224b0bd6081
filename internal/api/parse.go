package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medicare-gh/clinic-scheduling/internal/timeofday"
)

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid UUID", name)
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return d, nil
}

// parseDateQuery reads the ?date= query parameter, defaulting to today.
func parseDateQuery(r *http.Request) (time.Time, error) {
	s := r.URL.Query().Get("date")
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return parseDate(s)
}

func parseClock(name, s string) (timeofday.Minutes, error) {
	m, err := timeofday.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be HH:MM", name)
	}
	return m, nil
}

func parseClockPtr(name string, s *string) (*timeofday.Minutes, error) {
	if s == nil {
		return nil, nil
	}
	m, err := parseClock(name, *s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
