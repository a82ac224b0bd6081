package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/booking"
	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	"github.com/medicare-gh/clinic-scheduling/internal/reminder"
	"github.com/medicare-gh/clinic-scheduling/internal/schedule"
)

type RouterConfig struct {
	Schedules *schedule.Service
	Bookings  *booking.Service
	Queue     *queue.Service
	Reminders *reminder.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Schedule endpoints
	r.Route("/clinicians", func(r chi.Router) {
		r.Get("/available", availableCliniciansHandler(cfg.Schedules))

		r.Route("/{clinicianID}", func(r chi.Router) {
			r.Post("/templates", createTemplateHandler(cfg.Schedules))
			r.Get("/templates", listTemplatesHandler(cfg.Schedules))
			r.Put("/schedule", replaceScheduleHandler(cfg.Schedules))

			r.Post("/exceptions", upsertExceptionHandler(cfg.Schedules))
			r.Post("/exceptions/bulk", bulkUpsertExceptionsHandler(cfg.Schedules))
			r.Get("/exceptions", listExceptionsHandler(cfg.Schedules))

			r.Get("/availability", availabilityHandler(cfg.Schedules))
			r.Get("/slots", slotsHandler(cfg.Schedules, cfg.Queue))
			r.Get("/appointments", listClinicianAppointmentsHandler(cfg.Bookings))

			r.Post("/running-late", runningLateHandler(cfg.Reminders))
		})
	})
	r.Put("/templates/{id}", updateTemplateHandler(cfg.Schedules))
	r.Delete("/templates/{id}", deleteTemplateHandler(cfg.Schedules))
	r.Delete("/exceptions/{id}", deleteExceptionHandler(cfg.Schedules))

	// Holiday endpoints
	r.Get("/holidays", listHolidaysHandler(cfg.Schedules))
	r.Post("/holidays/seed", seedHolidaysHandler(cfg.Schedules))

	// Appointment endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Bookings))
		r.Get("/{id}", getAppointmentHandler(cfg.Bookings))
		r.Patch("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Bookings))
		r.Post("/{id}/confirm", confirmAppointmentHandler(cfg.Bookings))
		r.Post("/{id}/check-in", checkInHandler(cfg.Bookings))
		r.Post("/{id}/start", startAppointmentHandler(cfg.Bookings))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Bookings))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Bookings))
		r.Post("/{id}/no-show", markNoShowHandler(cfg.Bookings))
	})
	r.Post("/walk-ins", createWalkInHandler(cfg.Bookings))
	r.Get("/patients/{patientID}/appointments", listPatientAppointmentsHandler(cfg.Bookings))

	// Queue endpoints
	r.Route("/branches/{branchID}/queue", func(r chi.Router) {
		r.Get("/", queueSnapshotHandler(cfg.Queue))
		r.Post("/call-next", callNextHandler(cfg.Queue))
	})
	r.Route("/queue/{entryID}", func(r chi.Router) {
		r.Get("/wait", waitEstimateHandler(cfg.Queue))
		r.Patch("/priority", updatePriorityHandler(cfg.Queue))
		r.Post("/complete", completeQueueEntryHandler(cfg.Queue))
	})

	// Reminder endpoints
	r.Post("/reminders/sweep", runSweepsHandler(cfg.Reminders))

	return r
}
