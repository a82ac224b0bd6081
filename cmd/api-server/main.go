package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/api"
	"github.com/medicare-gh/clinic-scheduling/internal/booking"
	"github.com/medicare-gh/clinic-scheduling/internal/config"
	"github.com/medicare-gh/clinic-scheduling/internal/db"
	"github.com/medicare-gh/clinic-scheduling/internal/notify"
	"github.com/medicare-gh/clinic-scheduling/internal/queue"
	redisclient "github.com/medicare-gh/clinic-scheduling/internal/redis"
	"github.com/medicare-gh/clinic-scheduling/internal/reminder"
	"github.com/medicare-gh/clinic-scheduling/internal/schedule"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	var messenger notify.Messenger
	if cfg.SMSAPIKey != "" {
		messenger = notify.NewGateway(cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSBaseURL)
	} else {
		log.Warn().Msg("SMS_API_KEY not set, outbound sms disabled")
		messenger = notify.Disabled{Log: log}
	}

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	scheduleSvc := schedule.NewService(schedule.NewPgRepository(pgPool), log)
	reminderSvc := reminder.NewService(reminder.NewPgRepository(pgPool), messenger, log)
	bookingSvc := booking.NewService(booking.NewPgRepository(pgPool), scheduleSvc, locker, messenger, reminderSvc, log)
	queueSvc := queue.NewService(queue.NewPgRepository(pgPool), messenger, log)

	router := api.NewRouter(api.RouterConfig{
		Schedules: scheduleSvc,
		Bookings:  bookingSvc,
		Queue:     queueSvc,
		Reminders: reminderSvc,
		PgPool:    pgPool,
		Redis:     rdb,
		Log:       log,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	log.Info().Msg("api-server stopped")
}
