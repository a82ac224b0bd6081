package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicare-gh/clinic-scheduling/internal/config"
	"github.com/medicare-gh/clinic-scheduling/internal/db"
	"github.com/medicare-gh/clinic-scheduling/internal/notify"
	"github.com/medicare-gh/clinic-scheduling/internal/reminder"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "reminder-worker").Logger()
	log.Info().Msg("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	log.Info().Str("env", cfg.Env).Dur("sweep_interval", cfg.SweepInterval).Msg("configuration loaded")

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

	var messenger notify.Messenger
	if cfg.SMSAPIKey != "" {
		messenger = notify.NewGateway(cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSBaseURL)
	} else {
		log.Warn().Msg("SMS_API_KEY not set, outbound sms disabled")
		messenger = notify.Disabled{Log: log}
	}

	svc := reminder.NewService(reminder.NewPgRepository(pgPool), messenger, log)
	sched := reminder.NewScheduler(svc, cfg.SweepInterval, log)

	sched.Start(rootCtx)

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping reminder worker")
	sched.Stop()
	log.Info().Msg("reminder-worker stopped")
}
