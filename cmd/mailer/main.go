package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/isdelr/finance-tracker-be/internal/config"
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/logger"
	"github.com/isdelr/finance-tracker-be/internal/mail"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

// The mailer drains the reset-email queue filled by the API when
// MAIL_TRANSPORT=amqp and delivers each message over SMTP. A reset email that
// fails twice is dropped and its token withdrawn.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadMailer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Env, cfg.LogLevel)

	store, err := database.Open(ctx, cfg.Database.URL, cfg.MongoDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	queue, err := mail.NewQueue(cfg.AMQPURL, cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer queue.Close()

	sender := mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)

	log.Info().Str("queue", cfg.Queue).Msg("Mailer started")
	withdraw := services.WithdrawUndeliveredReset(store, services.NewEventService(store))
	if err := queue.Consume(ctx, sender, withdraw); err != nil {
		log.Error().Err(err).Msg("Consumer stopped")
		return
	}
	log.Info().Msg("Mailer stopped")
}
