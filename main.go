package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/api"
	"github.com/isdelr/finance-tracker-be/internal/assistant"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/config"
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/identity"
	"github.com/isdelr/finance-tracker-be/internal/logger"
	"github.com/isdelr/finance-tracker-be/internal/mail"
	"github.com/isdelr/finance-tracker-be/internal/maintenance"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/isdelr/finance-tracker-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Env, cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Set up storage
	store, err := database.Open(ctx, cfg.Database.URL, cfg.MongoDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()
	log.Info().Str("backend", string(database.BackendFor(cfg.Database.URL))).Msg("Database ready")

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	sender, closeSender, err := newMailSender(cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mail transport")
	}
	defer closeSender()

	var generator assistant.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := assistant.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
		}
		generator = gemini
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, chatbot disabled")
	}

	// Set up services
	tokens := auth.NewTokenManager(cfg.Tokens.Secret, cfg.Tokens.Issuer)
	eventService := services.NewEventService(store)
	userService := services.NewUserService(store, tokens, cfg.SessionTTL, eventService, hub)
	resetService := services.NewPasswordResetService(store, tokens, cfg.ResetTokenTTL, sender, cfg.AppURL, eventService)
	googleProvider, err := identity.NewGoogle(ctx, cfg.Google.ClientID, cfg.Google.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Google identity client")
	}
	googleService := services.NewGoogleLoginService(store, googleProvider, tokens, cfg.SessionTTL, eventService)
	transactionService := services.NewTransactionService(store, hub)
	noteService := services.NewNoteService(store, hub)
	chatService := services.NewChatService(store, store, generator, cfg.Gemini.Timeout)
	reportService := services.NewReportService(store, store)

	// Set up and run the maintenance scheduler
	scheduler := maintenance.NewScheduler(time.Minute)
	if err := scheduler.Add("purge-reset-tokens", cfg.ResetTokenSchedule, maintenance.PurgeResetTokens(store)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule reset token purge")
	}
	if err := scheduler.Add("prune-events", cfg.EventSchedule, maintenance.PruneEvents(store, cfg.EventRetention)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule event pruning")
	}
	go scheduler.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Tokens:              tokens,
		Hub:                 hub,
		Users:               userService,
		Resets:              resetService,
		Google:              googleService,
		Transactions:        transactionService,
		Notes:               noteService,
		Chat:                chatService,
		Reports:             reportService,
		Events:              eventService,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		ConcealUnknownEmail: cfg.ConcealUnknownEmail,
	})

	// Set up server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stop()
	<-hub.Done()

	log.Info().Msg("Server exiting")
}

// newMailSender picks the delivery path for reset emails. Without SMTP
// credentials nothing is sent and reset requests fail cleanly.
func newMailSender(cfg config.Mail) (mail.Sender, func(), error) {
	switch {
	case cfg.Transport == config.TransportAMQP:
		queue, err := mail.NewQueue(cfg.AMQPURL, cfg.Queue)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("queue", cfg.Queue).Msg("Reset emails are queued for the mailer")
		return queue, queue.Close, nil
	case cfg.MailConfigured():
		return mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password), func() {}, nil
	default:
		log.Warn().Msg("EMAIL_USER/EMAIL_PASS not set, password reset emails disabled")
		return mail.Disabled{}, func() {}, nil
	}
}
