package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/finance-tracker-be/internal/api/handlers"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/logger"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/isdelr/finance-tracker-be/internal/websocket"
)

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Tokens              *auth.TokenManager
	Hub                 *websocket.Hub
	Users               services.UserServiceProvider
	Resets              services.PasswordResetProvider
	Google              services.GoogleLoginProvider
	Transactions        services.TransactionServiceProvider
	Notes               services.NoteServiceProvider
	Chat                services.ChatServiceProvider
	Reports             services.ReportServiceProvider
	Events              services.EventServiceProvider
	AllowedOrigins      []string
	ConcealUnknownEmail bool
	// DisableRateLimit turns the per-IP limits off, for tests.
	DisableRateLimit bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Resets, deps.Google, deps.ConcealUnknownEmail)
	transactionHandler := handlers.NewTransactionHandler(deps.Transactions)
	budgetHandler := handlers.NewBudgetHandler(deps.Users)
	noteHandler := handlers.NewNoteHandler(deps.Notes)
	chatHandler := handlers.NewChatHandler(deps.Chat)
	reportHandler := handlers.NewReportHandler(deps.Reports)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Tokens, deps.Users, deps.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler()

	r.Get("/health", healthHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ws", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.limiter(limitSignup)...).Post("/signup", authHandler.Signup)
			r.With(deps.limiter(limitLogin)...).Post("/login", authHandler.Login)
			r.With(deps.limiter(limitLogin)...).Post("/google", authHandler.Google)
			r.With(deps.limiter(limitPasswordReset)...).Post("/forgot-password", authHandler.ForgotPassword)
			r.With(deps.limiter(limitPasswordReset)...).Post("/reset-password", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(deps.Tokens, deps.Users))
				r.Get("/me", authHandler.Me)
				r.Put("/profile", authHandler.UpdateProfile)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(deps.Tokens, deps.Users))

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", transactionHandler.List)
				r.Post("/", transactionHandler.Create)
				r.Delete("/{id}", transactionHandler.Delete)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", budgetHandler.List)
				r.Post("/", budgetHandler.Replace)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", noteHandler.List)
				r.Post("/", noteHandler.Create)
				r.Put("/{id}", noteHandler.Update)
				r.Delete("/{id}", noteHandler.Delete)
			})

			r.With(deps.limiter(limitChat)...).Post("/chatbot/message", chatHandler.Message)
			r.Get("/reports/summary", reportHandler.Summary)
			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}

func (d Dependencies) limiter(mw func() func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if d.DisableRateLimit {
		return nil
	}
	return []func(http.Handler) http.Handler{mw()}
}
