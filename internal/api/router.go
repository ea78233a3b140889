package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teamenforcer/internal/api/apierr"
	"github.com/mcoot/teamenforcer/internal/api/handler"
	apimw "github.com/mcoot/teamenforcer/internal/api/middleware"
	"github.com/mcoot/teamenforcer/internal/api/response"
	"github.com/mcoot/teamenforcer/internal/metrics"
	"github.com/mcoot/teamenforcer/internal/middleware"
	"github.com/mcoot/teamenforcer/internal/notify"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Enforcer *enforcer.Enforcer
	Hub      *notify.Hub
	// TokenHashes are bcrypt hashes of accepted operator tokens. Empty leaves the API open.
	TokenHashes []string
	// Metrics serves Prometheus metrics on /metrics
	Metrics bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	participantHandler := handler.NewParticipantHandler(cfg.Enforcer)
	eventHandler := handler.NewEventHandler(cfg.Enforcer)
	commandHandler := handler.NewCommandHandler(cfg.Enforcer)
	adminHandler := handler.NewAdminHandler(cfg.Enforcer)

	if cfg.Metrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	}))
	api.Use(middleware.Logging(cfg.Logger, "/api/v1/health"))
	api.Use(middleware.Metrics)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg)).Methods(http.MethodGet)

	// Everything else needs an operator token
	protected := api.NewRoute().Subrouter()
	protected.Use(apimw.Auth(cfg.TokenHashes, cfg.Logger))

	protected.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		notify.ServeSSE(w, r, cfg.Hub)
	}).Methods(http.MethodGet)

	// Participant mirror
	protected.HandleFunc("/participants", participantHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/participants", participantHandler.Connect).Methods(http.MethodPost)
	protected.HandleFunc("/participants/{identity}", participantHandler.Disconnect).Methods(http.MethodDelete)
	protected.HandleFunc("/participants/{identity}/role", participantHandler.SetRole).Methods(http.MethodPut)

	// Lifecycle events and participant commands
	protected.HandleFunc("/events/{event}", eventHandler.Post).Methods(http.MethodPost)
	protected.HandleFunc("/commands/{command}", commandHandler.Run).Methods(http.MethodPost)
	protected.HandleFunc("/queue", commandHandler.Queue).Methods(http.MethodGet)

	// Operator commands
	protected.HandleFunc("/bans", adminHandler.Ban).Methods(http.MethodPost)
	protected.HandleFunc("/bans/{target}", adminHandler.BanInfo).Methods(http.MethodGet)
	protected.HandleFunc("/bans/{target}", adminHandler.Unban).Methods(http.MethodDelete)
	protected.HandleFunc("/bans/{target}/history", adminHandler.BanHistory).Methods(http.MethodGet)
	protected.HandleFunc("/guards/legitimate", adminHandler.Legitimate).Methods(http.MethodGet)
	protected.HandleFunc("/guards/{target}/promote", adminHandler.Promote).Methods(http.MethodPost)
	protected.HandleFunc("/guards/{target}/kick", adminHandler.Kick).Methods(http.MethodPost)
	protected.HandleFunc("/queue/{target}", adminHandler.Dequeue).Methods(http.MethodDelete)

	return r
}

func healthHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, response.Health{
			Status:        "ok",
			BansAvailable: cfg.Enforcer.BansAvailable(),
			StreamClients: cfg.Hub.ClientCount(),
		})
	}
}
