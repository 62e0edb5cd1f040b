package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// RouterConfig carries what NewRouter wires into the mux.
type RouterConfig struct {
	Forms         *controllers.FormController
	Registrations *controllers.RegistrationController
	CheckIns      *controllers.CheckInController
	Verifier      domain.TokenVerifier
	Logger        *slog.Logger
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Health   *HealthHandler
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	optional := middleware.OptionalAuth(cfg.Verifier, cfg.Logger)

	// Forms
	mux.HandleFunc("POST /events/{eventID}/forms", auth(cfg.Forms.CreateForm))
	mux.HandleFunc("PUT /events/{eventID}/forms/{formID}", auth(cfg.Forms.UpdateForm))
	mux.HandleFunc("GET /events/{eventID}/forms/{formID}", cfg.Forms.GetForm)

	// Registration and tickets
	mux.HandleFunc("POST /events/{eventID}/forms/{formID}/responses", optional(cfg.Registrations.Register))
	mux.HandleFunc("GET /events/{eventID}/forms/{formID}/responses", auth(cfg.Registrations.ListResponses))
	mux.HandleFunc("POST /events/{eventID}/forms/{formID}/responses/{responseID}/ticket", auth(cfg.Registrations.ResendTicket))
	mux.HandleFunc("POST /events/{eventID}/forms/{formID}/tickets", auth(cfg.Registrations.ResendAllTickets))

	// Check-in
	mux.HandleFunc("POST /events/{eventID}/forms/{formID}/check-in", auth(cfg.CheckIns.CheckIn))
	mux.HandleFunc("GET /events/{eventID}/forms/{formID}/check-ins", auth(cfg.CheckIns.ListCheckIns))

	if cfg.Health != nil {
		mux.Handle("GET /healthz", cfg.Health)
	}
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
