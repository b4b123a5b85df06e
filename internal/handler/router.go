package handler

import (
	"net/http"

	"brokerkyc/internal/middleware"
	"brokerkyc/pkg/logger"

	"github.com/gorilla/mux"
)

// NewRouter assembles the API surface with the shared middleware chain.
func NewRouter(
	onboardingHandler *OnboardingHandler,
	complianceHandler *ComplianceHandler,
	surveillanceHandler *SurveillanceHandler,
	healthHandler *HealthHandler,
	log logger.Logger,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.NewLoggingMiddleware(log).Log)

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/kyc/onboard", onboardingHandler.Onboard).Methods(http.MethodPost)
	api.HandleFunc("/kyc/renew/{client_id}", onboardingHandler.Renew).Methods(http.MethodPost)
	api.HandleFunc("/kyc/expiring", complianceHandler.Expiring).Methods(http.MethodGet)

	api.HandleFunc("/compliance/check-funds", complianceHandler.CheckFunds).Methods(http.MethodPost)
	api.HandleFunc("/compliance/settlement-due", complianceHandler.SettlementDue).Methods(http.MethodGet)
	api.HandleFunc("/reports/margin", complianceHandler.MarginReport).Methods(http.MethodGet)

	api.HandleFunc("/surveillance/run-check", surveillanceHandler.RunCheck).Methods(http.MethodGet, http.MethodPost)

	api.HandleFunc("/clients/notify", complianceHandler.Notify).Methods(http.MethodPost)

	return r
}
