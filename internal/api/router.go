package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/folioapp/folio/backend/internal/api/handlers"
	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// NewRouter wires every endpoint to its handler.
func NewRouter(
	portfolioHandler *handlers.PortfolioHandler,
	transactionHandler *handlers.TransactionHandler,
	marketHandler *handlers.MarketHandler,
	streamHandler *handlers.StreamHandler,
	db *database.DB,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(db)).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Portfolio endpoints
	api.HandleFunc("/portfolios", portfolioHandler.List).Methods("GET")
	api.HandleFunc("/portfolios", portfolioHandler.Create).Methods("POST")
	api.HandleFunc("/portfolios/upload", portfolioHandler.Upload).Methods("POST")
	api.HandleFunc("/portfolios/{id:[0-9]+}", portfolioHandler.Get).Methods("GET")
	api.HandleFunc("/portfolios/{id:[0-9]+}", portfolioHandler.Rename).Methods("PUT")
	api.HandleFunc("/portfolios/{id:[0-9]+}", portfolioHandler.Delete).Methods("DELETE")

	// Analytics endpoints
	api.HandleFunc("/portfolios/{id:[0-9]+}/metrics", portfolioHandler.Metrics).Methods("GET")
	api.HandleFunc("/portfolios/{id:[0-9]+}/optimize", portfolioHandler.Optimize).Methods("GET")
	api.HandleFunc("/portfolios/{id:[0-9]+}/value-over-time", portfolioHandler.ValueOverTime).Methods("GET")
	api.HandleFunc("/portfolios/{id:[0-9]+}/dca-simulation", portfolioHandler.DCASimulation).Methods("GET")

	// Transaction endpoints
	api.HandleFunc("/portfolios/{id:[0-9]+}/transactions", transactionHandler.List).Methods("GET")
	api.HandleFunc("/portfolios/{id:[0-9]+}/transactions", transactionHandler.Add).Methods("POST")
	api.HandleFunc("/portfolios/{id:[0-9]+}/transactions/{txID:[0-9]+}", transactionHandler.Update).Methods("PUT")
	api.HandleFunc("/portfolios/{id:[0-9]+}/transactions/{txID:[0-9]+}", transactionHandler.Delete).Methods("DELETE")

	// Market data endpoints
	api.HandleFunc("/market/quotes", marketHandler.Quotes).Methods("GET")
	api.HandleFunc("/market/history", marketHandler.History).Methods("GET")
	api.HandleFunc("/market/events", marketHandler.Events).Methods("GET")
	api.HandleFunc("/market/stream", streamHandler.Stream).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "ok",
			"service": "folio-api",
		}

		code := http.StatusOK
		if health, err := db.HealthCheck(r.Context()); err != nil || !health.Healthy {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
