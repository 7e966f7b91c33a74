package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/folioapp/folio/backend/internal/analytics"
	"github.com/folioapp/folio/backend/internal/store"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// PortfolioHandler handles portfolio CRUD and analytics endpoints.
type PortfolioHandler struct {
	portfolios   *store.PortfolioRepository
	transactions *store.TransactionRepository
	engine       *analytics.Engine
	logger       *logger.Logger
}

func NewPortfolioHandler(
	portfolios *store.PortfolioRepository,
	transactions *store.TransactionRepository,
	engine *analytics.Engine,
	log *logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios:   portfolios,
		transactions: transactions,
		engine:       engine,
		logger:       log,
	}
}

// List returns the caller's portfolios
// GET /api/portfolios
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	portfolios, err := h.portfolios.List(r.Context(), user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list portfolios")
		respondError(w, http.StatusInternalServerError, "Failed to list portfolios")
		return
	}

	respondJSON(w, http.StatusOK, portfolios)
}

// CreateRequest names a new portfolio.
type CreateRequest struct {
	Name string `json:"name"`
}

// Create adds a portfolio
// POST /api/portfolios
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Portfolio name is required")
		return
	}

	portfolio, err := h.portfolios.Create(r.Context(), user, strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.WithError(err).Error("Failed to create portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to create portfolio")
		return
	}

	respondJSON(w, http.StatusCreated, portfolio)
}

// Get returns one portfolio
// GET /api/portfolios/{id}
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	portfolio, err := h.portfolios.GetByID(r.Context(), id, user)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to get portfolio")
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// Rename updates the portfolio name
// PUT /api/portfolios/{id}
func (h *PortfolioHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Portfolio name is required")
		return
	}

	portfolio, err := h.portfolios.Rename(r.Context(), id, user, strings.TrimSpace(req.Name))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to rename portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to rename portfolio")
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// Delete removes a portfolio and its transactions
// DELETE /api/portfolios/{id}
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	err := h.portfolios.Delete(r.Context(), id, user)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to delete portfolio")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ledger loads the portfolio's transaction history after the ownership
// check; a false return means the response is already written.
func (h *PortfolioHandler) ledger(w http.ResponseWriter, r *http.Request) (analytics.Ledger, int64, bool) {
	user, ok := userID(w, r)
	if !ok {
		return nil, 0, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, 0, false
	}

	if _, err := h.portfolios.GetByID(r.Context(), id, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Portfolio not found")
		} else {
			h.logger.WithError(err).Error("Failed to get portfolio")
			respondError(w, http.StatusInternalServerError, "Failed to get portfolio")
		}
		return nil, 0, false
	}

	transactions, err := h.transactions.List(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list transactions")
		respondError(w, http.StatusInternalServerError, "Failed to list transactions")
		return nil, 0, false
	}
	return transactions.Ledger(), id, true
}

// Metrics returns the portfolio performance summary
// GET /api/portfolios/{id}/metrics
func (h *PortfolioHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ledger, _, ok := h.ledger(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.engine.Metrics(r.Context(), ledger))
}

// Optimize computes the minimum-variance allocation at a target return
// GET /api/portfolios/{id}/optimize?target_return=0.08
func (h *PortfolioHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	targetReturn, err := queryFloat(r, "target_return", 0.20)
	if err != nil {
		respondError(w, http.StatusBadRequest, "target_return must be a number")
		return
	}

	ledger, id, ok := h.ledger(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio_id":        id,
		"target_return":       targetReturn,
		"optimization_result": h.engine.Optimize(r.Context(), ledger, targetReturn),
	})
}

// ValueOverTime returns the month-by-month portfolio value series
// GET /api/portfolios/{id}/value-over-time
func (h *PortfolioHandler) ValueOverTime(w http.ResponseWriter, r *http.Request) {
	ledger, _, ok := h.ledger(w, r)
	if !ok {
		return
	}

	report := h.engine.ValueOverTime(r.Context(), ledger)
	if report.Error != "" {
		respondError(w, http.StatusBadRequest, report.Error)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// DCASimulation projects recurring contributions forward under the
// portfolio's realized growth rate and the optimized allocation's rate
// GET /api/portfolios/{id}/dca-simulation?initial_investment&monthly_contribution&years&target_return
func (h *PortfolioHandler) DCASimulation(w http.ResponseWriter, r *http.Request) {
	initial, err := queryFloat(r, "initial_investment", 10000)
	if err != nil {
		respondError(w, http.StatusBadRequest, "initial_investment must be a number")
		return
	}
	contribution, err := queryFloat(r, "monthly_contribution", 500)
	if err != nil {
		respondError(w, http.StatusBadRequest, "monthly_contribution must be a number")
		return
	}
	years, err := queryInt(r, "years", 10)
	if err != nil || years <= 0 || years > 50 {
		respondError(w, http.StatusBadRequest, "years must be between 1 and 50")
		return
	}
	targetReturn, err := queryFloat(r, "target_return", 0.10)
	if err != nil {
		respondError(w, http.StatusBadRequest, "target_return must be a number")
		return
	}

	ledger, _, ok := h.ledger(w, r)
	if !ok {
		return
	}

	metrics := h.engine.Metrics(r.Context(), ledger)
	if metrics.CAGR == 0 {
		respondError(w, http.StatusBadRequest, "CAGR could not be calculated from portfolio.")
		return
	}

	outcome := h.engine.Optimize(r.Context(), ledger, targetReturn)
	if outcome.Optimization == nil {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Optimization failed",
			"reason":  outcome.Message,
		})
		return
	}

	respondJSON(w, http.StatusOK, h.engine.Project(initial, contribution, years, metrics.CAGR, outcome.CAGR))
}

// maxUploadSize caps CSV uploads at 5 MiB.
const maxUploadSize = 5 << 20

// Upload creates a portfolio from a transaction CSV
// POST /api/portfolios/upload
func (h *PortfolioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(w, http.StatusBadRequest, "File must be a CSV")
		return
	}

	rows, err := store.ParseCSV(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	portfolio, err := h.portfolios.Create(r.Context(), user, "Imported Portfolio")
	if err != nil {
		h.logger.WithError(err).Error("Failed to create portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to create portfolio")
		return
	}

	if _, err := h.transactions.BulkInsert(r.Context(), portfolio.ID, rows); err != nil {
		h.logger.WithError(err).Error("Failed to import transactions")
		respondError(w, http.StatusInternalServerError, "Failed to import transactions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Portfolio and transactions uploaded",
		"portfolio_id": portfolio.ID,
	})
}
