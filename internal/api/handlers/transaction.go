package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/folioapp/folio/backend/internal/store"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// TransactionHandler handles ledger row endpoints.
type TransactionHandler struct {
	portfolios   *store.PortfolioRepository
	transactions *store.TransactionRepository
	logger       *logger.Logger
}

func NewTransactionHandler(
	portfolios *store.PortfolioRepository,
	transactions *store.TransactionRepository,
	log *logger.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		portfolios:   portfolios,
		transactions: transactions,
		logger:       log,
	}
}

// owned verifies the caller owns the portfolio in the path; a false
// return means the response is already written.
func (h *TransactionHandler) owned(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user, ok := userID(w, r)
	if !ok {
		return 0, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return 0, false
	}

	if _, err := h.portfolios.GetByID(r.Context(), id, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Portfolio not found")
		} else {
			h.logger.WithError(err).Error("Failed to get portfolio")
			respondError(w, http.StatusInternalServerError, "Failed to get portfolio")
		}
		return 0, false
	}
	return id, true
}

// List returns the portfolio's transactions
// GET /api/portfolios/{id}/transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	transactions, err := h.transactions.List(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list transactions")
		respondError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, transactions)
}

// AddRequest is one new ledger row.
type AddRequest struct {
	Date   string  `json:"date"`
	Ticker string  `json:"ticker"`
	Action string  `json:"action"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
}

// Add inserts one transaction
// POST /api/portfolios/{id}/transactions
func (h *TransactionHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	if req.Shares < 0 || req.Price < 0 || req.Amount < 0 {
		respondError(w, http.StatusBadRequest, "Shares, price and amount cannot be negative")
		return
	}

	added, err := h.transactions.Add(r.Context(), store.Transaction{
		PortfolioID: id,
		Date:        date,
		Ticker:      ticker,
		Action:      strings.ToLower(strings.TrimSpace(req.Action)),
		Shares:      req.Shares,
		Price:       req.Price,
		Amount:      req.Amount,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to add transaction")
		respondError(w, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	respondJSON(w, http.StatusCreated, added)
}

// Update replaces one transaction's fields
// PUT /api/portfolios/{id}/transactions/{txID}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}
	txID, ok := pathID(w, r, "txID")
	if !ok {
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	if req.Shares < 0 || req.Price < 0 || req.Amount < 0 {
		respondError(w, http.StatusBadRequest, "Shares, price and amount cannot be negative")
		return
	}

	updated, err := h.transactions.Update(r.Context(), store.Transaction{
		ID:          txID,
		PortfolioID: id,
		Date:        date,
		Ticker:      ticker,
		Action:      strings.ToLower(strings.TrimSpace(req.Action)),
		Shares:      req.Shares,
		Price:       req.Price,
		Amount:      req.Amount,
		Notes:       req.Notes,
	})
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to update transaction")
		respondError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Delete removes one transaction
// DELETE /api/portfolios/{id}/transactions/{txID}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}
	txID, ok := pathID(w, r, "txID")
	if !ok {
		return
	}

	err := h.transactions.Delete(r.Context(), id, txID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete transaction")
		respondError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
