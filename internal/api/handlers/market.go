package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// maxQuoteTickers bounds one quotes request.
const maxQuoteTickers = 20

// MarketHandler serves quote snapshots and close histories.
type MarketHandler struct {
	oracle marketdata.Oracle
	quotes *marketdata.StooqQuotes
	logger *logger.Logger
}

func NewMarketHandler(oracle marketdata.Oracle, quotes *marketdata.StooqQuotes, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		oracle: oracle,
		quotes: quotes,
		logger: log,
	}
}

// parseTickers splits and uppercases the tickers query parameter.
func parseTickers(raw string) []string {
	var tickers []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

// Quotes returns delayed snapshots for the requested tickers
// GET /api/market/quotes?tickers=AAPL,MSFT
func (h *MarketHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	tickers := parseTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers parameter is required")
		return
	}
	if len(tickers) > maxQuoteTickers {
		respondError(w, http.StatusBadRequest, "Too many tickers requested")
		return
	}

	quotes := make([]*marketdata.Quote, 0, len(tickers))
	for _, ticker := range tickers {
		quote, err := h.quotes.Quote(r.Context(), ticker)
		if err != nil {
			h.logger.WithError(err).WithField("ticker", ticker).Warn("Quote lookup failed")
			continue
		}
		quotes = append(quotes, quote)
	}

	respondJSON(w, http.StatusOK, quotes)
}

// History returns close histories for the requested tickers
// GET /api/market/history?tickers=AAPL&from=2024-01-01&to=2024-06-30&interval=1d
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	tickers := parseTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		respondError(w, http.StatusBadRequest, "tickers parameter is required")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "to precedes from")
		return
	}

	granularity := marketdata.Daily
	if r.URL.Query().Get("interval") == "1mo" {
		granularity = marketdata.Monthly
	}

	series, err := h.oracle.Fetch(r.Context(), tickers, from, to, granularity)
	if err != nil {
		h.logger.WithError(err).Error("History fetch failed")
		respondError(w, http.StatusBadGateway, "Failed to fetch price data")
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// Events returns curated macro headlines within a date range
// GET /api/market/events?start_date=2020-01-01&end_date=2025-01-01
func (h *MarketHandler) Events(w http.ResponseWriter, r *http.Request) {
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Now().UTC()
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	respondJSON(w, http.StatusOK, map[string][]marketdata.Event{
		"events": marketdata.Events(from, to),
	})
}
