package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/httputil"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// Quote is a delayed snapshot of a single instrument.
type Quote struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Last      float64 `json:"last"`
	ChangePct float64 `json:"change_pct"`
}

// StooqQuotes scrapes delayed quotes from stooq.com quote pages. It
// backs the lightweight quote endpoint that does not need a full close
// history.
type StooqQuotes struct {
	http    *httputil.Client
	baseURL string
	logger  *logger.Logger
}

func NewStooqQuotes(cfg *config.Config, log *logger.Logger) *StooqQuotes {
	return &StooqQuotes{
		http:    httputil.New(log).WithRateLimit(cfg.Market.RatePerSec, cfg.Market.Burst),
		baseURL: cfg.Market.StooqBaseURL,
		logger:  log.WithField("module", "marketdata"),
	}
}

// Quote fetches and parses the quote page for one ticker.
func (s *StooqQuotes) Quote(ctx context.Context, ticker string) (*Quote, error) {
	symbol := stooqSymbol(ticker)

	resp, err := s.http.Get(ctx, fmt.Sprintf("%s/q/?s=%s", s.baseURL, symbol))
	if err != nil {
		return nil, fmt.Errorf("fetch quote page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page: %w", err)
	}

	lastText := doc.Find(fmt.Sprintf("span[id='aq_%s_c2']", symbol)).First().Text()
	last, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(lastText), ",", ""), 64)
	if err != nil || last <= 0 {
		return nil, fmt.Errorf("no quote for %s", ticker)
	}

	quote := &Quote{
		Ticker: strings.ToUpper(ticker),
		Name:   pageName(doc),
		Last:   last,
	}

	changeText := doc.Find(fmt.Sprintf("span[id='aq_%s_m2']", symbol)).First().Text()
	changeText = strings.TrimSuffix(strings.TrimSpace(changeText), "%")
	if pct, err := strconv.ParseFloat(changeText, 64); err == nil {
		quote.ChangePct = pct
	}

	return quote, nil
}

// stooqSymbol maps a plain US ticker to the provider's symbol scheme;
// tickers that already carry a market suffix pass through.
func stooqSymbol(ticker string) string {
	symbol := strings.ToLower(strings.TrimSpace(ticker))
	if !strings.Contains(symbol, ".") {
		symbol += ".us"
	}
	return symbol
}

func pageName(doc *goquery.Document) string {
	// Quote pages title as "SYMBOL - Name - Stooq"
	title := strings.TrimSpace(doc.Find("title").First().Text())
	parts := strings.Split(title, " - ")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return title
}
