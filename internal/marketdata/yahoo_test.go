package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/logger"
)

func newYahooFixture(t *testing.T, handler http.HandlerFunc) *Yahoo {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{LogLevel: "error", LogFormat: "json"}
	cfg.Market.YahooBaseURL = server.URL
	cfg.Market.RatePerSec = 1000
	cfg.Market.Burst = 100
	return NewYahoo(cfg, logger.New(cfg))
}

func TestYahooFetchParsesChartPayload(t *testing.T) {
	jan31 := time.Date(2024, time.January, 31, 14, 30, 0, 0, time.UTC)
	feb1 := jan31.AddDate(0, 0, 1)
	feb2 := jan31.AddDate(0, 0, 2)

	client := newYahooFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))

		// Second close is null (halted day), third is the next close
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d],`+
			`"indicators":{"quote":[{"close":[185.5,null,187.25]}]}}],"error":null}}`,
			jan31.Unix(), feb1.Unix(), feb2.Unix())
	})

	series, err := client.Fetch(context.Background(), []string{"AAPL"}, jan31.AddDate(0, 0, -7), feb2, Daily)
	require.NoError(t, err)

	prices := series["AAPL"]
	require.Len(t, prices, 2)
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), prices[0].Date)
	assert.Equal(t, 185.5, prices[0].Close)
	assert.Equal(t, 187.25, prices[1].Close)
}

func TestYahooFetchMonthlyStampsMonthEnd(t *testing.T) {
	dec1 := time.Date(2023, time.December, 1, 5, 0, 0, 0, time.UTC)

	client := newYahooFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1mo", r.URL.Query().Get("interval"))
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d],`+
			`"indicators":{"quote":[{"close":[192.53]}]}}],"error":null}}`, dec1.Unix())
	})

	series, err := client.Fetch(context.Background(), []string{"AAPL"}, dec1.AddDate(0, -2, 0), dec1.AddDate(0, 1, 0), Monthly)
	require.NoError(t, err)

	prices := series["AAPL"]
	require.Len(t, prices, 1)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), prices[0].Date)
}

func TestYahooFetchSkipsRejectedTickers(t *testing.T) {
	now := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	client := newYahooFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v8/finance/chart/NOPE" {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d],`+
			`"indicators":{"quote":[{"close":[100.0]}]}}],"error":null}}`, now.Unix())
	})

	series, err := client.Fetch(context.Background(), []string{"AAPL", "NOPE"}, now.AddDate(0, 0, -7), now, Daily)
	require.NoError(t, err)
	assert.Contains(t, series, "AAPL")
	assert.NotContains(t, series, "NOPE")
}

func TestYahooFetchHonorsContextCancellation(t *testing.T) {
	client := newYahooFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, []string{"AAPL"}, time.Now().AddDate(0, -1, 0), time.Now(), Daily)
	assert.Error(t, err)
}
