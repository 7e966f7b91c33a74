package analytics

import (
	"time"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/logger"
)

func newTestEngine(oracle marketdata.Oracle, now time.Time) *Engine {
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
	return NewEngine(oracle, log).WithClock(func() time.Time { return now })
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
