package analytics

import (
	"time"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// Engine computes portfolio analytics from a transaction ledger and a
// price oracle. It is a pure calculator: every call derives a fresh
// result from the snapshot it is given, holds no per-portfolio state and
// is safe for concurrent use.
type Engine struct {
	oracle marketdata.Oracle
	logger *logger.Logger
	now    func() time.Time
}

// NewEngine creates a new analytics engine
func NewEngine(oracle marketdata.Oracle, log *logger.Logger) *Engine {
	return &Engine{
		oracle: oracle,
		logger: log.WithField("module", "analytics"),
		now:    time.Now,
	}
}

// WithClock overrides the wall clock, used by the optimizer's trailing
// window and the projection start date. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}
