package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/pkg/logger"
)

const (
	// streamInterval is how often delayed quotes are pushed
	streamInterval = 15 * time.Second

	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// StreamHandler pushes delayed quote snapshots over a WebSocket.
type StreamHandler struct {
	quotes   *marketdata.StooqQuotes
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewStreamHandler(quotes *marketdata.StooqQuotes, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		quotes: quotes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: log,
	}
}

// Stream upgrades the connection and pushes quotes until the client
// disconnects
// GET /api/market/stream?tickers=AAPL,MSFT
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tickers := parseTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 || len(tickers) > maxQuoteTickers {
		respondError(w, http.StatusBadRequest, "tickers parameter is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.WithFields(map[string]interface{}{
		"remote":  r.RemoteAddr,
		"tickers": len(tickers),
	}).Info("Quote stream opened")

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Drain client frames so pongs and close frames are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	// First snapshot immediately, then on every tick
	if !h.push(r, conn, tickers) {
		return
	}
	for {
		select {
		case <-done:
			h.logger.Info("Quote stream closed by client")
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			if !h.push(r, conn, tickers) {
				return
			}
		}
	}
}

func (h *StreamHandler) push(r *http.Request, conn *websocket.Conn, tickers []string) bool {
	snapshot := make([]*marketdata.Quote, 0, len(tickers))
	for _, t := range tickers {
		quote, err := h.quotes.Quote(r.Context(), t)
		if err != nil {
			continue
		}
		snapshot = append(snapshot, quote)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(map[string]interface{}{
		"type":   "quotes",
		"at":     time.Now().UTC().Format(time.RFC3339),
		"quotes": snapshot,
	}); err != nil {
		h.logger.WithError(err).Warn("Quote stream write failed")
		return false
	}
	return true
}
