package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio/backend/internal/analytics"
	"github.com/folioapp/folio/backend/internal/api"
	"github.com/folioapp/folio/backend/internal/api/handlers"
	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/internal/store"
	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
	"github.com/folioapp/folio/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server.

Endpoints:
  GET    /health                                    - Health check
  GET    /api/portfolios                            - List portfolios
  POST   /api/portfolios                            - Create portfolio
  GET    /api/portfolios/{id}/metrics               - Performance metrics
  POST   /api/portfolios/{id}/optimize              - Min-variance allocation
  GET    /api/portfolios/{id}/value-over-time       - Monthly value series
  POST   /api/portfolios/{id}/dca-simulation        - Contribution projection
  GET    /api/portfolios/{id}/transactions          - List transactions
  POST   /api/portfolios/{id}/transactions/import   - CSV import
  GET    /api/market/quotes                         - Delayed quotes
  GET    /api/market/history                        - Close histories
  GET    /api/market/stream                         - WebSocket quote stream

Example:
  go run ./cmd/folio api
  go run ./cmd/folio api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Folio API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "folio")

	// 5. Create market data clients
	yahoo := marketdata.NewYahoo(cfg, log)
	oracle := marketdata.NewCachedOracle(yahoo, cache, cfg.Market.CacheTTL)
	quotes := marketdata.NewStooqQuotes(cfg, log)

	// 6. Create repositories
	portfolios := store.NewPortfolioRepository(db, log)
	transactions := store.NewTransactionRepository(db, log)

	// 7. Create analytics engine
	engine := analytics.NewEngine(oracle, log)

	// 8. Create handlers
	portfolioHandler := handlers.NewPortfolioHandler(portfolios, transactions, engine, log)
	transactionHandler := handlers.NewTransactionHandler(portfolios, transactions, log)
	marketHandler := handlers.NewMarketHandler(oracle, quotes, log)
	streamHandler := handlers.NewStreamHandler(quotes, log)

	// 9. Create router and server
	router := api.NewRouter(portfolioHandler, transactionHandler, marketHandler, streamHandler, db, log)
	server := api.New(cfg, log, router)

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
