package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [tickers...]",
	Short: "Backfill close histories for tickers",
	Long: `Fetch daily close histories and store them in the database.

Example:
  go run ./cmd/folio fetch AAPL MSFT
  go run ./cmd/folio fetch --years 5 VTI`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

var fetchYears int

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchYears, "years", 3, "years of history to backfill")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Folio Price Backfill ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	tickers := make([]string, 0, len(args))
	for _, arg := range args {
		tickers = append(tickers, strings.ToUpper(strings.TrimSpace(arg)))
	}

	yahoo := marketdata.NewYahoo(cfg, log)
	prices := marketdata.NewPriceRepository(db, log)

	ctx := cmd.Context()
	now := time.Now().UTC()
	from := now.AddDate(-fetchYears, 0, 0)

	fmt.Printf("Fetching %d years of daily closes for %s\n", fetchYears, strings.Join(tickers, ", "))

	series, err := yahoo.Fetch(ctx, tickers, from, now, marketdata.Daily)
	if err != nil {
		return fmt.Errorf("fetch closes: %w", err)
	}

	written, err := prices.SaveCloses(ctx, series)
	if err != nil {
		return fmt.Errorf("save closes: %w", err)
	}

	for _, ticker := range tickers {
		fmt.Printf("  %-8s %d observations\n", ticker, len(series[ticker]))
	}
	fmt.Printf("\nStored %d rows\n", written)
	return nil
}
