package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/internal/scheduler"
	"github.com/folioapp/folio/backend/internal/scheduler/jobs"
	"github.com/folioapp/folio/backend/internal/store"
	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Start the scheduler daemon or trigger jobs.

Registered jobs:
- price_refresh: 10 PM on weekdays (close history refresh)

Subcommands:
  start   - start the scheduler daemon
  run     - run one job immediately

Example:
  go run ./cmd/folio scheduler start
  go run ./cmd/folio scheduler run price_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler builds the scheduler with every job registered.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	transactions := store.NewTransactionRepository(db, log)
	prices := marketdata.NewPriceRepository(db, log)
	yahoo := marketdata.NewYahoo(cfg, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewPriceRefreshJob(transactions, prices, yahoo, log)); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("register price refresh: %w", err)
	}

	return sched, db.Close, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Folio Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return err
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\nScheduler started. Registered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return err
	}
	defer cleanup()

	jobName := args[0]
	fmt.Printf("Running job %s...\n", jobName)
	if err := sched.RunJob(jobName); err != nil {
		return err
	}

	// RunJob is asynchronous; poll history until the run is recorded
	for {
		time.Sleep(500 * time.Millisecond)
		history, err := sched.History(jobName)
		if err != nil {
			return err
		}
		if latest := history.Latest(); latest != nil {
			if !latest.Success {
				return fmt.Errorf("job %s failed: %s", jobName, latest.Error)
			}
			fmt.Printf("Job %s completed in %s\n", jobName, latest.Duration)
			return nil
		}
	}
}
