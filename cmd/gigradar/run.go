package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/notifier"
	"github.com/amishk599/gigradar/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	Long:  "One-shot run: scrapes every enabled source, scores and stores new jobs, sends alerts, exits. With --dry-run nothing is stored and alerts go to the log.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not persist jobs or send notifications")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		jobStore model.JobStore
		n        model.Notifier
	)
	if dryRun {
		logger.Info("dry-run mode: nothing is persisted, alerts are logged")
		jobStore = store.NewNopStore()
		n = notifier.NewLogNotifier(logger)
	} else {
		st, err := openStorage(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer st.close()
		jobStore = st.jobs

		n, err = setupNotifier(cfg, logger)
		if err != nil {
			logger.Error("failed to set up notifier", "error", err)
			os.Exit(1)
		}
	}

	p, err := buildPipeline(cfg, jobStore, n, nil, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	count, err := p.RunOnce(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Run complete: %d new jobs\n", count)
	return nil
}
