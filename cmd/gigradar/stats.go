package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/gigradar/internal/api"
	"github.com/amishk599/gigradar/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print stored job statistics",
	Long:  "Prints the last-7-day totals and the all-time count of scam-like jobs.",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	week, err := s.Stats(ctx, time.Now().Add(-api.StatsWindow))
	if err != nil {
		logger.Error("failed to compute stats", "error", err)
		os.Exit(1)
	}
	scams, err := s.CountBelowScore(ctx, store.ScamScoreThreshold, time.Time{})
	if err != nil {
		logger.Error("failed to count scam-like jobs", "error", err)
		os.Exit(1)
	}

	fmt.Println("Last 7 days")
	fmt.Println(strings.Repeat("─", 32))
	fmt.Printf("%-22s %d\n", "Jobs stored", week.TotalJobs)
	fmt.Printf("%-22s %d\n", "High priority", week.HighPriority)
	fmt.Printf("%-22s %d\n", "Medium priority", week.MediumPriority)
	fmt.Printf("%-22s %d\n", "Scam-like", week.ScamsFiltered)
	fmt.Printf("\n%-22s %d\n", "Scam-like (all time)", scams)
	return nil
}
