package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/gigradar/internal/api"
	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/review"
	"github.com/amishk599/gigradar/internal/store"
)

var reviewLimit int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Shows the priority picker, then the list/detail view of the newest stored jobs.",
	RunE:  runReviewCmd,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", api.RecentLimit, "maximum number of jobs to load")
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	// Any log output once the TUI is up corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	s, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	runReview(s, setupClassifier(cfg, silentLogger))
	return nil
}

func runReview(reader model.JobReader, classifier model.Classifier) {
	for {
		counts := weeklyCounts(reader)

		p, ok, err := review.RunPriorityPicker(counts)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if !ok {
			return
		}

		label := "all jobs"
		if p != "" {
			label = string(p) + " priority jobs"
		}
		jobs, err := review.RunLoader(label, func(ctx context.Context) ([]model.StoredJob, error) {
			return reader.Recent(ctx, reviewLimit, p)
		})
		if err != nil {
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}

		wantQuit, err := review.RunReviewTUI(label, jobs, classifier)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}

// weeklyCounts annotates the picker; failures just leave it unannotated.
func weeklyCounts(reader model.JobReader) map[model.Priority]int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	since := time.Now().Add(-api.StatsWindow)
	counts := make(map[model.Priority]int)
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow, model.PrioritySkip} {
		n, err := reader.CountByPriority(ctx, p, since)
		if err != nil {
			return nil
		}
		counts[p] = n
	}
	return counts
}
