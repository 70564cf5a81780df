package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/report"
)

var runDays int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate whole trading days without the UI and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runDays <= 0 {
			return fmt.Errorf("--days must be positive, got %d", runDays)
		}

		cfg, closer, err := setup(nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		gc := cfg.GameConfig()
		gc.Manual = true
		gc.DropEvents = true

		series, _ := loadSeries(cfg)
		ctrl, err := game.NewController(gc, history.NewStore(series...), log.StandardLogger())
		if err != nil {
			return err
		}
		defer ctrl.Close()

		results, err := ctrl.RunDays(ctx, runDays)
		out := cmd.OutOrStdout()
		for _, r := range results {
			report.WriteDay(out, r)
			fmt.Fprintln(out)
		}
		if err != nil {
			return err
		}

		snap := ctrl.Snapshot()
		report.WritePortfolio(out, snap)
		fmt.Fprintf(out, "Total assets %s (%+.2f%%)\n",
			snap.TotalAssets(), report.Change(gc.StartingCash, snap.TotalAssets()))
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runDays, "days", 5, "number of trading days to simulate")
}
