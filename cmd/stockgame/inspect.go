package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zappabad/daytrader/internal/analytics"
	"github.com/zappabad/daytrader/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print statistics for the configured historical series",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closer, err := setup(nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		if len(cfg.Data.Files) == 0 {
			return fmt.Errorf("no data files configured")
		}

		series, errs := loadSeries(cfg)
		rows := make([]report.SeriesRow, len(series))
		for i, s := range series {
			rows[i] = report.SeriesRow{Index: i, Path: cfg.Data.Files[i], Err: errs[i]}
			if errs[i] != nil {
				continue
			}
			rows[i].Stats, rows[i].Err = analytics.SummarizeSeries(s)
		}

		report.WriteSeries(cmd.OutOrStdout(), rows)

		for _, in := range cfg.Instruments {
			if in.DataSource >= len(series) || !series[in.DataSource].Usable() {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s has no usable series (data source %d)\n", in.Name, in.DataSource)
			}
		}
		return nil
	},
}
