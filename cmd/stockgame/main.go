package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zappabad/daytrader/internal/config"
	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/history/csvsource"
)

var (
	configPath string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "stockgame",
	Short:         "Day-trading game driven by historical daily closes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "file of STOCKGAME_* variables to load")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(playCmd, runCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and points the standard logger at it.
// adjust, if not nil, may change the config before the logger is set up.
func setup(adjust func(*config.Config)) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if adjust != nil {
		adjust(cfg)
	}
	closer, err := cfg.ConfigureLogger(log.StandardLogger())
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

// loadSeries reads every configured data file. A file that cannot be read
// leaves its data source empty, which freezes the instruments using it.
func loadSeries(cfg *config.Config) ([]history.Series, []error) {
	opts := csvsource.Options{Encoding: cfg.Data.Encoding}

	series := make([]history.Series, len(cfg.Data.Files))
	errs := make([]error, len(cfg.Data.Files))
	for i, path := range cfg.Data.Files {
		s, err := csvsource.LoadFile(path, opts)
		if err != nil {
			log.WithError(err).WithField("data_source", i).Warn("historical data unavailable")
			errs[i] = err
			continue
		}
		log.WithFields(log.Fields{
			"data_source": i,
			"file":        path,
			"entries":     len(s),
		}).Debug("historical data loaded")
		series[i] = s
	}
	return series, errs
}
