package main

import (
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zappabad/daytrader/internal/config"
	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/tui"
)

var logFile string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the game in the terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs would corrupt the alternate screen.
		cfg, closer, err := setup(func(c *config.Config) {
			if logFile != "" {
				c.Logging.File = logFile
			}
			if c.Logging.File == "" {
				c.Logging.File = "stockgame.log"
			}
		})
		if err != nil {
			return err
		}
		defer closer.Close()

		series, _ := loadSeries(cfg)
		ctrl, err := game.NewController(cfg.GameConfig(), history.NewStore(series...), log.StandardLogger())
		if err != nil {
			return err
		}
		defer ctrl.Close()

		p := tea.NewProgram(tui.NewModel(ctrl), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	playCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (default stockgame.log)")
}
