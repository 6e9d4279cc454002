package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lotnotify/lotbridge/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lotbridge",
	Short: "Auction lot notification bridge",
	Long:  "Receives auction lot webhooks, extracts vehicle identity and price from listing slugs, enriches via VIN and valuation services, and delivers Telegram notifications.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
