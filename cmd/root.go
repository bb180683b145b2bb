package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "homematch",
	Short: "Buyer requirement matching pipeline",
	Long:  "Extracts buyer requirements from call transcripts via Claude, searches listing sources, ranks candidates, and sends approved matches by email or WhatsApp.",
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
