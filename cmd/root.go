package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kphang-wb/listing-match/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listing-match",
	Short: "Resolve organization descriptions to registry listings",
	Long:  "Queries the listing-profile search index for name/location candidates and accepts a match only when the top hit is statistically separable from the noise.",
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
