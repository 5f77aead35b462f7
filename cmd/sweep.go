package cmd

import (
	"context"

	"github.com/spigell/talent-intake/internal/retention"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove sessions older than the retention window once and exit",
	Run: func(_ *cobra.Command, _ []string) {
		sweep()
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func sweep() {
	config, logger := prepare("sweep", true)
	defer logger.Sync()

	ctx := context.Background()
	store, err := openStore(ctx, config)
	if err != nil {
		logger.Fatal("opening session store", zap.Error(err))
	}
	defer store.Close()

	removed, err := retention.New(store, config.Session.Retention, 0, logger).Sweep(ctx)
	if err != nil {
		logger.Fatal("sweeping sessions", zap.Error(err))
	}
	logger.Info("sweep finished", zap.Int("removed", removed), zap.Duration("window", config.Session.Retention))
}
