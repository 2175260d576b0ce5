package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"AginMusic/config"
	"AginMusic/logger"
	"AginMusic/server"
)

// cfg 在 PersistentPreRun 中加载，所有子命令共享
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "aginmusic",
	Short: "AginMusic is a Subsonic-compatible music aggregation gateway.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			Compress:   true,
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
}
