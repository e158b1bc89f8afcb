package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/greenstack-labs/envmon-controller/internal/config"
	"github.com/greenstack-labs/envmon-controller/internal/env"
	"github.com/greenstack-labs/envmon-controller/internal/logging"
	"github.com/greenstack-labs/envmon-controller/system/startup"
)

var (
	configFile string
	dbFile     string
	logLevel   string
	logFile    string
	safeMode   bool
)

var rootCmd = &cobra.Command{
	Use:   "envmon-controller",
	Short: "Severity-graded environmental monitor",
	Long: `Runs the environmental monitor: six binary sensor-health signals are
aggregated into a severity level each tick, and six actuator outputs are
driven to counteract the detected faults.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		cfg := config.Load(config.Options{
			ConfigFile: configFile,
			DBFile:     dbFile,
			LogLevel:   logLevel,
			LogFile:    logFile,
			SafeMode:   safeMode,
		})
		env.Cfg = cfg

		logging.Init(cfg.LogLevel, cfg.LogFile)

		log.Info().
			Str("config_file", cfg.ConfigFile).
			Str("db_file", cfg.DBFile).
			Msg("Starting environmental monitor")

		return startup.Run(ctx, cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config-file", "config.json", "Path to controller config file")
	rootCmd.Flags().StringVar(&dbFile, "db-file", "data/envmon.db", "Path to tick history database")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Optional log file path")
	rootCmd.Flags().BoolVar(&safeMode, "safe-mode", false, "Disable physical GPIO writes")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
