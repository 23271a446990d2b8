package main

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/performia-monitor/internal/logger"
)

const version = "0.1.0"

var (
	// arguments
	argConfig   string
	argVerbose  bool
	argHeadless bool

	rootCmd = &cobra.Command{
		Use:     "performia-monitor",
		Short:   "Real-time audio input monitor and test tone generator",
		Version: version,
		// Running without a subcommand starts the monitor
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context())
		},
		SilenceUsage: true,
	}
)

func init() {
	// Cocoa calls made by systray and the hotkey need the main thread
	runtime.LockOSThread()

	rootCmd.PersistentFlags().StringVarP(&argConfig, "config", "c", "", "Path to the configuration file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&argVerbose, "verbose", "v", false, "Log at debug level to stderr")
	rootCmd.Flags().BoolVarP(&argHeadless, "headless", "", false, "Run without the tray icon and hotkey")
}

// cliLogger returns the stderr logger used by the one-shot commands
func cliLogger() *logger.Logger {
	level := logger.INFO
	if argVerbose {
		level = logger.DEBUG
	}
	return logger.NewWriter(os.Stderr, level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
