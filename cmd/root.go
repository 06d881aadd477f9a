// Package cmd implements the pixelfind command line.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelfind/internal/config"
)

var (
	logLevel   string
	configPath string
	storeDir   string
	logger     *slog.Logger

	// cfg is replaced by the loaded configuration before any command runs.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "pixelfind",
	Short: "Exact template location in images and screen captures",
	Long: `pixelfind locates needle images inside haystack images or live screen
captures with a two-dimensional rolling hash. Every hash hit is verified pixel
by pixel, so reported positions are exact.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("store-dir") {
			loaded.StoreDir = storeDir
		}
		cfg = loaded
		setupLogger(cfg.LogLevel)
		return nil
	},
}

func setupLogger(name string) {
	var level slog.Level
	switch name {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./pixelfind.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Needle library directory (overrides store_dir)")
}
