package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/inkdash/config"
	"github.com/spektr-org/inkdash/dataset"
	"github.com/spektr-org/inkdash/inmates"
)

// ============================================================================
// INKDASH CLI — Florida inmate offenses and tattoos dashboard
// ============================================================================

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string
	dataDir    string
	timeout    time.Duration

	// Logger
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	// Tables loaded by this process
	tablesMemo *dataset.Memo
)

var rootCmd = &cobra.Command{
	Use:     "inkdash",
	Short:   "inkdash - Florida inmate offenses and tattoos dashboard",
	Version: version,
	Long: `inkdash loads the Florida inmate tables and serves an interactive
dashboard of offense trends, demographics and tattoo text mining.

Data is read from ./data (Parquet through DuckDB, CSV, or a SQLite
database). Configuration comes from inkdash.yaml or INKDASH_CONFIG, with
INKDASH_* environment overrides.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		zcfg.Level = logLevel
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: inkdash.yaml or INKDASH_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "load-timeout", 5*time.Minute, "Dataset load timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(optionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if !verbose {
		if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return config.Config{}, fmt.Errorf("log level: %w", err)
		}
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
		if cfg.Artifacts.Root == "" || cfg.Artifacts.Root == config.Default().Data.Dir {
			cfg.Artifacts.Root = dataDir
		}
	}
	return cfg, nil
}

// loadTables opens the configured source on first use and loads every
// table. Later calls in the same process return the first load.
func loadTables(ctx context.Context, cfg config.Config) (*inmates.Tables, error) {
	if tablesMemo == nil {
		src, err := dataset.Open(cfg.DatasetOptions())
		if err != nil {
			return nil, err
		}
		tablesMemo = dataset.NewMemo(src, logger)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return tablesMemo.Tables(ctx)
}
