package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/segmenter/segmenter"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    segmenter.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "segmenter-cli",
	Short: "Assign customers to marketing segments",
	Long: `segmenter-cli standardizes customer attributes with the trained scaler,
assigns the nearest KMeans cluster and prints the matching segment profile.

Artifacts are located through config.json (or a YAML file passed with --config).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := segmenter.LoadConfig(configPath)
		if err != nil {
			// init-config writes a fresh file, so a broken one must not block it.
			if cmd.Name() != initConfigName {
				return fmt.Errorf("load config: %w", err)
			}
			loaded = segmenter.DefaultConfig()
		}
		cfg = loaded
		logCfg := cfg.Log
		logCfg.Development = true
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = segmenter.NewLogger(logCfg, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
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
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json or config.yaml (default: ./config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(predictCmd, batchCmd, segmentsCmd, summaryCmd, validateCmd, serveCmd, initConfigCmd)
}

// loadService builds the prediction service from the loaded config.
func loadService(ctx context.Context) (*segmenter.Service, error) {
	svc, err := segmenter.NewService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	return svc, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
