package cli

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/config"
)

var (
	cfg *config.Config

	trackingURI string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "mlflowctl",
	Short: "Register, tag and serve models from an MLflow tracking server",
	Long: `mlflowctl drives the model lifecycle on an MLflow tracking server.

Pick the best run of a sweep, register the model it produced, manage
registry tags and serve a registered version.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if trackingURI != "" {
			loaded.Tracking.URI = trackingURI
		}
		if logLevel != "" {
			loaded.Logger.Level = logLevel
		}
		cfg = loaded
		initLogger(cfg)
		return nil
	},
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as serve and api.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&trackingURI, "tracking-uri", "", "MLflow tracking URI (overrides TRACKING_URI)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOGGER_LEVEL)")

	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(bestRunCmd)
	rootCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(registrationsCmd)
	rootCmd.AddCommand(apiCmd)
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
