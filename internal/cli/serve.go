package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/core/services"
)

var (
	serveModelName  string
	serveVersion    string
	servePort       int
	serveHost       string
	serveEnvManager string
	serveTarget     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a registered model version",
	Long: `Serve models:/<name>/<version>.

With a single version it is served directly. With several and no --version
you are asked to choose. The local target runs "mlflow models serve" in the
foreground; the kserve target creates an InferenceService and waits for it.

Examples:
  mlflowctl serve --model-name rf_apples --port 5002`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveModelName, "model-name", "", "registered model name")
	serveCmd.Flags().StringVar(&serveVersion, "version", "", "version to serve")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to serve on (default SERVE_PORT)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind (default SERVE_HOST)")
	serveCmd.Flags().StringVar(&serveEnvManager, "env-manager", "", "local, virtualenv or conda (default SERVE_ENV_MANAGER)")
	serveCmd.Flags().StringVar(&serveTarget, "target", "", "local or kserve (default SERVE_TARGET)")
	_ = serveCmd.MarkFlagRequired("model-name")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveTarget != "" {
		cfg.Serve.Target = serveTarget
	}
	req := services.ServeRequest{
		ModelName:  serveModelName,
		Version:    serveVersion,
		Host:       firstNonEmpty(serveHost, cfg.Serve.Host),
		Port:       servePort,
		EnvManager: firstNonEmpty(serveEnvManager, cfg.Serve.EnvManager),
	}
	if req.Port == 0 {
		req.Port = cfg.Serve.Port
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving model %s on port %d\n", req.ModelName, req.Port)
		return app.Launcher.Launch(ctx, req, app.Prompter)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
