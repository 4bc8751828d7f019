package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/core/domain"
	"mlflow-registry-workflow/internal/core/services"
)

var (
	envExperiment string
	envRun        string
	envOutput     string
	envModelDir   string
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Download a logged model's environment files",
	Long: `Download python_env.yaml, conda.yaml and requirements.txt of a run's
model into a local directory.`,
	RunE: runEnv,
}

func init() {
	envCmd.Flags().StringVar(&envExperiment, "experiment", "", "experiment name")
	envCmd.Flags().StringVar(&envRun, "run", "", "run name")
	envCmd.Flags().StringVar(&envOutput, "output", ".", "output directory")
	envCmd.Flags().StringVar(&envModelDir, "model-dir", "", "model directory inside the run's artifacts")
	_ = envCmd.MarkFlagRequired("experiment")
	_ = envCmd.MarkFlagRequired("run")
}

func runEnv(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		result, err := app.Environment.Fetch(ctx, services.EnvFetchRequest{
			ExperimentName: envExperiment,
			RunName:        envRun,
			ModelDir:       envModelDir,
			OutputDir:      envOutput,
		}, app.Prompter)
		if result != nil {
			for _, f := range result.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "Downloaded: %s\n", f)
			}
		}
		if result != nil && errors.Is(err, domain.ErrMissingEnvFile) {
			return fmt.Errorf("model %s of run %s: %w", result.ModelDir, result.RunID, err)
		}
		return err
	})
}
