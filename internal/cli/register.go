package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/core/domain"
	"mlflow-registry-workflow/internal/core/services"
)

var (
	registerExperiment   string
	registerModelName    string
	registerRunID        string
	registerArtifactPath string
	registerTags         string
	registerVersionTags  string
	registerManageTags   bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a run's model in the model registry",
	Long: `Register the model logged by a run as a new registered model version.

Without --run-id the latest finished run of the experiment is used. When the
run holds several model directories and --artifact-path is not given, you are
asked to pick one.

Examples:
  mlflowctl register --experiment apples_demand --model-name rf_apples --tags "team=forecast,owner=ml"`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerExperiment, "experiment", "", "experiment name")
	registerCmd.Flags().StringVar(&registerModelName, "model-name", "", "name to register the model under")
	registerCmd.Flags().StringVar(&registerRunID, "run-id", "", "run to register (default: latest finished run)")
	registerCmd.Flags().StringVar(&registerArtifactPath, "artifact-path", "", "model directory inside the run's artifacts")
	registerCmd.Flags().StringVar(&registerTags, "tags", "", `registered model tags, "k1=v1,k2=v2"`)
	registerCmd.Flags().StringVar(&registerVersionTags, "version-tags", "", `model version tags, "k1=v1,k2=v2"`)
	registerCmd.Flags().BoolVar(&registerManageTags, "manage-tags", false, "open the tag manager for the new version afterwards")
	_ = registerCmd.MarkFlagRequired("experiment")
	_ = registerCmd.MarkFlagRequired("model-name")
}

func runRegister(cmd *cobra.Command, args []string) error {
	modelTags, err := domain.ParseTags(registerTags)
	if err != nil {
		return err
	}
	versionTags, err := domain.ParseTags(registerVersionTags)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		fmt.Fprintf(out, "Using tracking URI: %s\n", app.Config.Tracking.URI)

		exp, err := app.Experiments.Require(ctx, registerExperiment)
		if err != nil {
			return err
		}

		runID := registerRunID
		if runID == "" {
			fmt.Fprintf(out, "Loading latest successful model from experiment: %s\n", exp.Name)
			run, err := app.Selector.SelectBest(ctx, exp.ID, domain.SearchCriteria{Strategy: domain.StrategyLatestFinished})
			if err != nil {
				return err
			}
			runID = run.ID
			fmt.Fprintf(out, "Found latest run ID: %s\n", runID)
		}

		var resolved *domain.ResolvedArtifact
		if registerArtifactPath != "" {
			resolved, err = app.Resolver.ResolvePath(ctx, runID, registerArtifactPath)
		} else {
			resolved, err = app.Resolver.Resolve(ctx, runID, app.Prompter)
		}
		if err != nil {
			return err
		}
		if resolved.Tree != nil {
			printTree(out, resolved.Tree)
		}

		fmt.Fprintf(out, "\nRegistering model from: %s\nModel name: %s\n", resolved.URI, registerModelName)
		version, err := app.Registrar.Register(ctx, services.RegisterRequest{
			ModelURI:    resolved.URI,
			ModelName:   registerModelName,
			ModelTags:   modelTags,
			VersionTags: versionTags,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Model registered with version: %s\n", version.Version)

		if !registerManageTags {
			return nil
		}
		manage, err := app.Prompter.Confirm(ctx, "\nWould you like to manage tags for this model?")
		if err != nil || !manage {
			return err
		}
		return app.Prompter.TagMenu(ctx, app.Tags, domain.TagTarget{ModelName: registerModelName, Version: version.Version})
	})
}
