package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Manage experiments",
}

var experimentEnsureCmd = &cobra.Command{
	Use:   "ensure <name>",
	Short: "Get or create an experiment",
	Long: `Get an experiment by name, creating it when missing.

A deleted experiment is not restored: a new one named <name>_YYYYMMDD_HHMMSS
is created instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentEnsure,
}

func init() {
	experimentCmd.AddCommand(experimentEnsureCmd)
}

func runExperimentEnsure(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		exp, err := app.Experiments.Ensure(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Experiment: %s (ID: %s)\n", exp.Name, exp.ID)
		return nil
	})
}
