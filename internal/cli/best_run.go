package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/core/domain"
)

var (
	bestRunExperiment      string
	bestRunStrategy        string
	bestRunMetric          string
	bestRunHyperparameters []string
	bestRunParent          string
	bestRunLogSummary      bool
)

var bestRunCmd = &cobra.Command{
	Use:   "best-run",
	Short: "Select the best run of a hyperparameter sweep",
	Long: `Select the best run of an experiment and print its summary.

Strategies:
  score-ordered    lowest value of --metric
  tag-matched      child run whose params equal the parent's best_* params
  latest-finished  newest run that finished successfully

With --log-summary the summary is also stored as summary_<strategy>.txt on
the sweep parent run.

Examples:
  mlflowctl best-run --experiment apples_demand --strategy tag-matched
  mlflowctl best-run --experiment apples_demand --strategy tag-matched --log-summary`,
	RunE: runBestRun,
}

func init() {
	bestRunCmd.Flags().StringVar(&bestRunExperiment, "experiment", "", "experiment name")
	bestRunCmd.Flags().StringVar(&bestRunStrategy, "strategy", string(domain.StrategyScoreOrdered), "selection strategy")
	bestRunCmd.Flags().StringVar(&bestRunMetric, "metric", domain.DefaultSelectionMetric, "metric to minimize for score-ordered")
	bestRunCmd.Flags().StringSliceVar(&bestRunHyperparameters, "hyperparameter", nil, "hyperparameter to compare (repeatable)")
	bestRunCmd.Flags().StringVar(&bestRunParent, "parent-run", "", "parent run id of the sweep")
	bestRunCmd.Flags().BoolVar(&bestRunLogSummary, "log-summary", false, "store the summary as an artifact of the sweep parent run")
	_ = bestRunCmd.MarkFlagRequired("experiment")
}

func runBestRun(cmd *cobra.Command, args []string) error {
	strategy := domain.SelectionStrategy(bestRunStrategy)
	if !strategy.IsValid() {
		return fmt.Errorf("%q: %w", bestRunStrategy, domain.ErrInvalidStrategy)
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		exp, err := app.Experiments.Require(ctx, bestRunExperiment)
		if err != nil {
			return err
		}

		run, err := app.Selector.SelectBest(ctx, exp.ID, domain.SearchCriteria{
			Strategy:        strategy,
			Metric:          bestRunMetric,
			Hyperparameters: bestRunHyperparameters,
			ParentRunID:     bestRunParent,
		})
		if err != nil {
			return err
		}

		summary := app.Selector.Summarize(exp.Name, run, bestRunHyperparameters)
		fmt.Fprint(cmd.OutOrStdout(), summary)
		if !bestRunLogSummary {
			return nil
		}

		target, err := app.Selector.LogSummary(ctx, run, bestRunParent, strategy, summary)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSummary logged to run %s\n", target)
		return nil
	})
}
