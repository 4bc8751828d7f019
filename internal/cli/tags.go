package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/core/domain"
)

var (
	tagsModelName string
	tagsVersion   string
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags of a registered model or one of its versions",
	Long: `Open the interactive tag manager.

Without --version the registered model's own tags are managed; with it, the
tags of that version. The two sets are independent.`,
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().StringVar(&tagsModelName, "model-name", "", "registered model name")
	tagsCmd.Flags().StringVar(&tagsVersion, "version", "", "model version")
	_ = tagsCmd.MarkFlagRequired("model-name")
}

func runTags(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		return app.Prompter.TagMenu(ctx, app.Tags, domain.TagTarget{ModelName: tagsModelName, Version: tagsVersion})
	})
}
