package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/core/domain"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts <run-id>",
	Short: "Show the artifacts of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifacts,
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		tree, err := app.Resolver.Tree(ctx, args[0])
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), tree)
		return nil
	})
}

func printTree(w io.Writer, tree *domain.ArtifactTree) {
	fmt.Fprintln(w, "\nAvailable artifacts:")
	for i, n := range tree.Nodes {
		kind := "(file)"
		if n.IsDir {
			kind = "(dir)"
		}
		fmt.Fprintf(w, "%d. %s %s\n", i+1, n.Path, kind)
		for _, c := range n.Children {
			fmt.Fprintf(w, "   - %s\n", c.Path)
		}
	}
}
