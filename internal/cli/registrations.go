package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	ports "mlflow-registry-workflow/internal/core/ports/output"
)

var (
	registrationsModelName string
	registrationsLimit     int
)

var registrationsCmd = &cobra.Command{
	Use:   "registrations",
	Short: "List registrations recorded in the ledger",
	Long:  `List registrations made through mlflowctl. Requires DATABASE_URL.`,
	RunE:  runRegistrations,
}

func init() {
	registrationsCmd.Flags().StringVar(&registrationsModelName, "model-name", "", "only this registered model")
	registrationsCmd.Flags().IntVar(&registrationsLimit, "limit", 20, "maximum number of entries")
}

func runRegistrations(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		events, err := app.Registrar.History(ctx, ports.RegistrationFilter{
			ModelName: registrationsModelName,
			Limit:     registrationsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tMODEL\tVERSION\tRUN\tURI")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.Local().Format(time.DateTime), e.ModelName, e.Version, e.RunID, e.ModelURI)
		}
		return w.Flush()
	})
}
