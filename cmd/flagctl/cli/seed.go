package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

func newSeedCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the demo flag set for the two demo tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := feature.DemoFlags(feature.NewEvaluator().Now())
			if err := feature.Seed(cmd.Context(), o.app.backend.Repository, flags...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d flags into %s backend\n", len(flags), o.app.backend.Name)
			return nil
		},
	}
}
