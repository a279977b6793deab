package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <flag_key>",
		Short: "Delete a flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := o.requireTenant()
			if err != nil {
				return err
			}
			if err := o.app.service.DeleteFlag(cmd.Context(), tenantID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
