package cli

import (
	"github.com/spf13/cobra"
)

func newGetCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <flag_key>",
		Short: "Print a flag definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := o.requireTenant()
			if err != nil {
				return err
			}
			flag, err := o.app.service.GetFlag(cmd.Context(), tenantID, args[0])
			if err != nil {
				return err
			}
			return o.write(cmd.OutOrStdout(), flag)
		},
	}
}
