package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tenant's flags",
		Long:  "List the tenant's flags as a table, or as structured output when --output is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := o.requireTenant()
			if err != nil {
				return err
			}

			flags, err := o.app.service.ListFlags(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			if f := cmd.Flag("output"); f != nil && f.Changed {
				return o.write(cmd.OutOrStdout(), flags)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tENABLED\tROLLOUT\tENV\tTAGS")
			for _, f := range flags {
				status := "off"
				if f.Enabled {
					status = "on"
				}
				fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\t%s\n", f.FlagKey, status, f.RolloutPercentage, f.Environment, strings.Join(f.Tags, ","))
			}
			return w.Flush()
		},
	}
}
