package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

func newEvaluateCommand(o *rootOptions) *cobra.Command {
	var (
		userID string
		attrs  map[string]string
		env    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate <flag_key> [flag_key...]",
		Short: "Evaluate one or more flags for a user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := o.requireTenant()
			if err != nil {
				return err
			}

			user := feature.NewUserContext(tenantID, userID, attrs)
			if env != "" {
				user.Environment = env
			} else {
				user.Environment = o.app.env.String()
			}

			if len(args) == 1 {
				res, err := o.app.service.Evaluate(cmd.Context(), tenantID, args[0], user)
				if err != nil {
					return err
				}
				return o.write(cmd.OutOrStdout(), res)
			}

			resp, err := o.app.service.EvaluateAll(cmd.Context(), tenantID, args, user)
			if err != nil {
				return err
			}
			return o.write(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID to evaluate for")
	cmd.Flags().StringToStringVarP(&attrs, "attr", "a", nil, "User attributes, e.g. --attr segment=enterprise,country=US")
	cmd.Flags().StringVar(&env, "env", "", "Environment recorded on the user context (defaults to APP_ENV)")
	return cmd
}
