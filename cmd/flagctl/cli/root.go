// Package cli implements the flagctl command tree.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errTenantRequired = errors.New("--tenant is required")

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

type rootOptions struct {
	tenantID    string
	envFiles    []string
	showMetrics bool
	output      string

	app *app
}

// NewRootCommand builds the flagctl command tree. The backend is opened
// before every subcommand and closed after it returns, even on error.
func NewRootCommand(version string) *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:          "flagctl",
		Short:        "flagctl evaluates and manages multi-tenant feature flags",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if o.output != outputJSON && o.output != outputYAML {
				return fmt.Errorf("unsupported output format %q", o.output)
			}
			a, err := openApp(cmd.Context(), cmd.ErrOrStderr(), o.envFiles)
			if err != nil {
				return err
			}
			o.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&o.tenantID, "tenant", "t", "", "Tenant ID the command operates on")
	root.PersistentFlags().StringSliceVar(&o.envFiles, "env-file", nil, "Additional .env files to load")
	root.PersistentFlags().StringVarP(&o.output, "output", "o", "json", "Output format for structured results: json or yaml")
	root.PersistentFlags().BoolVar(&o.showMetrics, "metrics", false, "Print collected metrics to stderr on exit")

	for _, sub := range []*cobra.Command{
		newEvaluateCommand(o),
		newListCommand(o),
		newGetCommand(o),
		newSetCommand(o),
		newDeleteCommand(o),
		newSeedCommand(o),
		newHealthCommand(o),
	} {
		sub.RunE = o.withApp(sub.RunE)
		root.AddCommand(sub)
	}
	return root
}

// withApp releases the backend after run returns, whether or not it failed.
// Cobra does not run post-run hooks after a failed RunE.
func (o *rootOptions) withApp(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if o.showMetrics {
			err = errors.Join(err, o.app.writeMetrics(cmd.ErrOrStderr()))
		}
		return errors.Join(err, o.app.close())
	}
}

func (o *rootOptions) requireTenant() (string, error) {
	if o.tenantID == "" {
		return "", errTenantRequired
	}
	return o.tenantID, nil
}

// write prints v in the selected output format. YAML output goes through
// the JSON encoding so both formats share field names.
func (o *rootOptions) write(w io.Writer, v any) error {
	if o.output != outputYAML {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
