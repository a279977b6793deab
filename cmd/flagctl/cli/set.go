package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

type setOptions struct {
	file        string
	name        string
	description string
	enabled     bool
	environment string
	tags        []string
	actor       string

	percentage  int
	userIDs     []string
	segments    []string
	geographies []string
	rules       map[string]string
	start       string
	end         string
}

func newSetCommand(o *rootOptions) *cobra.Command {
	so := &setOptions{}

	cmd := &cobra.Command{
		Use:   "set <flag_key>",
		Short: "Create or replace a flag",
		Long: `Create or replace a flag. The definition is built from flags, or read
from --file as JSON, or YAML for .yaml/.yml files ("-" reads JSON from stdin). Rollout options are only attached when
at least one of them is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := o.requireTenant()
			if err != nil {
				return err
			}

			var flag *feature.Flag
			if so.file != "" {
				flag, err = readFlagFile(so.file, cmd.InOrStdin())
			} else {
				flag, err = so.build(cmd)
			}
			if err != nil {
				return err
			}
			flag.TenantID = tenantID
			flag.Key = args[0]

			if err := o.app.service.SaveFlag(cmd.Context(), flag); err != nil {
				return err
			}
			saved, err := o.app.service.GetFlag(cmd.Context(), tenantID, args[0])
			if err != nil {
				return err
			}
			return o.write(cmd.OutOrStdout(), saved)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&so.file, "file", "f", "", `Read the flag definition from a JSON or YAML file ("-" for stdin)`)
	f.StringVar(&so.name, "name", "", "Display name")
	f.StringVar(&so.description, "description", "", "Description")
	f.BoolVar(&so.enabled, "enabled", false, "Baseline state of the flag")
	f.StringVar(&so.environment, "environment", "", "Environment label")
	f.StringSliceVar(&so.tags, "tags", nil, "Tags")
	f.StringVar(&so.actor, "actor", "", "Author recorded on the flag")
	f.IntVar(&so.percentage, "percentage", feature.DefaultPercentage, "Percentage of users in the rollout (0-100)")
	f.StringSliceVar(&so.userIDs, "users", nil, "Allow-listed user IDs")
	f.StringSliceVar(&so.segments, "segments", nil, "Segments admitted to the rollout")
	f.StringSliceVar(&so.geographies, "geographies", nil, "Countries admitted to the rollout")
	f.StringToStringVar(&so.rules, "rule", nil, "Custom attribute rules, e.g. --rule plan=pro")
	f.StringVar(&so.start, "start", "", "Rollout start (RFC 3339)")
	f.StringVar(&so.end, "end", "", "Rollout end (RFC 3339)")
	cmd.MarkFlagsMutuallyExclusive("file", "name")
	return cmd
}

func (so *setOptions) build(cmd *cobra.Command) (*feature.Flag, error) {
	flag := &feature.Flag{
		Name:           so.name,
		Description:    so.description,
		Enabled:        so.enabled,
		Environment:    so.environment,
		Tags:           so.tags,
		CreatedBy:      so.actor,
		LastModifiedBy: so.actor,
	}

	rolloutFlags := []string{"percentage", "users", "segments", "geographies", "rule", "start", "end"}
	changed := false
	for _, name := range rolloutFlags {
		if cmd.Flags().Changed(name) {
			changed = true
			break
		}
	}
	if !changed {
		return flag, nil
	}

	r := feature.NewRolloutStrategy()
	r.Percentage = so.percentage
	r.UserIDs = so.userIDs
	r.Segments = so.segments
	r.Geographies = so.geographies
	if len(so.rules) > 0 {
		r.CustomRules = make(map[string]any, len(so.rules))
		for k, v := range so.rules {
			r.CustomRules[k] = v
		}
	}
	var err error
	if r.StartDate, err = parseTime(so.start); err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	if r.EndDate, err = parseTime(so.end); err != nil {
		return nil, fmt.Errorf("--end: %w", err)
	}
	flag.Rollout = r
	return flag, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func readFlagFile(path string, stdin io.Reader) (*feature.Flag, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var flag feature.Flag
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// YAML is normalized to JSON so both formats share the field names.
		var doc any
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode flag definition: %w", err)
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("decode flag definition: %w", err)
		}
		if err := json.Unmarshal(raw, &flag); err != nil {
			return nil, fmt.Errorf("decode flag definition: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&flag); err != nil {
			return nil, fmt.Errorf("decode flag definition: %w", err)
		}
	}
	return &flag, nil
}
