package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/redis"
)

func newHealthCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the flag backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := o.app.backend
			if b.Name != feature.BackendRedis {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", b.Name)
				return nil
			}

			repo, ok := b.Repository.(*feature.RedisRepository)
			if !ok {
				return errors.New("redis backend without redis repository")
			}
			if err := redis.Healthcheck(repo.Conn())(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", b.Name)
			return nil
		},
	}
}
