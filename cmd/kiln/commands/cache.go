package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the artifact cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached artifacts and their size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.app.CacheStats(cmd.Context())
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check cached artifacts and drop damaged entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.app.CacheVerify(cmd.Context())
			return err
		},
	})

	return cmd
}
