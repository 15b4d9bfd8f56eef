package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [entries...]",
		Short: "Print the module dependency graph in build order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dot, _ := cmd.Flags().GetBool("dot")
			return c.app.Graph(cmd.Context(), app.GraphOptions{Entries: args, Dot: dot})
		},
	}
	cmd.Flags().Bool("dot", false, "Print the graph in Graphviz dot syntax")
	return cmd
}
