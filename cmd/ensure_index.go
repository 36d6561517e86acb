package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ensureIndexCmd = &cobra.Command{
	Use:     "ensure-index",
	Aliases: []string{"init-index"},
	Short:   "Create the search index with its mapping if it does not exist",
	Long: `Creates the search index when it is missing. An existing index is kept
as long as its mapping is compatible; an incompatible one is reported and
never dropped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())

		if err := a.ensureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "search index ready (%s)\n", a.cfg.Search.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ensureIndexCmd)
}
