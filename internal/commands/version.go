package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "freightmap %s\ncommit: %s\nbuilt: %s\n",
				a.build.Version, a.build.Commit, a.build.Date)
			return err
		},
	}
}
