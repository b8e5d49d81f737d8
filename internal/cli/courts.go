package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jurisearch/internal/court"
)

func init() {
	cmd := &cobra.Command{
		Use:   "courts",
		Short: "List the courts searched by default",
		Args:  cobra.NoArgs,
		RunE:  runCourts,
	}

	RootCmd.AddCommand(cmd)
}

func runCourts(cmd *cobra.Command, args []string) error {
	courts := court.Default().All()
	if formatFlag == formatJSON {
		return printJSON(cmd.OutOrStdout(), courts)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, c := range courts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Alias, c.Name, c.Endpoint)
	}
	return tw.Flush()
}
