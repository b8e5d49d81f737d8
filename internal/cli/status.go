package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check that DataJud answers",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc Service) error {
		res := svc.TestConnectivity(ctx)
		if formatFlag == formatJSON {
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		}
		if !res.Success {
			return errors.New("connectivity check failed")
		}
		return nil
	})
}
