package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/internal/service"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the command surface responds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), service.New(nil, nil, service.Options{}).Probe())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
