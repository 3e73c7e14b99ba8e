package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/ui"
)

var extractForce bool

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Materialize the embedded bundle into the cache directory",
	Long: `Extract writes every embedded asset into the cache directory. Files that
already exist are left alone; use --force to remove the cache first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{interactive: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if extractForce {
			if err := a.extractor.Purge(); err != nil {
				return surfaced(err)
			}
			ui.Info("Removed %s", a.extractor.Root())
		}

		spin := ui.NewSpinner("Extracting bundle")
		spin.Start()
		err = a.extractor.ExtractDirectory("")
		spin.Stop()
		if err != nil {
			return surfaced(err)
		}

		ui.Success("Bundle extracted to %s", a.extractor.Root())
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractForce, "force", false, "remove the cache directory before extracting")
	rootCmd.AddCommand(extractCmd)
}
