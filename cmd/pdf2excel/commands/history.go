package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/ui"
	"github.com/spherical/pdf2excel/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{history: true, interactive: true})
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.svc.History(cmd.Context(), historyLimit)
		if err != nil {
			return surfaced(err)
		}
		if len(entries) == 0 {
			ui.Info("No conversions recorded yet")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Command,
				string(e.Status),
				fmt.Sprint(e.ItemCount),
				ui.FormatDuration(e.Duration),
				e.Path,
				e.Error,
			})
		}
		ui.Table([]string{"TIME", "COMMAND", "STATUS", "ROWS", "DURATION", "PATH", "ERROR"}, rows)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultLimit, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
