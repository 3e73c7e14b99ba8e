package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/ui"
	"github.com/spherical/pdf2excel/internal/orders"
	"github.com/spherical/pdf2excel/internal/pdf"
)

var (
	exportInput  string
	exportOutput string
	exportMerge  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a saved parse result to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "parse result JSON written by \"parse --out\" (required)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output .xlsx path (required)")
	exportCmd.Flags().BoolVar(&exportMerge, "merge", false, "merge rows with the same part number")
	exportCmd.MarkFlagRequired("input")
	exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pdf.NewValidator(nil).ValidateOutputPath(exportOutput); err != nil {
		return surfaced(err)
	}

	result, err := readResult(exportInput)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{history: true, interactive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	items := result.Items
	if exportMerge {
		items = orders.Flatten(orders.MergeByPartNo(items))
	}

	start := time.Now()
	spin := ui.NewSpinner(fmt.Sprintf("Writing %d rows", len(items)))
	spin.Start()
	err = a.svc.ExportExcel(ctx, exportOutput, items, result.Info)
	spin.Stop()
	if err != nil {
		return surfaced(err)
	}

	ui.Success("Exported %d rows to %s in %s", len(items), exportOutput, elapsed(start))
	return nil
}
