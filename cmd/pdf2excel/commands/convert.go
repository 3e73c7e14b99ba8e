package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/ui"
	"github.com/spherical/pdf2excel/internal/orders"
	"github.com/spherical/pdf2excel/internal/pdf"
)

var (
	convertOutput string
	convertMerge  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <pdf>",
	Short: "Parse a PDF and write the rows to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output .xlsx path (default: next to the PDF)")
	convertCmd.Flags().BoolVar(&convertMerge, "merge", false, "merge rows with the same part number")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := args[0]
	output := convertOutput
	if output == "" {
		output = defaultOutput(input)
	}
	if err := pdf.NewValidator(nil).ValidateOutputPath(output); err != nil {
		return surfaced(err)
	}

	a, err := newApp(ctx, appOptions{history: true, interactive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	spin := ui.NewSpinner("Parsing " + filepath.Base(input))
	spin.Start()
	defer spin.Stop()

	result, err := a.svc.ParsePDF(ctx, input)
	if err != nil {
		return surfaced(err)
	}

	items := result.Items
	if convertMerge {
		items = orders.Flatten(orders.MergeByPartNo(items))
	}

	spin.Update("Writing " + filepath.Base(output))
	if err := a.svc.ExportExcel(ctx, output, items, result.Info); err != nil {
		return surfaced(err)
	}
	spin.Stop()

	ui.Success("Converted %s to %s (%d rows) in %s", filepath.Base(input), output, len(items), elapsed(start))
	return nil
}

// defaultOutput places the workbook next to the PDF with an .xlsx suffix.
func defaultOutput(input string) string {
	ext := filepath.Ext(input)
	return input[:len(input)-len(ext)] + ".xlsx"
}
