package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/ui"
	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/orders"
)

var (
	parseJSON  bool
	parseMerge bool
	parseOut   string
)

var parseCmd = &cobra.Command{
	Use:   "parse <pdf>...",
	Short: "Extract order rows from one or more PDFs",
	Long: `Parse runs the processing script on each PDF and prints the extracted
rows with totals. Use --out to save the result for a later "export".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print results as JSON")
	parseCmd.Flags().BoolVar(&parseMerge, "merge", false, "merge rows with the same part number")
	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "", "write the parse result to a JSON file (single PDF only)")
	rootCmd.AddCommand(parseCmd)
}

type parsedFile struct {
	path   string
	result *domain.ParseResult
	err    error
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseOut != "" && len(args) > 1 {
		return fmt.Errorf("--out accepts a single PDF, got %d", len(args))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{history: true, interactive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	files := parseAll(ctx, a, args)

	failed := 0
	for _, f := range files {
		if f.err != nil {
			failed++
			ui.Error("%s: %s", filepath.Base(f.path), surfaced(f.err))
			continue
		}
		if parseJSON {
			if err := printJSON(f.result); err != nil {
				return err
			}
			continue
		}
		printResult(f.path, f.result)
	}

	if parseOut != "" && files[0].err == nil {
		if err := saveResult(parseOut, files[0].result); err != nil {
			return err
		}
		ui.Success("Saved %d rows to %s", len(files[0].result.Items), parseOut)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d PDFs failed", failed, len(files))
	}
	return nil
}

func parseAll(ctx context.Context, a *app, paths []string) []parsedFile {
	files := make([]parsedFile, 0, len(paths))

	if len(paths) == 1 {
		spin := ui.NewSpinner("Parsing " + filepath.Base(paths[0]))
		spin.Start()
		result, err := a.svc.ParsePDF(ctx, paths[0])
		spin.Stop()
		return append(files, parsedFile{path: paths[0], result: result, err: err})
	}

	bar := ui.NewProgressBar(len(paths), "Parsing")
	for _, p := range paths {
		bar.Next(filepath.Base(p))
		result, err := a.svc.ParsePDF(ctx, p)
		files = append(files, parsedFile{path: p, result: result, err: err})
		bar.Done()
		if ctx.Err() != nil {
			break
		}
	}
	bar.Finish()
	return files
}

func printJSON(result *domain.ParseResult) error {
	if !parseMerge {
		return writeJSON(os.Stdout, result)
	}
	return writeJSON(os.Stdout, map[string]any{
		"items": orders.MergeByPartNo(result.Items),
		"info":  result.Info,
	})
}

func printResult(path string, result *domain.ParseResult) {
	ui.Section(filepath.Base(path))

	info := result.Info
	ui.KeyValue("订单号", info.OrderNo)
	ui.KeyValue("供应商", fmt.Sprintf("%s %s", info.SupplierNo, info.SupplierName))
	ui.KeyValue("客户名", info.CustomerName)
	ui.KeyValue("币种", info.Currency)
	ui.Newline()

	headers := []string{"日期", "客户名", "订单号", "零件号", "零件描述", "数量", "价格", "金额", "计划交货日期", "订单交期"}
	var rows [][]string
	if parseMerge {
		headers = append(headers, "合并")
		for _, it := range orders.MergeByPartNo(result.Items) {
			rows = append(rows, append(itemRow(it.OrderItem), fmt.Sprint(it.MergeCount)))
		}
	} else {
		for _, it := range result.Items {
			rows = append(rows, itemRow(it))
		}
	}
	ui.Table(headers, rows)

	qty, amount := orders.Totals(result.Items)
	ui.Newline()
	ui.Info("%d rows, total quantity %s, total amount %s %s",
		len(result.Items), orders.FormatNumber(qty, 2), orders.FormatNumber(amount, 2), info.Currency)
}

func itemRow(it domain.OrderItem) []string {
	return []string{
		orders.FormatDate(it.Date), it.CustomerName, it.OrderNo, it.PartNo, it.PartDescription,
		it.Quantity, it.UnitPrice, it.Amount, it.PlannedDeliveryDate, it.OrderDueDate,
	}
}

func saveResult(path string, result *domain.ParseResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()
	return writeJSON(f, result)
}

// elapsed is shared by commands that report how long they took.
func elapsed(start time.Time) string {
	return ui.FormatDuration(time.Since(start))
}
