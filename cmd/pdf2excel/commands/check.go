package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show where the interpreter and processing script resolve to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{interactive: true})
		if err != nil {
			return err
		}
		defer a.Close()

		env := a.svc.Environment()

		ui.Section("Environment")
		ui.KeyValue("Interpreter", env.Interpreter+presence(env.Interpreter))
		ui.KeyValue("Script", env.Script+presence(env.Script))
		ui.KeyValue("Cache", a.extractor.Root())
		ui.Newline()

		if !a.svc.CheckEnvironment() {
			ui.Error("Environment is incomplete")
			return fmt.Errorf("environment check failed")
		}
		ui.Success("Environment is ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (missing)"
	}
	return ""
}
