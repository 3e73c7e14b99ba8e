// Package ui renders pdf2excel results and progress in the terminal.
package ui

import "github.com/fatih/color"

var (
	verboseFlag bool
	noColorFlag bool

	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold, color.Underline)
)

// InitUI applies the persistent --no-color and --verbose flags. Color is
// also off when stdout is not a terminal or NO_COLOR is set.
func InitUI(noColor, verbose bool) {
	verboseFlag = verbose
	if noColor {
		color.NoColor = true
	}
	noColorFlag = color.NoColor
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verboseFlag
}
