package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Status lines go to stdout except errors, which go to stderr.

func Error(format string, args ...any)   { status(os.Stderr, errorColor, "✗", format, args...) }
func Success(format string, args ...any) { status(os.Stdout, successColor, "✓", format, args...) }
func Warning(format string, args ...any) { status(os.Stdout, warningColor, "!", format, args...) }
func Info(format string, args ...any)    { status(os.Stdout, infoColor, "•", format, args...) }

func status(w io.Writer, c *color.Color, mark, format string, args ...any) {
	c.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Newline prints an empty line on stdout.
func Newline() {
	fmt.Fprintln(os.Stdout)
}

// Section prints a title underlined to its display width.
func Section(title string) {
	fmt.Fprintln(os.Stdout)
	headerColor.Fprintln(os.Stdout, title)
	fmt.Fprintln(os.Stdout, strings.Repeat("─", displayWidth(title)))
}
