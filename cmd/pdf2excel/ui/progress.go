package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar counts processed PDFs in a multi-file run. It renders on
// stderr so stdout stays clean for --json.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a bar over total files.
func NewProgressBar(total int, description string) *ProgressBar {
	return &ProgressBar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pdf"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionEnableColorCodes(!noColorFlag),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)}
}

// Next labels the bar with the file about to be processed.
func (p *ProgressBar) Next(label string) {
	p.bar.Describe(truncate(label, 32))
}

// Done marks one file processed.
func (p *ProgressBar) Done() {
	_ = p.bar.Add(1)
}

// Finish completes the bar even when the run stopped early.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Spinner shows an indeterminate wait around a single interpreter call.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a stopped spinner labelled with message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[11], 120*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	if !noColorFlag {
		_ = s.Color("cyan")
	}
	return &Spinner{s: s}
}

func (s *Spinner) Start() { s.s.Start() }

// Stop clears the spinner line. Calling it twice is harmless.
func (s *Spinner) Stop() { s.s.Stop() }

// Update replaces the label of a running spinner.
func (s *Spinner) Update(message string) {
	s.s.Suffix = " " + message
}

// truncate shortens s to at most width terminal columns.
func truncate(s string, width int) string {
	if displayWidth(s) <= width {
		return s
	}
	out := []rune{}
	w := 0
	for _, r := range s {
		rw := displayWidth(string(r))
		if w+rw > width-1 {
			break
		}
		out = append(out, r)
		w += rw
	}
	return string(out) + "…"
}
