package main

import (
	"fmt"
	"os"

	"github.com/spherical/pdf2excel/cmd/pdf2excel/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
