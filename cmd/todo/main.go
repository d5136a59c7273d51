package main

import (
	"fmt"
	"os"

	"github.com/nhle/todo/internal/theme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
