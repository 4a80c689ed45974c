package main

import (
	"fmt"
	"os"

	"github.com/on-the-ground/effect_ive_loop/cmd/loopdemo/internal/app"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
