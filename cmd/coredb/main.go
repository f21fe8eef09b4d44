package main

import (
	"fmt"
	"os"

	"coredb/cmd/coredb/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
