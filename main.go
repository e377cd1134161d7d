package main

import (
	"os"

	"github.com/terpworks/campusevents/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
