package main

import (
	"os"

	"github.com/pixelbin/pixelbin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
