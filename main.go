package main

import (
	"os"

	"github.com/charmbracelet/log"

	"linktrace/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}
