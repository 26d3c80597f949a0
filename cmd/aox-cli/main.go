package main

import (
	"os"

	"github.com/PHJ369906/aox-miniapp/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
