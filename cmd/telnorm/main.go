package main

import (
	"os"

	"tel_handoff_backend/cmd/telnorm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
