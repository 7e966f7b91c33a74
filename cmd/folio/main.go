package main

import (
	"os"

	"github.com/folioapp/folio/backend/cmd/folio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
