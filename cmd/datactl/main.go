package main

import (
	"os"

	"github.com/lfpl47/hiring-data-service/cmd/datactl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
