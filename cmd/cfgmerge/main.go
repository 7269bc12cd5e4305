package main

import (
	"os"

	"github.com/dshills/cfgmerge/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
