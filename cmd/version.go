package main

import (
	"os"

	gate "github.com/l2gate/gate"
	"github.com/urfave/cli/v2"
)

func versionCmd(*cli.Context) error {
	gate.PrintVersion(os.Stdout)
	return nil
}
