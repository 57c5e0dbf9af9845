package main

import (
	"os"

	gate "github.com/l2gate/gate"
	"github.com/l2gate/gate/common"
	"github.com/l2gate/gate/config"
	"github.com/l2gate/gate/log"
	"github.com/urfave/cli/v2"
)

const appName = "gate"

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: false,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     config.FlagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run",
		Required: false,
		Value:    cli.NewStringSlice(common.RPC, common.RELAY),
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = gate.Version
	flags := []cli.Flag{
		&configFileFlag,
		&componentsFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the gate client",
			Action:  start,
			Flags:   flags,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}
