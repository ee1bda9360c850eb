// Command kvtool is a thin test runner over the kvtoolkit library: it is
// not a server and exposes no network RPC, only a handful of local
// subcommands useful for poking at a store from a shell.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "kvtool",
		Usage:   "exercise the kvtoolkit Model and Hexastore layers from the command line",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "build a memkv-backed Person model and a small Hexastore graph, then print query results",
				Action: demoCommand,
			},
			{
				Name:  "check",
				Usage: "open a store named in a kvconfig TOML document and report its status",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Required: true, Usage: "path to a kvconfig TOML document"},
					&cli.StringFlag{Name: "store", Required: true, Usage: "store alias to open"},
				},
				Action: checkCommand,
			},
			{
				Name:  "version",
				Usage: "print the kvtool version",
				Action: func(c *cli.Context) error {
					fmt.Println(version)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "kvtool:", err)
		os.Exit(1)
	}
}
