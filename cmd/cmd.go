// Package cmd is the CLI entrypoint, matching the teacher's cmd/cmd.go
// shape: a urfave/cli/v2 App with one server command whose Action starts
// the fx.App and blocks until a termination signal arrives.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/protolens/vpbridge/internal/config"
)

const ServiceName = "vpbridge"

// Run builds and executes the CLI app.
func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "bridges a browser debugging UI to a virtual prototype simulator",
		Commands: []*cli.Command{
			serveCmd(),
		},
	}
	return app.Run(os.Args)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "run the bridge server",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tui", Usage: "run the operator TUI dashboard"},
		},
		Action: func(c *cli.Context) error {
			fs := pflag.NewFlagSet(ServiceName, pflag.ContinueOnError)
			config.Flags(fs)
			// c.Args() is already post-cli-parsing: --tui (registered only as
			// a urfave/cli flag) has been consumed, so it never reaches pflag.
			if err := fs.Parse(c.Args().Slice()); err != nil {
				return fmt.Errorf("cmd: parsing flags: %w", err)
			}

			app := NewApp(fs, c.Bool("tui"))

			if err := app.Start(c.Context); err != nil {
				return err
			}

			// §6 "Signals": SIGINT, SIGTERM, or SIGHUP triggers graceful
			// shutdown of the serving layer.
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			<-stop

			return app.Stop(context.Background())
		},
	}
}
