package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mantonx/streamflow/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	runner := NewRunner()

	app := &cli.Command{
		Name:     "streamflow",
		Usage:    "Video streaming backend: catalog, VIP subscriptions and playback",
		Version:  server.Version,
		Flags:    []cli.Flag{configFlag()},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "streamflow: %v\n", err)
		os.Exit(1)
	}
}
