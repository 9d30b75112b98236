package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/leaderboard/cmd"
	"github.com/rubiojr/leaderboard/pkg/config"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "leaderboard",
		Usage: "Filter, rank and share views of the Open LLM Leaderboard",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringSliceFlag{
				Name:  "debug-service",
				Usage: "Enable debug logging for one service (repeatable)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			for _, name := range c.StringSlice("debug-service") {
				log.EnableDebugFor(name)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.FetchCommand(),
			cmd.QueryCommand(),
			cmd.CountsCommand(),
			cmd.ServeCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get default config path: %v\n", err)
		os.Exit(1)
	}
	return path
}
