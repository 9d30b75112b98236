package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rubiojr/leaderboard/pkg/version"
	"github.com/urfave/cli/v3"
)

// VersionCommand creates the version command
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "short",
				Usage: "Print only the release number",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the build information as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			switch {
			case c.Bool("json"):
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(version.Get())
			case c.Bool("short"):
				_, err := fmt.Fprintln(w, version.APIVersion())
				return err
			}
			_, err := fmt.Fprintln(w, version.BuildVersion())
			return err
		},
	}
}
