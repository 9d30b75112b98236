package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// FetchCommand creates the fetch command
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Refresh the local dataset cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Ignore the cached snapshot and download again",
			},
			&cli.IntFlag{
				Name:  "history",
				Usage: "Print the last N fetches after refreshing",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return fetchData(ctx, c.String("config"), c.Bool("force"), c.Int("history"))
		},
	}
}

func fetchData(ctx context.Context, configPath string, force bool, history int) error {
	e, err := openEnv(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	if force {
		if err := e.cache.Delete(ctx, e.loader.Source().Key()); err != nil {
			return err
		}
	}

	start := time.Now()
	res, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("fetching dataset: %w", err)
	}

	origin := "downloaded"
	switch {
	case res.Stale:
		origin = "stale cache"
	case res.Cached:
		origin = "cache"
	case res.NotModified:
		origin = "not modified"
	}
	fmt.Printf("%d entries from %s (%s, %s)\n",
		res.Dataset.Len(), e.loader.Source().Key(), origin, time.Since(start).Round(time.Millisecond))

	if history > 0 {
		recs, err := e.cache.History(ctx, history)
		if err != nil {
			return err
		}
		for _, r := range recs {
			status := "ok"
			if r.Error != "" {
				status = r.Error
			} else if r.Cached {
				status = "cached"
			}
			fmt.Printf("%-16s  %7s entries  %8s  %s\n",
				formatTime(r.StartedAt), formatNumber(r.Entries), r.Duration.Round(time.Millisecond), status)
		}
	}
	return nil
}
