package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/leaderboard/pkg/counts"
	"github.com/rubiojr/leaderboard/pkg/filter"
	"github.com/rubiojr/leaderboard/pkg/model"
)

// CountsCommand creates the counts command
func CountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "counts",
		Usage: "Show the filter count tables",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "official",
				Usage: "Show counts restricted to official providers",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showCounts(ctx, c.String("config"), c.Bool("official"))
		},
	}
}

func showCounts(ctx context.Context, configPath string, official bool) error {
	e, err := openEnv(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.loadStore(ctx)
	if err != nil {
		return err
	}
	t := s.FilterCounts().Active(official)

	title := "Filter counts"
	if official {
		title += " (official providers)"
	}
	fmt.Println(titleStyle.Render(title))
	fmt.Println(renderCounts(t))
	return nil
}

func renderCounts(t counts.Table) string {
	var types [][]string
	for _, key := range model.TypeOrder {
		types = append(types, []string{model.TypeIcon(key) + " " + model.TypeLabel(key), strconv.Itoa(t.Type(key))})
	}

	var precisions [][]string
	for _, p := range slices.Sorted(maps.Keys(t.Precisions)) {
		precisions = append(precisions, []string{p, strconv.Itoa(t.Precision(p))})
	}

	var sizes [][]string
	for _, p := range filter.Presets() {
		if p.Bucket == "" {
			continue
		}
		sizes = append(sizes, []string{p.Label, strconv.Itoa(t.Range(p.Bucket))})
	}

	flags := [][]string{
		{"Official providers", strconv.Itoa(t.MaintainersHighlight)},
		{"Mixture of experts", strconv.Itoa(t.MixtureOfExperts)},
		{"Merged", strconv.Itoa(t.Merged)},
		{"Flagged", strconv.Itoa(t.Flagged)},
		{"Available on hub", strconv.Itoa(t.NotOnHub)},
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		countTable("Type", types),
		countTable("Precision", precisions),
		countTable("Size", sizes),
		countTable("Flags", flags),
	)
}

func countTable(name string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(name, "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}
