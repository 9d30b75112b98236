package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/ranking"
	"github.com/rubiojr/leaderboard/pkg/search"
	"github.com/rubiojr/leaderboard/pkg/store"
	"github.com/rubiojr/leaderboard/pkg/urlsync"
	"github.com/rubiojr/leaderboard/pkg/view"
)

// QueryCommand creates the query command
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Render the leaderboard for a share URL and optional overrides",
		ArgsUsage: "[search]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Share URL or query string, e.g. 'search=llama&precision=float16'",
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "Search query, supports @field:value tokens and ';' separated groups",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Column to sort by",
				Value: ranking.ColumnScore,
			},
			&cli.BoolFlag{
				Name:  "asc",
				Usage: "Sort ascending",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum rows to show (0 for no limit)",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			q := c.String("search")
			if q == "" && c.Args().Len() > 0 {
				q = strings.Join(c.Args().Slice(), " ")
			}
			return runQuery(ctx, c.String("config"), queryOptions{
				shareURL: c.String("url"),
				search:   q,
				sort:     c.String("sort"),
				sortSet:  c.IsSet("sort") || c.IsSet("asc"),
				asc:      c.Bool("asc"),
				limit:    c.Int("limit"),
			})
		},
	}
}

type queryOptions struct {
	shareURL string
	search   string
	sort     string
	sortSet  bool
	asc      bool
	limit    int
}

func runQuery(ctx context.Context, configPath string, o queryOptions) error {
	e, err := openEnv(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.loadStore(ctx)
	if err != nil {
		return err
	}

	q, err := parseShareQuery(o.shareURL)
	if err != nil {
		return err
	}
	proj, stop := urlsync.Mount(s, q, urlsync.WriterFunc(func(url.Values) {}))
	defer stop()

	if o.search != "" {
		if err := s.Dispatch(store.SetFilter{Key: store.FilterSearch, Value: o.search}); err != nil {
			return err
		}
	}
	if o.sortSet {
		if err := s.Dispatch(store.SetSort{Sort: ranking.Sort{Column: o.sort, Desc: !o.asc}}); err != nil {
			return err
		}
	}

	st := s.State()
	res := s.FilteredData()
	if st.Filters.Search != "" {
		fmt.Println(metaStyle.Render("search: " + strings.Join(search.Describe(st.Filters.Search), " OR ")))
	}
	fmt.Println(renderRows(st, res, o.limit))
	fmt.Println(metaStyle.Render(fmt.Sprintf("%d of %d models match, %d pinned",
		res.Summary.Matching, res.Summary.Total, res.Summary.Pinned)))
	if share := proj.Current().Encode(); share != "" {
		fmt.Println(urlStyle.Render("?" + share))
	}
	return nil
}

func renderRows(st store.State, res view.Result, limit int) string {
	var evals []string
	for _, c := range st.Display.VisibleColumns {
		if strings.HasPrefix(c, "evaluations.") {
			evals = append(evals, c)
		}
	}

	headers := []string{"#", "T", "Model", "Average", "Params", "Precision"}
	for _, c := range evals {
		headers = append(headers, shortColumn(c))
	}

	rows := res.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	raw := st.Display.ScoreDisplay == store.ScoreRaw

	pinned := map[int]bool{}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
	for i, r := range rows {
		if r.IsPinned {
			pinned[i] = true
		}
		avg, ok := 0.0, r.Average != nil
		if ok {
			avg = *r.Average
		}
		line := []string{
			strconv.Itoa(r.Rank),
			model.TypeIcon(r.Model.Type),
			r.Model.Name,
			formatScore(avg, ok),
			formatParams(r.Params()),
			r.Model.Precision,
		}
		for _, c := range evals {
			line = append(line, formatScore(r.EvaluationScore(strings.TrimPrefix(c, "evaluations."), raw)))
		}
		t.Row(line...)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case pinned[row]:
			return pinnedStyle
		}
		return cellStyle
	})

	title := titleStyle.Render(fmt.Sprintf("Open LLM Leaderboard (%s ranking)", st.Display.RankingMode))
	if len(rows) == 0 {
		return title + "\n" + metaStyle.Render("No models match the current filters.")
	}
	return title + "\n" + t.Render()
}

func shortColumn(c string) string {
	c = strings.TrimPrefix(c, "evaluations.")
	c = strings.TrimSuffix(c, "_average")
	if c == "" {
		return "?"
	}
	return strings.ToUpper(c[:1]) + c[1:]
}
