package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/highlight"
	"github.com/vestnik/vestnik/pkg/render"
	"github.com/vestnik/vestnik/pkg/search"
	"github.com/vestnik/vestnik/pkg/storage"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search stored news",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Number of results to skip",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return fmt.Errorf("query is required, e.g. vestnik search '\"мировой кризис\" -санкции'")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			result, err := search.New(store).Search(ctx, query, c.Int("limit"), c.Int("offset"))
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}

			if c.Bool("json") {
				return printJSON(searchOutput{
					Query:  query,
					Total:  result.Total,
					Limit:  c.Int("limit"),
					Offset: c.Int("offset"),
					Items:  result.Items,
				})
			}

			printSearchResults(query, result, c.Int("limit"), c.Int("offset"))
			return nil
		},
	}
}

type searchOutput struct {
	Query  string         `json:"query"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []storage.Item `json:"items"`
}

// printSearchResults renders one result page with query matches
// emphasized and summaries cut down to a snippet around the first match.
func printSearchResults(query string, result search.Result, limit, offset int) {
	if result.Total == 0 {
		fmt.Println(render.NoData(fmt.Sprintf("No results for %q.", query)))
		return
	}

	patterns := highlight.ExtractPatterns(query)
	display := make([]storage.Item, len(result.Items))
	for i, item := range result.Items {
		display[i] = item
		display[i].Title = highlight.Highlight(item.Title, patterns)
		if snippet := highlight.Snippet(item.Summary, patterns); snippet != "" {
			display[i].Summary = snippet
		}
	}

	fmt.Println(render.Items(display, offset))
	fmt.Println(render.Footer(result.Total, limit, offset))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
