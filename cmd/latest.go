package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/render"
	"github.com/vestnik/vestnik/pkg/search"
	"github.com/vestnik/vestnik/pkg/storage"
)

// LatestCommand creates the latest command
func LatestCommand() *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Show the newest stored items",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Restrict to one source",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of items",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Number of items to skip",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print items as JSON",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			return showLatest(ctx, store, c.String("source"), c.Int("limit"), c.Int("offset"), c.Bool("json"))
		},
	}
}

func showLatest(ctx context.Context, store *storage.Store, source string, limit, offset int, asJSON bool) error {
	var (
		items []storage.Item
		total int
		err   error
	)

	if source != "" {
		source, err = resolveSourceOrExplain(ctx, store, source)
		if err != nil {
			return err
		}
		items, total, err = store.SourceNews(ctx, source, limit, offset)
	} else {
		items, total, err = store.LatestPage(ctx, limit, offset)
	}
	if err != nil {
		return fmt.Errorf("loading latest items: %w", err)
	}

	if asJSON {
		return printJSON(struct {
			Source string         `json:"source,omitempty"`
			Total  int            `json:"total"`
			Limit  int            `json:"limit"`
			Offset int            `json:"offset"`
			Items  []storage.Item `json:"items"`
		}{source, total, limit, offset, items})
	}

	if len(items) == 0 {
		fmt.Println(render.NoData("Nothing stored yet. Run 'vestnik fetch' first."))
		return nil
	}
	fmt.Println(render.Items(items, offset))
	fmt.Println(render.Footer(total, limit, offset))
	return nil
}

// resolveSourceOrExplain maps user input to a canonical source name,
// turning ambiguity and misses into actionable errors.
func resolveSourceOrExplain(ctx context.Context, store *storage.Store, input string) (string, error) {
	sources, err := store.Sources(ctx)
	if err != nil {
		return "", fmt.Errorf("listing sources: %w", err)
	}
	names := make([]string, len(sources))
	for i, sc := range sources {
		names[i] = sc.Source
	}

	match := search.ResolveSource(input, names)
	switch match.Kind {
	case search.SourceResolved:
		return match.Name, nil
	case search.SourceAmbiguous:
		list := strings.Join(match.Candidates, ", ")
		if match.Truncated {
			list += ", ..."
		}
		return "", fmt.Errorf("several sources match %q: %s", input, list)
	default:
		if len(match.Suggestions) > 0 {
			return "", fmt.Errorf("no source matches %q, did you mean: %s", input, strings.Join(match.Suggestions, ", "))
		}
		return "", fmt.Errorf("no source matches %q", input)
	}
}
