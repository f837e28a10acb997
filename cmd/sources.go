package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/render"
)

// SourcesCommand creates the sources command
func SourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List sources with item counts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print sources as JSON",
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

			sources, err := store.Sources(ctx)
			if err != nil {
				return fmt.Errorf("listing sources: %w", err)
			}

			if c.Bool("json") {
				return printJSON(sources)
			}
			fmt.Println(render.SourcesTable(sources))
			return nil
		},
	}
}
