package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/archive"
	"github.com/vestnik/vestnik/pkg/render"
	"github.com/vestnik/vestnik/pkg/storage"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show database statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print statistics as JSON",
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

			return showStats(ctx, store, c.Bool("json"))
		},
	}
}

func showStats(ctx context.Context, store *storage.Store, asJSON bool) error {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	if asJSON {
		return printJSON(struct {
			storage.Stats
			Path string `json:"path"`
		}{stats, store.Path()})
	}

	fmt.Println(render.Stats(stats, store.Path()))

	// Not every store can archive; the capability is optional.
	if arch, ok := any(store).(archive.Archiver); ok {
		months, err := arch.ArchiveMonths(ctx)
		if err != nil {
			return fmt.Errorf("listing archive months: %w", err)
		}
		if len(months) > 0 {
			fmt.Println("Items by month:")
			for _, m := range months {
				fmt.Printf("  %s  %d\n", m.Month, m.Count)
			}
		}
	}
	return nil
}
