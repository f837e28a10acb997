package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/archive"
	"github.com/vestnik/vestnik/pkg/config"
)

// ArchiveCommand creates the archive command
func ArchiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "List archivable months or export and prune old items",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "now",
				Usage: "Export items older than the keep window and delete them",
				Value: false,
			},
			&cli.IntFlag{
				Name:  "keep",
				Usage: "Months to keep in the live database (defaults to config)",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory for export files (defaults to config, then the data directory)",
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

			arch, ok := any(store).(archive.Archiver)
			if !ok {
				return fmt.Errorf("this storage backend cannot archive")
			}

			if c.Bool("now") {
				return archiveNow(ctx, arch, cfg, c.Int("keep"), c.String("dir"))
			}
			return listArchive(ctx, arch)
		},
	}
}

func listArchive(ctx context.Context, arch archive.Archiver) error {
	stats, err := arch.ArchiveStats(ctx)
	if err != nil {
		return fmt.Errorf("reading archive stats: %w", err)
	}
	if stats.Total == 0 {
		fmt.Println("Nothing stored yet.")
		return nil
	}

	fmt.Printf("%d items across %d months", stats.Total, stats.Months)
	if stats.Oldest != "" {
		fmt.Printf(" (%s to %s)", stats.Oldest, stats.Newest)
	}
	fmt.Println()

	months, err := arch.ArchiveMonths(ctx)
	if err != nil {
		return fmt.Errorf("listing archive months: %w", err)
	}
	for _, m := range months {
		fmt.Printf("  %s  %d\n", m.Month, m.Count)
	}
	return nil
}

func archiveNow(ctx context.Context, arch archive.Archiver, cfg *config.Config, keep int, dir string) error {
	if keep <= 0 {
		keep = cfg.Archive.KeepMonths
	}
	if dir == "" {
		dir = cfg.Archive.ExportDir
	}
	if dir == "" {
		var err error
		dir, err = config.GetDefaultDataDir()
		if err != nil {
			return fmt.Errorf("resolving export directory: %w", err)
		}
	}

	result, err := arch.ArchiveNow(ctx, archive.Options{Dir: dir, KeepMonths: keep})
	if err != nil {
		return fmt.Errorf("archiving: %w", err)
	}

	if result.Exported == 0 {
		fmt.Printf("Nothing older than %d months to archive\n", keep)
		return nil
	}
	fmt.Printf("Exported %d items to %s, deleted %d from the live database\n",
		result.Exported, result.File, result.Deleted)
	return nil
}
