package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/storage"
)

// RebuildCommand creates the rebuild command
func RebuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Rebuild the full-text search index",
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

			mode, err := store.RebuildFTS(ctx)
			if errors.Is(err, storage.ErrNoFTS) {
				return fmt.Errorf("this database has no full-text index to rebuild")
			}
			if err != nil {
				return fmt.Errorf("rebuilding search index: %w", err)
			}

			switch mode {
			case "rebuild":
				fmt.Println("Search index rebuilt in place")
			default:
				fmt.Println("Search index recreated from scratch")
			}
			return nil
		},
	}
}
