package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/storage"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Database optimization and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Merge FTS segments and update query planner statistics",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.Optimize(); err != nil {
							return fmt.Errorf("optimizing: %w", err)
						}
						fmt.Println("Optimization complete")
						return nil
					})
				},
			},
			{
				Name:  "analyze",
				Usage: "Run ANALYZE to refresh table statistics",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.Analyze(); err != nil {
							return fmt.Errorf("analyzing: %w", err)
						}
						fmt.Println("Analyze complete")
						return nil
					})
				},
			},
			{
				Name:  "vacuum",
				Usage: "Run VACUUM to defragment the database",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.Vacuum(); err != nil {
							return fmt.Errorf("vacuuming: %w", err)
						}
						fmt.Println("Vacuum complete")
						return nil
					})
				},
			},
			{
				Name:  "checkpoint",
				Usage: "Run a WAL checkpoint to flush pending changes",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.WALCheckpoint(); err != nil {
							return fmt.Errorf("checkpointing: %w", err)
						}
						fmt.Println("Checkpoint complete")
						return nil
					})
				},
			},
			{
				Name:  "all",
				Usage: "Run optimize, analyze, checkpoint and vacuum in sequence",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c, func(store *storage.Store) error {
						if err := store.Optimize(); err != nil {
							return fmt.Errorf("optimizing: %w", err)
						}
						if err := store.Analyze(); err != nil {
							return fmt.Errorf("analyzing: %w", err)
						}
						if err := store.WALCheckpoint(); err != nil {
							return fmt.Errorf("checkpointing: %w", err)
						}
						if err := store.Vacuum(); err != nil {
							return fmt.Errorf("vacuuming: %w", err)
						}
						fmt.Println("All maintenance operations complete")
						return nil
					})
				},
			},
		},
	}
}

// withStore opens the configured database for a maintenance action and
// closes it afterwards.
func withStore(c *cli.Command, fn func(*storage.Store) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)
	return fn(store)
}
