package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/config"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize configuration and database",
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"))
		},
	}
}

// initConfig writes a default configuration file when none exists and
// opens the database once so the schema is in place before the first
// serve or fetch.
func initConfig(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg, err := config.GetDefaultConfig()
		if err != nil {
			return fmt.Errorf("building default config: %w", err)
		}
		if err := cfg.SaveConfig(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Configuration initialized at %s\n", configPath)
	} else {
		fmt.Printf("Configuration already exists at %s\n", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	fmt.Printf("Database initialized at %s\n", store.Path())
	if store.FTSAvailable() {
		fmt.Println("Full-text search: available")
	} else {
		fmt.Println("Full-text search: unavailable, queries will use substring scans")
	}
	return nil
}
