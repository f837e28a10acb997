package cmd

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/config"
	"github.com/vestnik/vestnik/pkg/log"
	"github.com/vestnik/vestnik/pkg/storage"
)

// loadConfig reads the configuration referenced by the global --config
// flag and applies the logging settings, honoring --debug.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if c.Bool("debug") || cfg.Log.Debug {
		log.SetGlobalDebug(true)
	}
	if cfg.Log.File != "" {
		log.UseFile(log.RotationConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		})
	}

	return cfg, nil
}

// openStore opens the configured database. Callers are responsible for
// closing it with closeStore.
func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.Store) {
	if err := store.Close(); err != nil {
		fmt.Printf("Warning: failed to close database: %v\n", err)
	}
}
