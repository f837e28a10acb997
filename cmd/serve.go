package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/api"
	"github.com/vestnik/vestnik/pkg/config"
	"github.com/vestnik/vestnik/pkg/feed"
	"github.com/vestnik/vestnik/pkg/guard"
	"github.com/vestnik/vestnik/pkg/ingest"
	"github.com/vestnik/vestnik/pkg/realtime"
	"github.com/vestnik/vestnik/pkg/search"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the feed scheduler and HTTP API",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return serve(ctx, c.String("config"), cfg)
		},
	}
}

// serve runs the ingest scheduler and the API server until interrupted.
// SIGHUP and config file changes reload the feed set and guard policy
// without restarting.
func serve(ctx context.Context, configPath string, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	hub := realtime.NewHub(64)
	scheduler := ingest.NewScheduler(ingest.Config{
		OptimizeInterval: time.Hour,
	}, store, feed.NewFetcher(), hub)

	log.Printf("Configuring %d feeds:", len(cfg.Feeds))
	for name, info := range cfg.Feeds {
		interval := cfg.GetFeedInterval(name)
		log.Printf("  - %s: %v", name, interval)
		if err := scheduler.AddFeed(name, info.URL, interval); err != nil {
			return fmt.Errorf("adding feed %s: %w", name, err)
		}
	}

	apiServer := api.NewServer(api.Config{
		PageSize:          cfg.Server.PageSize,
		SessionCapacity:   cfg.Sessions.Capacity,
		SessionTTL:        cfg.Sessions.TTL.Duration,
		ArchiveDir:        cfg.Archive.ExportDir,
		ArchiveKeepMonths: cfg.Archive.KeepMonths,
	}, store, search.New(store))
	apiServer.SetHub(hub)
	applyGuard(apiServer, cfg)

	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	handler := api.CorsMiddleware(apiServer.GuardMiddleware(api.MetricsMiddleware(mux)))

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	schedulerCtx, schedulerCancel := context.WithCancel(ctx)
	defer schedulerCancel()

	if err := scheduler.Start(schedulerCtx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	go func() {
		log.Printf("Serving API on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	fmt.Println("Serving. Press Ctrl+C to stop, send SIGHUP to reload, or modify the config file for automatic reload.")

	var cfgMutex sync.Mutex
	currentConfig := cfg

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Warning: failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Printf("Warning: failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			log.Printf("Warning: failed to watch config file %s: %v", configPath, err)
		} else {
			log.Printf("Watching config file for changes: %s", configPath)
		}
	}

	shutdown := func() error {
		fmt.Println("\nShutting down...")
		schedulerCancel()
		scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading configuration...")
				if err := reloadConfiguration(configPath, scheduler, apiServer, &cfgMutex, &currentConfig); err != nil {
					log.Printf("Failed to reload configuration: %v", err)
				} else {
					log.Println("Configuration reloaded successfully")
				}
			case syscall.SIGINT, syscall.SIGTERM:
				return shutdown()
			}
		case <-ctx.Done():
			return shutdown()
		case event, ok := <-watcher.Events:
			if !ok {
				continue
			}
			// Editors often replace the file instead of writing in place,
			// so rename and remove count as changes too.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				log.Printf("Config file changed: %s (event: %s), reloading configuration...", event.Name, event.Op.String())

				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						log.Printf("Config file was removed and not replaced, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						log.Printf("Warning: failed to re-watch config file after rename: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				if err := reloadConfiguration(configPath, scheduler, apiServer, &cfgMutex, &currentConfig); err != nil {
					log.Printf("Failed to reload configuration after file change: %v", err)
				} else {
					log.Println("Configuration reloaded successfully after file change")
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			log.Printf("Config file watcher error: %v", err)
		}
	}
}

// reloadConfiguration re-reads the config file and re-wires the feed
// set and the guard policy. The database path and listen address are
// fixed for the process lifetime; changing them requires a restart.
func reloadConfiguration(configPath string, scheduler *ingest.Scheduler, apiServer *api.Server, cfgMutex *sync.Mutex, currentConfig **config.Config) error {
	cfgMutex.Lock()
	defer cfgMutex.Unlock()

	newCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading new config: %w", err)
	}

	for _, name := range scheduler.Feeds() {
		scheduler.RemoveFeed(name)
	}
	for name, info := range newCfg.Feeds {
		if err := scheduler.AddFeed(name, info.URL, newCfg.GetFeedInterval(name)); err != nil {
			return fmt.Errorf("adding feed %s: %w", name, err)
		}
	}

	applyGuard(apiServer, newCfg)

	log.Printf("Configuration reload complete: %d feeds configured", len(newCfg.Feeds))
	*currentConfig = newCfg
	return nil
}

// applyGuard installs the rate limiter and, when enabled, the content
// filter on the API server.
func applyGuard(apiServer *api.Server, cfg *config.Config) {
	limiter := guard.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	var filter *guard.Filter
	if cfg.Guard.Enabled {
		filter = guard.NewFilter(cfg.Guard.ForbiddenWords, cfg.Guard.BlockLinks, cfg.Guard.LinkPattern)
	}
	apiServer.SetGuard(limiter, filter)
}
