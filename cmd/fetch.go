package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/config"
	"github.com/vestnik/vestnik/pkg/feed"
	"github.com/vestnik/vestnik/pkg/ingest"
	"github.com/vestnik/vestnik/pkg/storage"
)

// FetchCommand creates the fetch command
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch configured feeds once",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Print items to stdout as they are stored",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "feed",
				Usage: "Specific feed to fetch",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return fetchFeeds(ctx, cfg, c.Bool("stream"), c.String("feed"))
		},
	}
}

// fetchFeeds performs a one-shot fetch of all configured feeds, or a
// single one when feedName is given.
func fetchFeeds(ctx context.Context, cfg *config.Config, stream bool, feedName string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	scheduler := ingest.NewScheduler(ingest.Config{}, store, feed.NewFetcher(), nil)
	for name, info := range cfg.Feeds {
		if err := scheduler.AddFeed(name, info.URL, cfg.GetFeedInterval(name)); err != nil {
			return fmt.Errorf("adding feed %s: %w", name, err)
		}
	}

	var options []ingest.FetchOption
	if feedName != "" {
		options = append(options, ingest.WithFeed(feedName))
		fmt.Printf("Fetching feed %q...\n", feedName)
	} else {
		fmt.Println("Fetching all feeds...")
	}
	if stream {
		options = append(options, ingest.WithStreaming(func(item storage.Item) {
			fmt.Printf("[%s] %s\n%s\n\n", item.Source, item.Title, item.Link)
		}))
	}

	if err := scheduler.FetchOnce(ctx, options...); err != nil {
		return fmt.Errorf("fetching feeds: %w", err)
	}

	fmt.Println("Fetch completed successfully")
	return nil
}
