package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/vestnik/vestnik/cmd"
	"github.com/vestnik/vestnik/pkg/config"
)

func main() {
	app := &cli.Command{
		Name:  "vestnik",
		Usage: "News feed search and indexing service",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.ServeCommand(),
			cmd.FetchCommand(),
			cmd.SearchCommand(),
			cmd.LatestCommand(),
			cmd.SourcesCommand(),
			cmd.StatsCommand(),
			cmd.RebuildCommand(),
			cmd.ArchiveCommand(),
			cmd.OptimizeCommand(),
			cmd.FirehoseCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
