package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/vestnik/vestnik/pkg/config"
)

// FirehoseCommand creates a CLI command that tails the API's WebSocket
// firehose and writes NDJSON item events to stdout.
//
// Typical usage:
//
//	vestnik firehose
//	vestnik firehose --url ws://news.example.org:8787/api/firehose
//	vestnik firehose | jq -r 'select(.type=="item") | .item.title'
//
// By default it prints only "item" events as single-line JSON; --all also
// prints the init snapshot frame. The command reconnects with exponential
// backoff when the server is unreachable or the connection drops, resuming
// from the last item it saw. It never exits unless the context is
// cancelled or --no-retry is set and a connection attempt fails.
func FirehoseCommand() *cli.Command {
	return &cli.Command{
		Name:  "firehose",
		Usage: "Stream realtime item events (NDJSON) from a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Firehose WebSocket URL (overrides the address from config)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Print all event types instead of only items",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON instead of raw single-line",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "no-retry",
				Usage: "Do not retry on failures; exit on first connection error",
				Value: false,
			},
			&cli.DurationFlag{
				Name:  "initial-backoff",
				Usage: "Initial reconnect backoff",
				Value: 1 * time.Second,
			},
			&cli.DurationFlag{
				Name:  "max-backoff",
				Usage: "Maximum reconnect backoff",
				Value: 30 * time.Second,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			target := c.String("url")
			if target == "" {
				cfg, err := config.LoadConfig(c.String("config"))
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				target = firehoseURL(cfg.Server.Addr)
			}

			opts := firehoseTailOptions{
				url:            target,
				includeAll:     c.Bool("all"),
				pretty:         c.Bool("pretty"),
				noRetry:        c.Bool("no-retry"),
				initialBackoff: c.Duration("initial-backoff"),
				maxBackoff:     c.Duration("max-backoff"),
			}
			return tailFirehose(ctx, opts)
		},
	}
}

// firehoseURL derives a dialable WebSocket URL from a listen address.
// Bare-port addresses like ":8787" dial localhost.
func firehoseURL(addr string) string {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	u := url.URL{Scheme: "ws", Host: host, Path: "/api/firehose"}
	return u.String()
}

type firehoseTailOptions struct {
	url            string
	includeAll     bool
	pretty         bool
	noRetry        bool
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// firehoseFrame is the minimal shape needed to route a server message:
// the type discriminator plus the item's ingestion timestamp used as
// the resume cursor.
type firehoseFrame struct {
	Type string `json:"type"`
	Item struct {
		AddedAt string `json:"added_at"`
	} `json:"item"`
}

// addedAtLayout is how the store renders added_at timestamps.
const addedAtLayout = "2006-01-02 15:04:05"

func tailFirehose(ctx context.Context, opts firehoseTailOptions) error {
	if opts.initialBackoff <= 0 {
		opts.initialBackoff = time.Second
	}
	if opts.maxBackoff < opts.initialBackoff {
		opts.maxBackoff = 30 * time.Second
	}

	fmt.Fprintf(os.Stderr, "Firehose: connecting to %s\n", opts.url)
	backoff := opts.initialBackoff
	var lastAdded string

	for {
		target := opts.url
		if lastAdded != "" {
			if t, err := time.Parse(addedAtLayout, lastAdded); err == nil {
				target += "?since=" + url.QueryEscape(t.UTC().Format(time.RFC3339))
			}
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
		if err != nil {
			if opts.noRetry {
				return fmt.Errorf("dialing %s: %w", opts.url, err)
			}
			fmt.Fprintf(os.Stderr, "Firehose: dial failed (%v), retrying in %s\n", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > opts.maxBackoff {
				backoff = opts.maxBackoff
			}
			continue
		}

		backoff = opts.initialBackoff
		fmt.Fprintln(os.Stderr, "Firehose: connected")

		if err := streamFrames(ctx, conn, opts, &lastAdded); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if opts.noRetry {
				return err
			}
			fmt.Fprintf(os.Stderr, "Firehose: connection lost (%v), reconnecting\n", err)
		}
		if err := conn.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Firehose: close: %v\n", err)
		}
	}
}

// streamFrames reads server messages until the connection breaks,
// printing the selected ones and advancing the resume cursor.
func streamFrames(ctx context.Context, conn *websocket.Conn, opts firehoseTailOptions, lastAdded *string) error {
	// Unblock ReadMessage when the surrounding context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame firehoseFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			fmt.Fprintf(os.Stderr, "Firehose: skipping malformed frame: %v\n", err)
			continue
		}
		if frame.Item.AddedAt != "" {
			*lastAdded = frame.Item.AddedAt
		}
		if frame.Type != "item" && !opts.includeAll {
			continue
		}

		if opts.pretty {
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err == nil {
				data = buf.Bytes()
			}
		}
		fmt.Println(string(bytes.TrimSpace(data)))
	}
}
