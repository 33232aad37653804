package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v3"

	"github.com/vadim/neo-threads/internal/app"
	"github.com/vadim/neo-threads/internal/config"
	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	threadservice "github.com/vadim/neo-threads/internal/domain/thread/service"
	"github.com/vadim/neo-threads/internal/logger"
)

const version = "0.1.0"

var validLogLevels = []string{"debug", "info", "warn", "error"}

var (
	accessTokenFlag = &cli.StringFlag{
		Name:     "access-token",
		Aliases:  []string{"t"},
		Usage:    "Threads user access token",
		Sources:  cli.EnvVars("THREADS_ACCESS_TOKEN", "INITIAL_ACCESS_TOKEN"),
		Required: true,
	}
	usernameFlag = &cli.StringFlag{
		Name:    "username",
		Aliases: []string{"u"},
		Usage:   "Author whose replies are kept in reply chains; looked up when empty",
	}
	repliesFlag = &cli.BoolFlag{
		Name:    "replies",
		Aliases: []string{"r"},
		Usage:   "Attach self-authored reply chains",
	}
	originalsFlag = &cli.BoolFlag{
		Name:  "originals",
		Usage: "Skip reposts and walk reply chains in parallel batches",
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Aliases: []string{"l"},
		Usage:   "The level of the logs",
		Value:   "warn",
		Validator: func(value string) error {
			if !slices.Contains(validLogLevels, value) {
				return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
			}
			return nil
		},
		Sources: cli.EnvVars("THREADSCTL_LOG_LEVEL"),
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "threadsctl",
		Usage:   "Aggregate and export Threads posts from the command line",
		Version: version,
		Flags:   []cli.Flag{logLevelFlag},
		Commands: []*cli.Command{
			{
				Name:  "posts",
				Usage: "Fetch every post with insights and print it",
				Flags: []cli.Flag{
					accessTokenFlag,
					usernameFlag,
					repliesFlag,
					originalsFlag,
					&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a pretty dump"},
				},
				Action: postsAction,
			},
			{
				Name:  "export",
				Usage: "Fetch every post and store it in the configured export sink",
				Flags: []cli.Flag{
					accessTokenFlag,
					usernameFlag,
					repliesFlag,
					originalsFlag,
				},
				Action: exportAction,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func postsAction(ctx context.Context, c *cli.Command) error {
	return withServices(ctx, c, func(s *app.Services) error {
		posts := collect(ctx, c, s)

		if c.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(posts)
		}
		_, err := pp.Println(posts)
		return err
	})
}

func exportAction(ctx context.Context, c *cli.Command) error {
	return withServices(ctx, c, func(s *app.Services) error {
		posts := collect(ctx, c, s)

		saved, err := s.Exporter.Export(ctx, posts)
		fmt.Printf("exported %d of %d posts\n", saved, len(posts))
		return err
	})
}

func withServices(ctx context.Context, c *cli.Command, fn func(*app.Services) error) error {
	log, err := logger.NewWithWriter(os.Stderr, c.String(logLevelFlag.Name))
	if err != nil {
		return err
	}

	cfg := config.MustLoad()
	services, err := app.NewServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer services.Close()

	return fn(services)
}

// collect picks the bulk mode from the flags
func collect(ctx context.Context, c *cli.Command, s *app.Services) []entity.Post {
	token := c.String(accessTokenFlag.Name)

	if !c.Bool(repliesFlag.Name) {
		if c.Bool(originalsFlag.Name) {
			return s.Aggregator.FetchAll(ctx, token, threadservice.FetchOptions{Filter: entity.NotRepost})
		}
		return s.Bulk.All(ctx, token)
	}

	username := c.String(usernameFlag.Name)
	if username == "" {
		username = s.Fetcher.Profile(ctx, token).Username
	}

	if c.Bool(originalsFlag.Name) {
		return s.Bulk.AllWithReplies(ctx, token, username)
	}
	return s.Bulk.WithReplies(ctx, token, username)
}
