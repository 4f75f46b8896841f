package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dramsay9/chain-crawler/internal/config"
	"github.com/dramsay9/chain-crawler/internal/crawler"
	"github.com/dramsay9/chain-crawler/internal/fetcher"
	"github.com/dramsay9/chain-crawler/internal/sink"
	"github.com/dramsay9/chain-crawler/pkg/types"
)

func main() {
	queryFlags := []cli.Flag{
		&cli.StringFlag{Name: "namespace", Usage: "relation namespace prefix for type matching"},
		&cli.StringFlag{Name: "type", Usage: "singular resource type to search for"},
		&cli.StringFlag{Name: "plural", Usage: "explicit plural of --type for irregular nouns"},
		&cli.StringFlag{Name: "title", Usage: "exact resource title to search for"},
		&cli.StringSliceFlag{Name: "attr", Usage: "attribute criterion key=value (repeatable)"},
	}

	app := &cli.App{
		Name:  "chain-crawler",
		Usage: "explore a HAL+JSON hypermedia API graph for matching resources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "configs/config.yaml",
				Usage: "path to crawler configuration file",
			},
			&cli.StringFlag{
				Name:  "entry-point",
				Usage: "override crawl.entry_point from the config",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "crawl until exhaustion, emitting every new match",
				Flags:  queryFlags,
				Action: crawlAction,
			},
			{
				Name:   "find",
				Usage:  "crawl until the first match and print its URI",
				Flags:  queryFlags,
				Action: findAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "chain-crawler: %v\n", err)
		os.Exit(1)
	}
}

func crawlAction(c *cli.Context) error {
	engine, cleanup, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	found, err := engine.Crawl(ctx, queryFromFlags(c))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Printf("%d resources found\n", found.Size())
	for _, uri := range found.List() {
		fmt.Println(uri)
	}
	return nil
}

func findAction(c *cli.Context) error {
	engine, cleanup, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	uri, err := engine.Find(ctx, queryFromFlags(c))
	if err != nil {
		if errors.Is(err, crawler.ErrEntryExhausted) {
			fmt.Println("no match")
			return nil
		}
		return err
	}
	fmt.Println(uri)
	return nil
}

func buildEngine(c *cli.Context) (*crawler.Engine, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if ep := c.String("entry-point"); ep != "" {
		cfg.Crawl.EntryPoint = ep
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Headers:      cfg.Fetch.Headers,
		Timeout:      cfg.Fetch.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		ProxyURL:     cfg.Fetch.ProxyURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("http fetcher: %w", err)
	}

	out, cleanup, err := buildSink(cfg.Sink, logger)
	if err != nil {
		return nil, nil, err
	}

	engine, err := crawler.New(crawler.Options{
		EntryPoint:     cfg.Crawl.EntryPoint,
		CacheMaskBits:  cfg.Crawl.CacheMaskBits,
		HistoryDepth:   cfg.Crawl.HistoryDepth,
		FoundTTL:       cfg.Crawl.FoundTTL.Duration,
		StepDelay:      cfg.Crawl.StepDelay.Duration,
		FilterKeywords: cfg.Crawl.FilterKeywords,
		Fetcher:        httpFetcher,
		Sink:           out,
		Logger:         logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

func buildSink(cfg config.SinkConfig, logger *slog.Logger) (sink.Sink, func(), error) {
	switch cfg.Mode {
	case "", "log":
		return sink.Log{Logger: logger}, func() {}, nil
	case "queue":
		// An in-process queue with no consumer in this binary: drain it to
		// the logger so the crawl never blocks.
		q := sink.NewQueue(cfg.QueueSize)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for uri := range q.URIs() {
				logger.Info("dequeued resource", "uri", uri)
			}
		}()
		return q, func() { q.Close(); <-done }, nil
	case "zmq":
		z, err := sink.NewZMQ(context.Background(), cfg.ZMQEndpoint)
		if err != nil {
			return nil, nil, err
		}
		return z, func() { z.Close() }, nil
	case "postgres":
		p, err := sink.NewPostgres(context.Background(), cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported sink mode %q", cfg.Mode)
	}
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	var w io.Writer = os.Stdout
	if cfg.Structured {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func queryFromFlags(c *cli.Context) types.Query {
	q := types.Query{
		Namespace: c.String("namespace"),
		Type:      c.String("type"),
		Plural:    c.String("plural"),
		Title:     c.String("title"),
	}
	attrs := c.StringSlice("attr")
	if len(attrs) > 0 {
		q.Extra = make(map[string]any, len(attrs))
		for _, raw := range attrs {
			key, value, ok := strings.Cut(raw, "=")
			if !ok {
				continue
			}
			q.Extra[key] = value
		}
	}
	return q
}
