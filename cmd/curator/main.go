// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	curator "github.com/poiesic/curator"
	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/core"
	"github.com/poiesic/curator/queue"
	"github.com/poiesic/curator/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "curator",
		Usage:  "Content enrichment and clustering for saved URLs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the enrichment workers until interrupted",
				Action: runCommand,
				Flags: append(databaseFlags(), aiFlags(
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size",
						Value: 8,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Queue poll interval",
						Value: 5 * time.Second,
					},
				)...),
			},
			{
				Name:      "save",
				Usage:     "Save a URL for enrichment",
				ArgsUsage: "<url>",
				Action:    saveCommand,
				Flags:     append(databaseFlags(), ownerFlag()),
			},
			{
				Name:   "status",
				Usage:  "Show the status of an enrichment job",
				Action: statusCommand,
				Flags: append(databaseFlags(),
					&cli.Uint64Flag{
						Name:     "job",
						Usage:    "Job ID returned by save",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "content",
						Usage:    "Content ID returned by save",
						Required: true,
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List an owner's saved content, newest first",
				Action: listCommand,
				Flags: append(databaseFlags(), ownerFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items (0 for all)",
						Value: 20,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search an owner's content",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(databaseFlags(), aiFlags(ownerFlag(),
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 10,
					},
				)...),
			},
			{
				Name:   "queues",
				Usage:  "Show pending job counts per queue and priority",
				Action: queuesCommand,
				Flags:  databaseFlags(),
			},
			{
				Name:   "clusters",
				Usage:  "List an owner's clusters",
				Action: clustersCommand,
				Flags:  append(databaseFlags(), ownerFlag()),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed an owner's content with new embeddings",
				Action: reembedCommand,
				Flags: append(databaseFlags(), aiFlags(ownerFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				)...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func ownerFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     "owner",
		Aliases:  []string{"o"},
		Usage:    "Owner ID",
		Required: true,
	}
}

func aiFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name for analysis and synthesis",
			Value: "qwen2.5:3b",
		},
	}
	return append(flags, extra...)
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openDatabase(c *cli.Context, opts ...curator.DatabaseOption) (*curator.Database, error) {
	db, err := curator.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func runCommand(c *cli.Context) error {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, curator.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := db.NewWorkerManager(queue.WithPoolSize(c.Int("pool-size")))
	if err != nil {
		return fmt.Errorf("failed to create worker manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	slog.Info("workers running", "pool_size", c.Int("pool-size"))

	<-ctx.Done()
	slog.Info("shutting down")
	manager.Stop()
	return nil
}

func saveCommand(c *cli.Context) error {
	url := c.Args().First()
	if url == "" {
		return fmt.Errorf("url argument is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.NewIntakeService().Save(c.Context, core.ID(c.Uint64("owner")), url)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s\n", url)
	fmt.Printf("  content: %d\n", result.Item.Id)
	fmt.Printf("  job:     %d\n", result.JobId)
	return nil
}

func statusCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.NewIntakeService().Status(c.Context,
		core.ID(c.Uint64("job")), core.ID(c.Uint64("content")))
	if err != nil {
		return err
	}

	fmt.Printf("State: %s\n", status.State)
	if status.Detail != "" {
		fmt.Printf("Detail: %s\n", status.Detail)
	}
	for _, suggestion := range status.Suggestions {
		if suggestion.IsNew {
			fmt.Printf("  suggest new cluster %q (confidence %.2f)\n", suggestion.Name, suggestion.Confidence)
		} else {
			fmt.Printf("  suggest cluster %d %q (confidence %.2f, %d items)\n",
				suggestion.ClusterId, suggestion.Name, suggestion.Confidence, suggestion.ItemCount)
		}
	}
	return nil
}

func listCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.NewIntakeService().List(c.Context, core.ID(c.Uint64("owner")), c.Int("limit"))
	if err != nil {
		return err
	}

	for _, item := range items {
		fmt.Printf("%d  [%s]  %s\n", item.Id, item.Status, item.Title)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query argument is required")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, curator.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.Search(c.Context, core.ID(c.Uint64("owner")), query, c.Int("max-hits"))
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Printf("%.2f  %s\n      %s\n", result.Score, result.Item.Title, result.Item.URL)
	}
	return nil
}

func queuesCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, q := range []*queue.Queue{db.ContentQueue(), db.SummaryQueue()} {
		depths, err := q.Depths(c.Context)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", q.Name())
		for _, priority := range []core.Priority{core.PriorityHigh, core.PriorityNormal, core.PriorityLow} {
			fmt.Printf("  %-6s %d\n", priority, depths[priority])
		}
	}
	return nil
}

func clustersCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	clusters, err := db.NewClusterService().List(c.Context, core.ID(c.Uint64("owner")))
	if err != nil {
		return err
	}

	for _, cl := range clusters {
		fmt.Printf("%d  %q  %d items  coherence %.2f\n", cl.Id, cl.Name, cl.ItemCount, cl.CoherenceScore)
		if cl.SynthesizedSummary != "" {
			fmt.Printf("    %s\n", cl.SynthesizedSummary)
		}
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, curator.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer db.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := db.NewReembedder(reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "AI host: %s\n", c.String("ai-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(c.Context, core.ID(c.Uint64("owner"))); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
