// Copyright 2025 Finsight Labs
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
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	newsdesk "github.com/finsight/newsdesk"
	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/embed"
	"github.com/finsight/newsdesk/query"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env for embedding service settings; missing file is fine.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "newsdesk",
		Usage: "News retrieval, deduplication and stock-impact engine",
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
				Name:   "seed",
				Usage:  "Ingest articles from a CSV file",
				Action: seedCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "csv",
						Usage:    "CSV file with title and content columns",
						Required: true,
					},
				),
			},
			{
				Name:   "dedup",
				Usage:  "Cluster all stored articles into stories",
				Action: dedupCommand,
				Flags: append(engineFlags(),
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Similarity threshold in [0, 1]",
						Value:   float64(newsdesk.DefaultSimilarityThreshold),
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Run an entity-aware query",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of semantic candidates to retrieve",
						Value: query.DefaultSearchK,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Run a raw semantic similarity search",
				ArgsUsage: "<query text>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of matches to return",
						Value: query.DefaultSearchK,
					},
				),
			},
			{
				Name:      "article",
				Usage:     "Show one article with its story and impact report",
				ArgsUsage: "<article id>",
				Action:    articleCommand,
				Flags:     engineFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the vector index from stored articles",
				Action: reindexCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "into",
						Usage: "Target namespace (defaults to the configured one)",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are shared by every command that opens the engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "lexicon",
			Usage: "YAML lexicon file (built-in dictionary when omitted)",
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"NEWSDESK_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"NEWSDESK_EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:    "embedding-dim",
			Usage:   "Embedding vector dimension",
			Value:   768,
			EnvVars: []string{"NEWSDESK_EMBEDDING_DIM"},
		},
		&cli.StringFlag{
			Name:  "namespace",
			Usage: "Vector index namespace",
			Value: core.DefaultNamespace,
		},
	}
}

// openEngine wires an engine from the shared flags. The caller owns Close.
func openEngine(c *cli.Context, extra ...newsdesk.EngineOption) (*newsdesk.Engine, error) {
	lexicon := DefaultLexicon()
	if path := c.String("lexicon"); path != "" {
		loaded, err := LoadLexicon(path)
		if err != nil {
			return nil, err
		}
		lexicon = loaded
	}

	cfg := embed.NewConfig(
		embed.WithHost(c.String("embedding-host")),
		embed.WithModel(c.String("embedding-model")),
		embed.WithDim(c.Int("embedding-dim")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	opts := []newsdesk.EngineOption{
		newsdesk.WithEmbedConfig(cfg),
		newsdesk.WithLexicon(lexicon),
		newsdesk.WithExtractFunc(newLexiconExtractor(lexicon)),
		newsdesk.WithNamespace(c.String("namespace")),
	}
	opts = append(opts, extra...)

	return newsdesk.NewEngine(c.String("db"), opts...)
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	articles, err := readArticlesCSV(c.String("csv"))
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return fmt.Errorf("no articles found in %s", c.String("csv"))
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	stored, err := engine.Ingest(ctx, articles...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingested %d articles\n", len(stored))
	return nil
}

func dedupCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c,
		newsdesk.WithSimilarityThreshold(float32(c.Float64("threshold"))))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	stories, err := engine.DeduplicateAll(ctx)
	if err != nil {
		return fmt.Errorf("deduplication failed: %w", err)
	}

	for _, story := range stories {
		fmt.Printf("story %d: representative %d, members %v\n",
			story.Id, story.RepresentativeId, story.MemberIds)
	}
	fmt.Fprintf(os.Stderr, "%d stories\n", len(stories))
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	result, err := engine.Query(ctx, text, c.Int("k"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	intent := result.Interpretation
	fmt.Fprintf(os.Stderr, "Interpreted as %s query", intent.Type)
	if len(intent.Companies) > 0 {
		fmt.Fprintf(os.Stderr, ", companies %v", intent.Companies)
	}
	if len(intent.Sectors) > 0 {
		fmt.Fprintf(os.Stderr, ", sectors %v", intent.Sectors)
	}
	if len(intent.Regulators) > 0 {
		fmt.Fprintf(os.Stderr, ", regulators %v", intent.Regulators)
	}
	fmt.Fprintln(os.Stderr)

	for _, ranked := range result.Results {
		fmt.Printf("%.4f  #%d  %s  (%s)\n",
			ranked.Score, ranked.Article.Id, ranked.Article.Title, ranked.Explanation)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	matches, err := engine.SearchSemantic(ctx, text, c.Int("k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, match := range matches {
		article, err := engine.GetArticle(ctx, match.ArticleId)
		if err != nil {
			return err
		}
		fmt.Printf("%.4f  #%d  %s\n", match.Score, article.Id, article.Title)
	}
	return nil
}

func articleCommand(c *cli.Context) error {
	ctx := context.Background()

	var id core.ID
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil || id == 0 {
		return fmt.Errorf("a numeric article id is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	article, err := engine.GetArticle(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d  %s\n", article.Id, article.Title)
	if article.Date != "" {
		fmt.Printf("date: %s\n", article.Date)
	}
	if article.Source != "" {
		fmt.Printf("source: %s\n", article.Source)
	}
	fmt.Println(article.Content)

	if story, err := engine.GetStoryForArticle(ctx, id); err == nil {
		fmt.Printf("story %d with members %v\n", story.Id, story.MemberIds)
	}
	if report, err := engine.GetImpactReport(ctx, id); err == nil {
		for _, stock := range report.Stocks {
			fmt.Printf("impact: %s %.2f (%s via %s)\n",
				stock.Symbol, stock.Confidence, stock.Kind, stock.Trigger)
		}
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	count, err := engine.Reindex(ctx, c.String("into"))
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Reindexed %d articles\n", count)
	return nil
}

// readArticlesCSV parses a CSV export with a header row. The title and
// content columns are required; date and source are carried when present.
func readArticlesCSV(path string) ([]*core.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("CSV has no title column")
	}
	if _, ok := columns["content"]; !ok {
		return nil, fmt.Errorf("CSV has no content column")
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var articles []*core.Article
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		articles = append(articles, &core.Article{
			Title:   field(row, "title"),
			Content: field(row, "content"),
			Date:    field(row, "date"),
			Source:  field(row, "source"),
		})
	}
	return articles, nil
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
