package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/internal/app"
	"github.com/letmevibethatforyou/pagex/internal/config"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()
	app.ConfigureLogging()

	cliApp := &cli.App{
		Name:  "query",
		Usage: "Find the book page matching a text or photo, or step to a neighbouring page",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file",
				EnvVars: []string{"PAGEX_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "corpus",
				Aliases: []string{"c"},
				Usage:   "Path to the JSON corpus (page id -> text)",
				EnvVars: []string{"PAGEX_CORPUS"},
			},
			&cli.StringFlag{
				Name:    "table",
				Usage:   "DynamoDB table holding the corpus; used when no corpus file is given",
				EnvVars: []string{"PAGEX_TABLE"},
			},
			&cli.StringFlag{
				Name:    "corpus-name",
				Usage:   "Corpus partition in the DynamoDB table",
				EnvVars: []string{"PAGEX_CORPUS_NAME"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query text; positional arg is a fallback",
			},
			&cli.StringFlag{
				Name:  "text-file",
				Usage: "Read the query from a file, e.g. text already extracted from a photo",
			},
			&cli.StringFlag{
				Name:  "image",
				Usage: "Photo of a page; its text is extracted with tesseract and used as the query",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Page id to navigate from instead of searching",
			},
			&cli.StringFlag{
				Name:  "direction",
				Usage: "Navigation direction: next or prev",
				Value: "next",
			},
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results below the high threshold",
			},
			&cli.Float64Flag{
				Name:  "high",
				Usage: "Score at which the best page is returned alone",
			},
			&cli.Float64Flag{
				Name:  "floor",
				Usage: "Minimum score for a page to be returned",
			},
			&cli.StringFlag{
				Name:    "pages-dir",
				Usage:   "Directory holding page images",
				EnvVars: []string{"PAGEX_PAGES_DIR"},
			},
			&cli.IntFlag{
				Name:  "strip-segments",
				Usage: "Leading path segments of a page id to drop when resolving images",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "bucket",
				Usage:   "S3 bucket holding page images; used when no pages dir is given",
				EnvVars: []string{"PAGEX_PAGES_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Key prefix of page images in the S3 bucket",
				EnvVars: []string{"PAGEX_PAGES_PREFIX"},
			},
			&cli.StringFlag{
				Name:  "save-dir",
				Usage: "Write the images of returned pages into this directory",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the whole request",
				Value: defaultTimeout,
			},
		},
		Action: runAction,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(c.String("corpus")); v != "" {
		cfg.Corpus.Path = v
	}
	if v := strings.TrimSpace(c.String("table")); v != "" {
		cfg.Corpus.Table = v
	}
	if v := strings.TrimSpace(c.String("corpus-name")); v != "" {
		cfg.Corpus.Name = v
	}
	if c.IsSet("top") {
		cfg.Ranking.TopN = c.Int("top")
	}
	if c.IsSet("high") {
		cfg.Ranking.High = c.Float64("high")
	}
	if c.IsSet("floor") {
		cfg.Ranking.Floor = c.Float64("floor")
	}
	if v := strings.TrimSpace(c.String("pages-dir")); v != "" {
		cfg.Pages.Dir = v
	}
	if n := c.Int("strip-segments"); n >= 0 {
		cfg.Pages.StripSegments = n
	}
	if v := strings.TrimSpace(c.String("bucket")); v != "" {
		cfg.Pages.Bucket = v
	}
	if v := strings.TrimSpace(c.String("prefix")); v != "" {
		cfg.Pages.Prefix = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(c.Context, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	defer cancel()

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	if from := strings.TrimSpace(c.String("from")); from != "" {
		return navigate(ctx, a, from, c.String("direction"))
	}

	query, err := readQuery(ctx, c, a)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "executing query",
		"query_length", len([]rune(query)),
		"top_n", cfg.Ranking.TopN,
		"high", cfg.Ranking.High,
		"floor", cfg.Ranking.Floor,
	)

	results, err := a.Finder.Rank(ctx, query, cfg.RankOptions()...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if results.Empty() {
		slog.InfoContext(ctx, "no relevant page found")
	}

	if dir := c.String("save-dir"); dir != "" {
		if err := saveImages(ctx, a, dir, results.Items); err != nil {
			return err
		}
	}

	return printJSON(results)
}

// readQuery picks the query from, in order, --image, --text-file, --query
// and the first positional argument.
func readQuery(ctx context.Context, c *cli.Context, a *app.App) (string, error) {
	if path := c.String("image"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read image: %w", err)
		}
		text, err := a.OCR.Extract(ctx, data)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
		if text == "" {
			slog.WarnContext(ctx, "no text could be read from the image", "image", path)
		}
		return text, nil
	}

	if path := c.String("text-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	query := c.String("query")
	if query == "" && c.NArg() > 0 {
		query = c.Args().First()
	}
	return query, nil
}

func navigate(ctx context.Context, a *app.App, from, direction string) error {
	dir, err := pagex.ParseDirection(direction)
	if err != nil {
		return fmt.Errorf("invalid direction: %w", err)
	}

	payload := struct {
		From      string `json:"from"`
		Direction string `json:"direction"`
		Target    string `json:"target,omitempty"`
		Found     bool   `json:"found"`
		Reason    string `json:"reason,omitempty"`
	}{
		From:      from,
		Direction: dir.String(),
	}

	target, err := a.Finder.Navigate(ctx, from, dir)
	switch {
	case err == nil:
		payload.Target = target
		payload.Found = true
	case pagex.IsNoPage(err):
		payload.Reason = err.Error()
	default:
		return fmt.Errorf("navigation failed: %w", err)
	}

	return printJSON(payload)
}

func saveImages(ctx context.Context, a *app.App, dir string, items []pagex.Match) error {
	if a.Pages == nil {
		return fmt.Errorf("--save-dir needs a pages dir or bucket")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, m := range items {
		data, err := a.Pages.Get(ctx, m.ID)
		if err != nil {
			slog.WarnContext(ctx, "page image unavailable", "page_id", m.ID, "error", err)
			continue
		}
		dst := filepath.Join(dir, filepath.Base(filepath.FromSlash(m.ID)))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
		slog.InfoContext(ctx, "saved page image", "page_id", m.ID, "path", dst)
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
