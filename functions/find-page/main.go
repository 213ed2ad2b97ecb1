package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
	"github.com/letmevibethatforyou/pagex/internal/app"
	"github.com/letmevibethatforyou/pagex/internal/config"
	"github.com/letmevibethatforyou/pagex/pages"
	"github.com/urfave/cli/v2"
)

// Request is the Lambda input. Exactly one of Query, Text, Callback or ID is
// expected; Text is text already read off a photo and is ranked like Query.
type Request struct {
	Query        string `json:"query,omitempty"`
	Text         string `json:"text,omitempty"`
	Callback     string `json:"callback,omitempty"`
	ID           string `json:"id,omitempty"`
	Direction    string `json:"direction,omitempty"`
	IncludeImage bool   `json:"include_image,omitempty"`
}

// Page is a page in a response, with its image when asked for.
type Page struct {
	ID       string  `json:"id"`
	Score    float64 `json:"score,omitempty"`
	Image    string  `json:"image,omitempty"`
	Next     string  `json:"next_callback"`
	Previous string  `json:"prev_callback"`
}

// Response is the Lambda output.
type Response struct {
	Matches   []Page `json:"matches,omitempty"`
	Confident bool   `json:"confident,omitempty"`
	Page      *Page  `json:"page,omitempty"`
	Found     bool   `json:"found"`
	Message   string `json:"message,omitempty"`
	Revision  string `json:"revision,omitempty"`
}

type finderAPI interface {
	Rank(ctx context.Context, query string, opts ...pagex.RankOption) (*pagex.Results, error)
	Navigate(ctx context.Context, id string, dir pagex.Direction) (string, error)
	Lookup(ctx context.Context, id string) (corpus.Entry, bool)
}

type Handler struct {
	finder finderAPI
	// pages is nil when no image source is configured.
	pages pages.Store
	opts  []pagex.RankOption
}

func NewHandler(finder finderAPI, store pages.Store, opts ...pagex.RankOption) *Handler {
	return &Handler{finder: finder, pages: store, opts: opts}
}

func (h *Handler) HandleRequest(ctx context.Context, req Request) (*Response, error) {
	switch {
	case req.Callback != "":
		cb, err := pagex.ParseCallback(req.Callback)
		if err != nil {
			return nil, err
		}
		if dir, ok := cb.Direction(); ok {
			return h.navigate(ctx, cb.ID, dir, req.IncludeImage)
		}
		return h.open(ctx, cb.ID, req.IncludeImage)

	case req.ID != "":
		if req.Direction == "" {
			return h.open(ctx, req.ID, req.IncludeImage)
		}
		dir, err := pagex.ParseDirection(req.Direction)
		if err != nil {
			return nil, err
		}
		return h.navigate(ctx, req.ID, dir, req.IncludeImage)

	default:
		query := req.Query
		if query == "" {
			query = req.Text
		}
		return h.rank(ctx, query, req.IncludeImage)
	}
}

func (h *Handler) rank(ctx context.Context, query string, withImage bool) (*Response, error) {
	slog.InfoContext(ctx, "ranking pages", "query_length", len([]rune(query)))

	results, err := h.finder.Rank(ctx, query, h.opts...)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Confident: results.Confident,
		Found:     !results.Empty(),
		Revision:  results.Revision,
	}
	if results.Empty() {
		resp.Message = "no matching page found"
		return resp, nil
	}
	for _, m := range results.Items {
		p := newPage(m.ID)
		p.Score = m.Score
		// Only the page the user will see first carries its image.
		if withImage && len(resp.Matches) == 0 {
			h.attachImage(ctx, &p)
		}
		resp.Matches = append(resp.Matches, p)
	}
	return resp, nil
}

func (h *Handler) open(ctx context.Context, id string, withImage bool) (*Response, error) {
	if _, ok := h.finder.Lookup(ctx, id); !ok {
		return &Response{Message: "page not found"}, nil
	}
	p := newPage(id)
	if withImage {
		h.attachImage(ctx, &p)
	}
	return &Response{Page: &p, Found: true}, nil
}

func (h *Handler) navigate(ctx context.Context, id string, dir pagex.Direction, withImage bool) (*Response, error) {
	target, err := h.finder.Navigate(ctx, id, dir)
	if err != nil {
		if pagex.IsNoPage(err) {
			slog.InfoContext(ctx, "no further pages", "page_id", id, "direction", dir.String(), "reason", err)
			return &Response{Message: "no further pages"}, nil
		}
		return nil, err
	}
	p := newPage(target)
	if withImage {
		h.attachImage(ctx, &p)
	}
	return &Response{Page: &p, Found: true}, nil
}

func (h *Handler) attachImage(ctx context.Context, p *Page) {
	if h.pages == nil {
		return
	}
	data, err := h.pages.Get(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, pagex.ErrPageNotFound) {
			slog.WarnContext(ctx, "failed to read page image", "page_id", p.ID, "error", err)
		}
		return
	}
	p.Image = base64.StdEncoding.EncodeToString(data)
}

func newPage(id string) Page {
	return Page{
		ID:       id,
		Next:     pagex.NavCallback(id, pagex.Forward).String(),
		Previous: pagex.NavCallback(id, pagex.Backward).String(),
	}
}

func main() {
	app.ConfigureLogging()

	cliApp := &cli.App{
		Name:  "find-page",
		Usage: "Serve page lookups and navigation from AWS Lambda",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file",
				EnvVars: []string{"PAGEX_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "corpus",
				Usage:   "Path to the JSON corpus bundled with the function",
				EnvVars: []string{"PAGEX_CORPUS"},
			},
			&cli.StringFlag{
				Name:    "table-name",
				Usage:   "DynamoDB table holding the corpus",
				EnvVars: []string{"PAGEX_TABLE", "TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "corpus-name",
				Usage:   "Corpus partition in the DynamoDB table",
				EnvVars: []string{"PAGEX_CORPUS_NAME"},
			},
			&cli.StringFlag{
				Name:    "bucket",
				Usage:   "S3 bucket holding page images",
				EnvVars: []string{"PAGEX_PAGES_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Key prefix of page images in the S3 bucket",
				EnvVars: []string{"PAGEX_PAGES_PREFIX"},
			},
		},
		Action: runAction,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(c.String("corpus")); v != "" {
		cfg.Corpus.Path = v
	}
	if v := strings.TrimSpace(c.String("table-name")); v != "" {
		cfg.Corpus.Table = v
	}
	if v := strings.TrimSpace(c.String("corpus-name")); v != "" {
		cfg.Corpus.Name = v
	}
	if v := strings.TrimSpace(c.String("bucket")); v != "" {
		cfg.Pages.Bucket = v
	}
	if v := strings.TrimSpace(c.String("prefix")); v != "" {
		cfg.Pages.Prefix = v
	}

	slog.InfoContext(ctx, "Starting page finder", "corpus", cfg.Corpus.Path, "table", cfg.Corpus.Table)

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load corpus", "error", err)
		return err
	}

	handler := NewHandler(a.Finder, a.Pages, cfg.RankOptions()...)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleRequest)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
