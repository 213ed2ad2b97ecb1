package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/pagex/internal/app"
	"github.com/letmevibethatforyou/pagex/internal/config"
	"github.com/letmevibethatforyou/pagex/internal/tui"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "browse",
		Usage: "Search the book interactively and page through it",
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
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload the corpus file when it changes",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to this file; logs are discarded otherwise",
				EnvVars: []string{"PAGEX_LOG_FILE"},
			},
		},
		Action: runAction,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "browse:", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	if path := c.String("log-file"); path != "" {
		f, err := tea.LogToFile(path, "browse")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if v := strings.TrimSpace(c.String("corpus")); v != "" {
		cfg.Corpus.Path = v
	}
	if v := strings.TrimSpace(c.String("table")); v != "" {
		cfg.Corpus.Table = v
	}
	if c.Bool("watch") {
		cfg.Corpus.Watch = true
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	if err := a.Watch(ctx); err != nil {
		return fmt.Errorf("failed to watch corpus: %w", err)
	}

	m := tui.New(a.Finder, cfg.RankOptions()...)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("ui failed: %w", err)
	}
	return nil
}
