// Package app wires configuration into a ready-to-serve finder, page store
// and OCR extractor. It is shared by the command line tools and the Lambda.
package app

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
	"github.com/letmevibethatforyou/pagex/finder"
	"github.com/letmevibethatforyou/pagex/internal/config"
	"github.com/letmevibethatforyou/pagex/ocr"
	"github.com/letmevibethatforyou/pagex/pages"
	"github.com/letmevibethatforyou/pagex/similarity"
	"golang.org/x/text/unicode/norm"
)

// App holds the assembled components.
type App struct {
	Config *config.AppConfig
	Holder *corpus.Holder
	Finder *finder.Finder
	// Pages is nil when no page image source is configured.
	Pages pages.Store
	OCR   ocr.Extractor

	awsConfig func() (aws.Config, error)
}

// ConfigureLogging switches slog to JSON output when running inside AWS.
func ConfigureLogging() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
}

// New loads the corpus and assembles the components described by cfg. A
// corpus that cannot be loaded is fatal: no App is returned.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{
		Config: cfg,
		awsConfig: sync.OnceValues(func() (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx)
		}),
	}

	idx, err := a.openCorpus(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "corpus loaded", "size", idx.Len(), "revision", idx.Revision())

	a.Holder = corpus.NewHolder(idx)

	scorer, err := newScorer(cfg.Ranking.Normalize)
	if err != nil {
		return nil, err
	}
	opts := []finder.Option{
		finder.WithScorer(scorer),
		finder.WithWorkers(cfg.Ranking.Workers),
	}
	if cfg.Ranking.CacheSize > 0 {
		opts = append(opts, finder.WithCache(cfg.Ranking.CacheSize))
	}
	a.Finder = finder.New(a.Holder, opts...)

	a.Pages, err = a.openPages(ctx)
	if err != nil {
		return nil, err
	}

	a.OCR = ocr.NewTesseract(
		ocr.WithBinary(cfg.OCR.Binary),
		ocr.WithLanguages(cfg.OCR.Languages),
	)
	return a, nil
}

// Watch starts reloading the corpus file on change when enabled in the
// config. It returns immediately; the watcher stops when ctx is done.
func (a *App) Watch(ctx context.Context) error {
	if !a.Config.Corpus.Watch || a.Config.Corpus.Path == "" {
		return nil
	}
	w, err := corpus.NewWatcher(a.Config.Corpus.Path, a.Holder)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "corpus watcher stopped", "error", err)
		}
	}()
	slog.InfoContext(ctx, "watching corpus for changes", "path", a.Config.Corpus.Path)
	return nil
}

func (a *App) openCorpus(ctx context.Context) (*corpus.Index, error) {
	c := a.Config.Corpus
	switch {
	case c.Path != "":
		return corpus.LoadFileContext(ctx, c.Path)
	case c.Table != "":
		awsCfg, err := a.awsConfig()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to load AWS config"), pagex.ErrLoad)
		}
		return corpus.LoadDynamoDB(ctx, dynamodb.NewFromConfig(awsCfg), c.Table, c.Name)
	default:
		return nil, errors.Wrap(pagex.ErrLoad, "no corpus source configured: set a corpus file or a DynamoDB table")
	}
}

func (a *App) openPages(ctx context.Context) (pages.Store, error) {
	p := a.Config.Pages
	switch {
	case p.Dir != "":
		return pages.NewDir(p.Dir, pages.WithStripSegments(p.StripSegments)), nil
	case p.Bucket != "":
		awsCfg, err := a.awsConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS config")
		}
		return pages.NewS3(s3.NewFromConfig(awsCfg), p.Bucket, p.Prefix), nil
	default:
		slog.DebugContext(ctx, "no page image source configured")
		return nil, nil
	}
}

func newScorer(form string) (*similarity.Scorer, error) {
	switch form {
	case "", "none":
		return similarity.New(), nil
	case "nfc":
		return similarity.New(similarity.WithNormalization(norm.NFC)), nil
	case "nfd":
		return similarity.New(similarity.WithNormalization(norm.NFD)), nil
	case "nfkc":
		return similarity.New(similarity.WithNormalization(norm.NFKC)), nil
	case "nfkd":
		return similarity.New(similarity.WithNormalization(norm.NFKD)), nil
	default:
		return nil, errors.Wrapf(pagex.ErrInvalidOption, "unknown normalization %q", form)
	}
}
