// Package finder ranks corpus pages against a query and steps through the
// corpus from a given page. A Finder holds no per-user state: every call is a
// function of its arguments and the index published by its source.
package finder

import (
	"fmt"
	"runtime"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
	"github.com/letmevibethatforyou/pagex/similarity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCacheSize is the number of ranked queries kept by WithCache when a
// non-positive size is requested.
const DefaultCacheSize = 256

// Finder implements pagex.Finder over a corpus source.
type Finder struct {
	source   corpus.Source
	scorer   *similarity.Scorer
	workers  int
	cache    *lru.Cache[string, cachedRanking]
	tracer   trace.Tracer
	prepared atomic.Pointer[prepared]
}

var _ pagex.Finder = (*Finder)(nil)

// Option configures a Finder.
type Option func(*Finder)

// WithScorer replaces the default similarity scorer.
func WithScorer(s *similarity.Scorer) Option {
	return func(f *Finder) {
		if s != nil {
			f.scorer = s
		}
	}
}

// WithWorkers sets how many goroutines score the corpus in parallel.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithCache keeps the results of the last size distinct rankings. Ranking is
// deterministic for a given index revision, so cached results are exact.
func WithCache(size int) Option {
	return func(f *Finder) {
		if size <= 0 {
			size = DefaultCacheSize
		}
		cache, _ := lru.New[string, cachedRanking](size)
		f.cache = cache
	}
}

// New creates a Finder reading from source. Pass a *corpus.Index for a fixed
// corpus or a *corpus.Holder to follow hot reloads.
func New(source corpus.Source, opts ...Option) *Finder {
	f := &Finder{
		source:  source,
		scorer:  similarity.New(),
		workers: runtime.GOMAXPROCS(0),
		tracer:  otel.Tracer("pagex-finder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// prepared caches the tokenized text of every entry of one index.
type prepared struct {
	idx    *corpus.Index
	ids    []string
	tokens [][]string
}

// prepare returns the tokenized corpus for idx, building it on first use.
// Concurrent callers may build it twice; both results are identical.
func (f *Finder) prepare(idx *corpus.Index) *prepared {
	if p := f.prepared.Load(); p != nil && p.idx == idx {
		return p
	}

	entries := idx.Entries()
	p := &prepared{
		idx:    idx,
		ids:    make([]string, len(entries)),
		tokens: make([][]string, len(entries)),
	}
	for i, e := range entries {
		p.ids[i] = e.ID
		p.tokens[i] = f.scorer.Tokens(e.Text)
	}
	f.prepared.Store(p)
	return p
}

type cachedRanking struct {
	items     []pagex.Match
	confident bool
}

func cacheKey(revision string, cfg pagex.RankConfig, query string) string {
	return fmt.Sprintf("%s\x1f%d\x1f%g\x1f%g\x1f%s", revision, cfg.TopN, cfg.High, cfg.Floor, query)
}
