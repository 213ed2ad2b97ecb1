package finder

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Rank scores query against every page and applies the threshold policy:
// if the best page scores at least the high threshold it is returned alone,
// otherwise up to TopN pages scoring at least the floor are returned, best
// first, with ties kept in corpus order. A blank query, or one that matches
// nothing well enough, yields empty Items and no error.
func (f *Finder) Rank(ctx context.Context, query string, opts ...pagex.RankOption) (*pagex.Results, error) {
	startTime := time.Now()

	// Check context
	select {
	case <-ctx.Done():
		return nil, pagex.ErrCanceled
	default:
	}

	cfg, err := pagex.NewRankConfig(opts...)
	if err != nil {
		return nil, err
	}

	idx := f.source.Index()

	ctx, span := f.tracer.Start(ctx, "pagex.rank",
		trace.WithAttributes(
			attribute.Int("pagex.query_length", len([]rune(query))),
			attribute.Int("pagex.corpus_size", idx.Len()),
			attribute.String("pagex.revision", idx.Revision()),
			attribute.Int("pagex.top_n", cfg.TopN),
		),
	)
	defer span.End()

	results := &pagex.Results{
		Items:    []pagex.Match{},
		Query:    query,
		Revision: idx.Revision(),
		Scanned:  idx.Len(),
	}

	if query == "" {
		results.Scanned = 0
		results.Took = time.Since(startTime).Milliseconds()
		span.SetAttributes(attribute.Int("pagex.result_count", 0))
		return results, nil
	}

	key := cacheKey(idx.Revision(), cfg, query)
	if f.cache != nil {
		if hit, ok := f.cache.Get(key); ok {
			results.Items = append(results.Items, hit.items...)
			results.Confident = hit.confident
			results.Took = time.Since(startTime).Milliseconds()
			span.SetAttributes(
				attribute.Bool("pagex.cache_hit", true),
				attribute.Int("pagex.result_count", len(results.Items)),
			)
			return results, nil
		}
	}

	p := f.prepare(idx)
	scores, err := f.scoreAll(ctx, p, f.scorer.Tokens(query), cfg.Floor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranking canceled")
		return nil, err
	}

	items, confident := selectMatches(p, scores, cfg)
	results.Items = items
	results.Confident = confident
	results.Took = time.Since(startTime).Milliseconds()

	if f.cache != nil {
		f.cache.Add(key, cachedRanking{
			items:     append([]pagex.Match(nil), items...),
			confident: confident,
		})
	}

	span.SetAttributes(
		attribute.Int("pagex.result_count", len(items)),
		attribute.Bool("pagex.confident", confident),
	)
	slog.DebugContext(ctx, "ranked query",
		"query_length", len([]rune(query)),
		"corpus_size", idx.Len(),
		"results", len(items),
		"confident", confident,
		"took_ms", results.Took,
	)

	return results, nil
}

// scored is the outcome for one corpus position. ok is false when the page
// cannot reach the floor and was not fully scored.
type scored struct {
	score float64
	ok    bool
}

// scoreAll scores every entry of p. The corpus is split into one contiguous
// shard per worker; each worker writes only its own positions.
func (f *Finder) scoreAll(ctx context.Context, p *prepared, query []string, floor float64) ([]scored, error) {
	n := len(p.tokens)
	out := make([]scored, n)
	if n == 0 {
		return out, nil
	}

	workers := f.workers
	if workers > n {
		workers = n
	}
	shard := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += shard {
		lo, hi := lo, lo+shard
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				// Check context periodically
				select {
				case <-gctx.Done():
					return pagex.ErrCanceled
				default:
				}
				score, ok := f.scorer.ScoreAbove(query, p.tokens[i], floor)
				out[i] = scored{score: score, ok: ok}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, pagex.ErrCanceled) {
			return nil, pagex.ErrCanceled
		}
		return nil, err
	}
	return out, nil
}

// selectMatches applies the threshold policy to per-position scores.
func selectMatches(p *prepared, scores []scored, cfg pagex.RankConfig) ([]pagex.Match, bool) {
	candidates := make([]pagex.Match, 0, len(scores))
	for i, s := range scores {
		if !s.ok || s.score < cfg.Floor {
			continue
		}
		candidates = append(candidates, pagex.Match{ID: p.ids[i], Score: s.score})
	}

	// Stable: equal scores keep corpus order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > 0 && candidates[0].Score >= cfg.High {
		return candidates[:1:1], true
	}

	if len(candidates) > cfg.TopN {
		candidates = candidates[:cfg.TopN]
	}
	return candidates, false
}
