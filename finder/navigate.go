package finder

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Navigate returns the identifier next to id in direction dir. It fails with
// pagex.ErrInvalidIdentifier when id is not in the corpus and with
// pagex.ErrNoFurtherPages when id is the first or last page. Both mean "no
// further pages" to a user; the distinction is for logs.
func (f *Finder) Navigate(ctx context.Context, id string, dir pagex.Direction) (string, error) {
	idx := f.source.Index()

	_, span := f.tracer.Start(ctx, "pagex.navigate",
		trace.WithAttributes(
			attribute.String("pagex.page_id", id),
			attribute.String("pagex.direction", dir.String()),
			attribute.String("pagex.revision", idx.Revision()),
		),
	)
	defer span.End()

	offset := dir.Offset()
	if offset == 0 {
		err := errors.Wrapf(pagex.ErrInvalidOption, "invalid direction %d", int(dir))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid direction")
		return "", err
	}

	pos, ok := idx.IndexOf(id)
	if !ok {
		err := errors.Wrapf(pagex.ErrInvalidIdentifier, "page %q is not in the corpus", id)
		span.SetStatus(codes.Error, "unknown page")
		return "", err
	}

	next, err := idx.EntryAt(pos + offset)
	if err != nil {
		if errors.Is(err, pagex.ErrOutOfRange) {
			return "", errors.Wrapf(pagex.ErrNoFurtherPages, "no page %s of %q", dir, id)
		}
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.String("pagex.target_id", next.ID))
	return next.ID, nil
}

// Adjacent returns the identifier next to id in direction dir. The boolean
// is false when there is no such page, including when id is unknown.
func (f *Finder) Adjacent(ctx context.Context, id string, dir pagex.Direction) (string, bool) {
	next, err := f.Navigate(ctx, id, dir)
	if err != nil {
		return "", false
	}
	return next, true
}

// Lookup returns the page with the given identifier from the current index.
func (f *Finder) Lookup(ctx context.Context, id string) (corpus.Entry, bool) {
	return f.source.Index().Lookup(id)
}

// Revision returns the revision of the index currently being served.
func (f *Finder) Revision() string {
	return f.source.Index().Revision()
}
