package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pagex-corpus")

// loadError marks err as a corpus load failure.
func loadError(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), pagex.ErrLoad)
}

// Load reads a JSON object mapping page identifier to page text. The order
// of keys in the document is the corpus order. A value may be a string, or
// an object with a string "text" field; any other shape fails with
// pagex.ErrLoad.
func Load(r io.Reader) (*Index, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, loadError(err, "failed to read corpus")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Wrapf(pagex.ErrLoad, "corpus must be a JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, loadError(err, "failed to read page identifier")
		}
		id, ok := tok.(string)
		if !ok {
			return nil, errors.Wrapf(pagex.ErrLoad, "page identifier must be a string, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, loadError(err, "failed to read page %q", id)
		}
		text, err := decodeText(raw)
		if err != nil {
			return nil, loadError(err, "page %q", id)
		}
		entries = append(entries, Entry{ID: id, Text: text})
	}

	if _, err := dec.Token(); err != nil {
		return nil, loadError(err, "unterminated corpus object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrapf(pagex.ErrLoad, "unexpected data after corpus object")
	}

	return NewIndex(entries)
}

// pageObject is the object form of a corpus value.
type pageObject struct {
	Text *string `json:"text"`
}

func decodeText(raw json.RawMessage) (string, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return "", errors.New("missing text")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var obj pageObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", errors.Newf("value must be a string or an object with a text field: %s", truncate(raw, 40))
	}
	if obj.Text == nil {
		return "", errors.New("missing text field")
	}
	return *obj.Text, nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}

// LoadFile reads a JSON corpus from path.
func LoadFile(path string) (*Index, error) {
	return LoadFileContext(context.Background(), path)
}

// LoadFileContext is LoadFile with tracing attached to ctx.
func LoadFileContext(ctx context.Context, path string) (*Index, error) {
	_, span := tracer.Start(ctx, "corpus.load_file",
		trace.WithAttributes(
			attribute.String("corpus.path", path),
		),
	)
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open corpus")
		return nil, loadError(err, "failed to open corpus %s", path)
	}
	defer f.Close()

	idx, err := Load(bufio.NewReader(f))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode corpus")
		return nil, errors.Wrapf(err, "corpus %s", path)
	}

	span.SetAttributes(
		attribute.Int("corpus.size", idx.Len()),
		attribute.String("corpus.revision", idx.Revision()),
	)
	return idx, nil
}
