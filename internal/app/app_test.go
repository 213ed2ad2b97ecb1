package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/internal/config"
)

func writeCorpus(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Corpus.Path = writeCorpus(t, dir, `{"p1": "abcdef", "p2": "xyz"}`)
	cfg.Pages.Dir = dir
	cfg.Ranking.CacheSize = 16
	cfg.Ranking.Normalize = "nfc"

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.Holder.Index().Len() != 2 {
		t.Errorf("Expected 2 pages, got %d", a.Holder.Index().Len())
	}
	if a.Pages == nil {
		t.Error("Expected a page store")
	}
	if a.OCR == nil {
		t.Error("Expected an OCR extractor")
	}

	results, err := a.Finder.Rank(context.Background(), "abcd", cfg.RankOptions()...)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if best, ok := results.Best(); !ok || best.ID != "p1" {
		t.Errorf("unexpected results %+v", results.Items)
	}
}

func TestNewWithoutCorpus(t *testing.T) {
	_, err := New(context.Background(), config.Default())
	if !errors.Is(err, pagex.ErrLoad) {
		t.Errorf("Expected ErrLoad, got %v", err)
	}
}

func TestNewBrokenCorpus(t *testing.T) {
	cfg := config.Default()
	cfg.Corpus.Path = writeCorpus(t, t.TempDir(), `{"p1": 1}`)
	if _, err := New(context.Background(), cfg); !errors.Is(err, pagex.ErrLoad) {
		t.Errorf("Expected ErrLoad, got %v", err)
	}
}

func TestNewScorer(t *testing.T) {
	for _, form := range []string{"", "none", "nfc", "nfd", "nfkc", "nfkd"} {
		if _, err := newScorer(form); err != nil {
			t.Errorf("newScorer(%q) failed: %v", form, err)
		}
	}
	if _, err := newScorer("upper"); !errors.Is(err, pagex.ErrInvalidOption) {
		t.Errorf("Expected ErrInvalidOption, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Corpus.Path = writeCorpus(t, dir, `{"p1": "one"}`)
	cfg.Corpus.Watch = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := a.Watch(ctx); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	writeCorpus(t, dir, `{"p1": "one", "p2": "two"}`)
	deadline := time.Now().Add(5 * time.Second)
	for a.Holder.Index().Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatal("corpus was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, err := a.Finder.Navigate(ctx, "p1", pagex.Forward); err != nil {
		t.Errorf("finder does not see the reloaded corpus: %v", err)
	}
}
