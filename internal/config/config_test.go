package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Corpus.Name != "book" {
		t.Errorf("Corpus.Name = %q", cfg.Corpus.Name)
	}
	if cfg.Ranking.TopN != 5 || cfg.Ranking.High != 0.8 || cfg.Ranking.Floor != 0.4 {
		t.Errorf("unexpected ranking defaults %+v", cfg.Ranking)
	}
	if cfg.OCR.Languages != "ara+eng" {
		t.Errorf("OCR.Languages = %q", cfg.OCR.Languages)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
corpus:
  path: data/pages.json
  watch: true
ranking:
  top_n: 3
  high: 0.9
  workers: 4
  cache_size: 128
  normalize: nfc
pages:
  dir: data/images
  strip_segments: 1
ocr:
  languages: eng
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Corpus.Path != "data/pages.json" || !cfg.Corpus.Watch || cfg.Corpus.Name != "book" {
		t.Errorf("unexpected corpus config %+v", cfg.Corpus)
	}
	if cfg.Ranking.TopN != 3 || cfg.Ranking.High != 0.9 || cfg.Ranking.Floor != 0.4 {
		t.Errorf("unexpected ranking config %+v", cfg.Ranking)
	}
	if cfg.Ranking.Workers != 4 || cfg.Ranking.CacheSize != 128 || cfg.Ranking.Normalize != "nfc" {
		t.Errorf("unexpected engine config %+v", cfg.Ranking)
	}
	if cfg.Pages.Dir != "data/images" || cfg.Pages.StripSegments != 1 {
		t.Errorf("unexpected pages config %+v", cfg.Pages)
	}
	if cfg.OCR.Languages != "eng" {
		t.Errorf("unexpected ocr config %+v", cfg.OCR)
	}

	rc, err := pagex.NewRankConfig(cfg.RankOptions()...)
	if err != nil {
		t.Fatalf("RankOptions do not validate: %v", err)
	}
	if rc != (pagex.RankConfig{TopN: 3, High: 0.9, Floor: 0.4}) {
		t.Errorf("unexpected rank config %+v", rc)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]struct {
		data       string
		wantOption bool
	}{
		"malformed yaml":      {data: "ranking: [", wantOption: false},
		"floor above high":    {data: "ranking:\n  high: 0.3\n  floor: 0.5\n", wantOption: true},
		"negative top n":      {data: "ranking:\n  top_n: -2\n", wantOption: true},
		"unknown normalizing": {data: "ranking:\n  normalize: nfx\n", wantOption: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.wantOption && !errors.Is(err, pagex.ErrInvalidOption) {
				t.Errorf("Expected ErrInvalidOption, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg.Ranking.TopN != 5 {
		t.Errorf("Load(\"\") = %+v, %v", cfg, err)
	}

	dir := t.TempDir()
	cfg, err = Load(filepath.Join(dir, "missing.yaml"))
	if err != nil || cfg.Ranking.TopN != 5 {
		t.Errorf("missing file should give defaults, got %+v, %v", cfg, err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ranking:\n  top_n: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ranking.TopN != 2 {
		t.Errorf("TopN = %d, want 2", cfg.Ranking.TopN)
	}
}
