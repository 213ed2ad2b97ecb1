package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"gopkg.in/yaml.v3"
)

// CorpusConfig selects where the corpus index is loaded from. Path takes
// precedence over the DynamoDB table.
type CorpusConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
	Name  string `yaml:"name"`
	Watch bool   `yaml:"watch"`
}

// RankingConfig holds ranking thresholds and engine tuning.
type RankingConfig struct {
	TopN      int     `yaml:"top_n"`
	High      float64 `yaml:"high"`
	Floor     float64 `yaml:"floor"`
	Workers   int     `yaml:"workers"`
	CacheSize int     `yaml:"cache_size"`
	Normalize string  `yaml:"normalize"`
}

// PagesConfig selects where page images are read from. Dir takes precedence
// over the S3 bucket.
type PagesConfig struct {
	Dir           string `yaml:"dir"`
	StripSegments int    `yaml:"strip_segments"`
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
}

// OCRConfig configures the tesseract extractor.
type OCRConfig struct {
	Binary    string `yaml:"binary"`
	Languages string `yaml:"languages"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Ranking RankingConfig `yaml:"ranking"`
	Pages   PagesConfig   `yaml:"pages"`
	OCR     OCRConfig     `yaml:"ocr"`
}

// Load reads a config from path. If path is empty or the file does not
// exist, defaults are returned.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML config data and fills in defaults for unset values.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks the ranking section.
func (c *AppConfig) Validate() error {
	rc := pagex.RankConfig{TopN: c.Ranking.TopN, High: c.Ranking.High, Floor: c.Ranking.Floor}
	if err := rc.Validate(); err != nil {
		return errors.Wrap(err, "ranking")
	}
	switch c.Ranking.Normalize {
	case "", "none", "nfc", "nfd", "nfkc", "nfkd":
	default:
		return errors.Wrapf(pagex.ErrInvalidOption, "ranking: unknown normalization %q", c.Ranking.Normalize)
	}
	return nil
}

// RankOptions returns the ranking thresholds as options.
func (c *AppConfig) RankOptions() []pagex.RankOption {
	return []pagex.RankOption{
		pagex.WithTopN(c.Ranking.TopN),
		pagex.WithThresholds(c.Ranking.High, c.Ranking.Floor),
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Corpus.Name == "" {
		cfg.Corpus.Name = "book"
	}
	if cfg.Ranking.TopN == 0 {
		cfg.Ranking.TopN = pagex.DefaultTopN
	}
	if cfg.Ranking.High == 0 {
		cfg.Ranking.High = pagex.DefaultHighThreshold
	}
	if cfg.Ranking.Floor == 0 {
		cfg.Ranking.Floor = pagex.DefaultFloorThreshold
	}
	if cfg.OCR.Languages == "" {
		cfg.OCR.Languages = "ara+eng"
	}
}
