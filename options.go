package pagex

import "github.com/cockroachdb/errors"

// Ranking defaults.
const (
	// DefaultTopN is the maximum number of low-confidence results returned.
	DefaultTopN = 5
	// DefaultHighThreshold is the score at which a single result is returned alone.
	DefaultHighThreshold = 0.8
	// DefaultFloorThreshold is the minimum score a result needs to be returned.
	DefaultFloorThreshold = 0.4
)

// RankOption represents a ranking configuration option.
type RankOption interface {
	Apply(*RankConfig)
}

// RankConfig holds all ranking configuration parameters.
type RankConfig struct {
	// TopN is the maximum number of results returned when no result
	// reaches the high threshold.
	TopN int

	// High is the score at or above which only the best result is returned.
	High float64

	// Floor is the score below which results are discarded.
	Floor float64
}

// DefaultRankConfig returns the configuration used when no options are given.
func DefaultRankConfig() RankConfig {
	return RankConfig{
		TopN:  DefaultTopN,
		High:  DefaultHighThreshold,
		Floor: DefaultFloorThreshold,
	}
}

// NewRankConfig applies opts on top of the defaults and validates the result.
func NewRankConfig(opts ...RankOption) (RankConfig, error) {
	cfg := DefaultRankConfig()
	for _, opt := range opts {
		opt.Apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return RankConfig{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration can be used for ranking.
func (c RankConfig) Validate() error {
	if c.TopN < 1 {
		return errors.Wrapf(ErrInvalidOption, "top n must be at least 1, got %d", c.TopN)
	}
	if c.High < 0 || c.High > 1 {
		return errors.Wrapf(ErrInvalidOption, "high threshold must be within [0,1], got %v", c.High)
	}
	if c.Floor < 0 || c.Floor > 1 {
		return errors.Wrapf(ErrInvalidOption, "floor threshold must be within [0,1], got %v", c.Floor)
	}
	if c.Floor > c.High {
		return errors.Wrapf(ErrInvalidOption, "floor threshold %v is above high threshold %v", c.Floor, c.High)
	}
	return nil
}

// optionFunc is a function that implements RankOption.
type optionFunc func(*RankConfig)

// Apply implements the RankOption interface for optionFunc.
func (f optionFunc) Apply(cfg *RankConfig) {
	f(cfg)
}

// WithTopN sets the maximum number of results returned below the high threshold.
func WithTopN(n int) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.TopN = n
	})
}

// WithThresholds sets the high-confidence and floor thresholds.
func WithThresholds(high, floor float64) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.High = high
		cfg.Floor = floor
	})
}
