// Package similarity scores how closely a query matches a candidate text
// using Ratcliff/Obershelp "gestalt" sequence matching.
//
// The score is 2*M/T where M is the number of elements in all matching
// blocks, found by repeatedly taking the longest common contiguous block and
// recursing into the unmatched text on either side, and T is the total
// number of elements in both strings. Strings are compared one Unicode code
// point at a time, so multi-byte scripts such as Arabic are never split
// mid-character.
//
// Matching follows Python's difflib.SequenceMatcher exactly, including its
// automatic junk heuristic: when the candidate has 200 or more code points,
// code points occurring in more than 1% of it are not used to seed matches.
// The heuristic only inspects the candidate, so Score is not symmetric;
// always pass the query first.
package similarity

import (
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// Scorer compares strings. The zero value compares code points as given.
type Scorer struct {
	normalize bool
	form      norm.Form
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithNormalization applies the Unicode normalization form to both strings
// before comparing them. Composed and decomposed spellings of the same
// character then score as equal.
func WithNormalization(form norm.Form) Option {
	return func(s *Scorer) {
		s.normalize = true
		s.form = form
	}
}

// New returns a Scorer configured with opts.
func New(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultScorer = New()

// Score returns the similarity of query and candidate in [0,1]. Two empty
// strings score 1; an empty string against a non-empty one scores 0.
func Score(query, candidate string) float64 {
	return defaultScorer.Score(query, candidate)
}

// Score returns the similarity of query and candidate in [0,1].
func (s *Scorer) Score(query, candidate string) float64 {
	return s.ScoreTokens(s.Tokens(query), s.Tokens(candidate))
}

// Tokens splits text into the sequence Score compares: one element per code
// point, after normalization if the scorer has it enabled. Callers comparing
// the same text repeatedly can split it once.
func (s *Scorer) Tokens(text string) []string {
	if s.normalize {
		text = s.form.String(text)
	}
	tokens := make([]string, 0, len(text))
	for _, r := range text {
		tokens = append(tokens, string(r))
	}
	return tokens
}

// ScoreTokens returns the similarity of two token sequences produced by Tokens.
func (s *Scorer) ScoreTokens(query, candidate []string) float64 {
	return difflib.NewMatcher(query, candidate).Ratio()
}

// ScoreAbove scores query against candidate only if the score could reach
// floor. It checks two cheap upper bounds first: one from the lengths alone
// and one from the multiset intersection of the code points. When either
// bound is below floor the full match is skipped and ok is false.
func (s *Scorer) ScoreAbove(query, candidate []string, floor float64) (score float64, ok bool) {
	if LengthBound(len(query), len(candidate)) < floor {
		return 0, false
	}
	m := difflib.NewMatcher(query, candidate)
	if m.QuickRatio() < floor {
		return 0, false
	}
	score = m.Ratio()
	return score, score >= floor
}

// LengthBound is the best score two sequences of the given lengths can
// reach: every element of the shorter one matched.
func LengthBound(a, b int) float64 {
	if a+b == 0 {
		return 1
	}
	shorter := a
	if b < shorter {
		shorter = b
	}
	return 2 * float64(shorter) / float64(a+b)
}
