// Package semscore implements the blended secondary ranker: a
// tie-breaker and "did you mean" suggestion score for workspace/symbol
// queries, used only when the primary deterministic DP scorer in
// internal/fuzzy returns no matches or ties. It never reorders the DP
// ranking's own observable output.
package semscore

import (
	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/cxxls/cxxls/internal/fuzzy"
)

const (
	// weightDP, weightJaroWinkler, weightLevenshtein, weightStem sum to 1.0.
	weightDP          = 0.55
	weightJaroWinkler = 0.25
	weightLevenshtein = 0.10
	weightStem        = 0.10

	// dpNormalizer rescales internal/fuzzy.Score's roughly [-1000, 200]
	// range into [0, 1] for blending with the 0-1 edlib/stem signals.
	dpNormalizer = 200.0
)

// Score blends internal/fuzzy's deterministic DP score with Jaro-Winkler
// and Levenshtein similarity from go-edlib, plus a porter2 stemmed-root
// equality bonus, into one 0-1 secondary ranking signal.
func Score(pattern, candidate string) float64 {
	dp := normalizeDP(fuzzy.Score(pattern, candidate))

	jw, err := edlib.StringsSimilarity(pattern, candidate, edlib.JaroWinkler)
	if err != nil {
		jw = 0
	}

	lev, err := edlib.StringsSimilarity(pattern, candidate, edlib.Levenshtein)
	if err != nil {
		lev = 0
	}
	levSimilarity := float64(lev)
	if levSimilarity < 0 {
		levSimilarity = 0
	}

	stem := 0.0
	if pattern != "" && candidate != "" && porter2.Stem(pattern) == porter2.Stem(candidate) {
		stem = 1.0
	}

	return weightDP*dp + weightJaroWinkler*float64(jw) + weightLevenshtein*levSimilarity + weightStem*stem
}

func normalizeDP(score int) float64 {
	if score <= fuzzy.MinScore {
		return 0
	}
	v := float64(score) / dpNormalizer
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Suggestion pairs a candidate symbol name with its blended score.
type Suggestion struct {
	Name  string
	Score float64
}

// Suggest ranks candidates by blended Score, descending, for use as
// "did you mean" output when a workspace/symbol query's DP pass returns
// zero matches.
func Suggest(pattern string, candidates []string) []Suggestion {
	out := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Suggestion{Name: c, Score: Score(pattern, c)})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
