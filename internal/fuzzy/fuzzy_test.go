package fuzzy

import "testing"

func TestScoreEmptyPatternEmptyText(t *testing.T) {
	if got := Score("", ""); got != 0 {
		t.Fatalf("Score(\"\",\"\") = %d, want 0", got)
	}
}

func TestScoreEmptyPatternNonEmptyTextIsNegative(t *testing.T) {
	if got := Score("", "anything"); got >= 0 {
		t.Fatalf("Score(\"\", \"anything\") = %d, want negative", got)
	}
}

func TestScoreTextOverMaxLenIsSentinel(t *testing.T) {
	long := make([]byte, MaxTextLen+1)
	for i := range long {
		long[i] = 'a'
	}
	got := Score("a", string(long))
	if got <= MinScore {
		t.Fatalf("Score with oversized text = %d, want > MinScore (sentinel)", got)
	}
	m := NewMatcher(0)
	if m.Match("a", string(long)) {
		t.Fatalf("oversized text must never be considered a match by callers")
	}
}

func TestRankByCamelCase(t *testing.T) {
	cands := []string{"CamelCase", "camelCase", "camelcase"}
	scores := make([]int, len(cands))
	for i, c := range cands {
		scores[i] = Score("CC", c)
	}
	if !(scores[0] > scores[1] && scores[1] > scores[2]) {
		t.Fatalf("expected strictly decreasing scores for CC vs %v, got %v", cands, scores)
	}
}

func TestRankASTAbbreviation(t *testing.T) {
	m := NewMatcher(0)
	ranked := m.FindMatches("ast", []string{"ast", "AST", "INT_FAST16_MAX"})
	if len(ranked) == 0 || ranked[0].Text != "ast" {
		t.Fatalf("expected exact-case match first, got %v", ranked)
	}
	last := Score("ast", "INT_FAST16_MAX")
	if last >= ranked[0].Score {
		t.Fatalf("INT_FAST16_MAX should score far below ast itself: %d vs %d", last, ranked[0].Score)
	}
}

func TestHeadHeadBeatsHeadTail(t *testing.T) {
	// A Head/Head match must outrank a Head/Tail match for the same
	// lowercase letters, all else equal.
	headHead := Score("S", "Snake")
	headTail := Score("S", "transition")
	if headHead <= headTail {
		t.Fatalf("head-head match (%d) should outrank head-tail match (%d)", headHead, headTail)
	}
}

func TestDeterministicAndPure(t *testing.T) {
	a := Score("Fzy", "FuzzyMatcher")
	b := Score("Fzy", "FuzzyMatcher")
	if a != b {
		t.Fatalf("Score must be pure/deterministic, got %d then %d", a, b)
	}
}

func TestFindMatchesRespectsThreshold(t *testing.T) {
	m := NewMatcher(MinScore)
	matches := m.FindMatches("zzz", []string{"completely_unrelated_name"})
	for _, rm := range matches {
		if !m.Accepts(rm.Score) {
			t.Fatalf("FindMatches returned a rejected candidate: %+v", rm)
		}
	}
}
