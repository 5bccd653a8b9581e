package version

import (
	"strings"
	"testing"
)

func TestBuildIDIsStableAndNonEmpty(t *testing.T) {
	a := BuildID()
	b := BuildID()
	if a == "" {
		t.Fatal("expected a non-empty build id")
	}
	if a != b {
		t.Fatalf("expected BuildID to be stable across calls, got %q then %q", a, b)
	}
}

func TestFullInfoIncludesVersion(t *testing.T) {
	got := FullInfo()
	if !strings.Contains(got, Version) {
		t.Fatalf("expected full info %q to include version %q", got, Version)
	}
}
