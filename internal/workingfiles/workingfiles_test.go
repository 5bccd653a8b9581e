package workingfiles

import (
	"testing"

	"github.com/cxxls/cxxls/internal/types"
)

func TestOpenGetClose(t *testing.T) {
	s := New()
	s.Open("a.cpp", 1, "int main() {}\n")
	f, ok := s.Get("a.cpp")
	if !ok || f.Buffer != "int main() {}\n" || f.Version != 1 {
		t.Fatalf("unexpected file state: %+v ok=%v", f, ok)
	}
	s.Close("a.cpp")
	if _, ok := s.Get("a.cpp"); ok {
		t.Fatalf("expected file to be gone after Close")
	}
}

func TestOnChangeAppliesEditsInOrder(t *testing.T) {
	s := New()
	s.Open("a.cpp", 1, "line0\nline1\nline2\n")

	// Replace "line1" on line 1 with "LINE1", then append a line.
	edits := []TextEdit{
		{HasRange: true, Range: types.Range{
			Start: types.Position{Line: 1, Column: 0},
			End:   types.Position{Line: 1, Column: 5},
		}, NewText: "LINE1"},
		{HasRange: true, Range: types.Range{
			Start: types.Position{Line: 3, Column: 0},
			End:   types.Position{Line: 3, Column: 0},
		}, NewText: "line3\n"},
	}
	if !s.OnChange("a.cpp", 2, edits) {
		t.Fatalf("OnChange on an open file should succeed")
	}
	f, _ := s.Get("a.cpp")
	want := "line0\nLINE1\nline2\nline3\n"
	if f.Buffer != want {
		t.Fatalf("got %q, want %q", f.Buffer, want)
	}
	if f.Version != 2 {
		t.Fatalf("expected version 2, got %d", f.Version)
	}
}

func TestOnChangeUnknownFile(t *testing.T) {
	s := New()
	if s.OnChange("missing.cpp", 2, nil) {
		t.Fatalf("OnChange on an unopened file should fail")
	}
}

func TestUnchangedSinceIndexTracksEdits(t *testing.T) {
	s := New()
	s.Open("a.cpp", 1, "int x;")
	if s.UnchangedSinceIndex("a.cpp") {
		t.Fatalf("never-indexed file should not be considered stable")
	}
	s.MarkIndexed("a.cpp")
	if !s.UnchangedSinceIndex("a.cpp") {
		t.Fatalf("just-indexed file should be stable")
	}
	s.OnChange("a.cpp", 2, []TextEdit{{HasRange: false, NewText: "int y;"}})
	if s.UnchangedSinceIndex("a.cpp") {
		t.Fatalf("edited file should no longer be stable")
	}
}
