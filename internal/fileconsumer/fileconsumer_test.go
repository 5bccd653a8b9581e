package fileconsumer

import "testing"

func TestMarkIsFirstClaimOnly(t *testing.T) {
	r := New()
	if !r.Mark("widget.h") {
		t.Fatalf("first Mark should claim the file")
	}
	if r.Mark("widget.h") {
		t.Fatalf("second Mark should not reclaim an owned file")
	}
}

func TestUnmarkAllowsReclaim(t *testing.T) {
	r := New()
	r.Mark("widget.h")
	r.Unmark("widget.h")
	if !r.Mark("widget.h") {
		t.Fatalf("Mark after Unmark should succeed")
	}
}

func TestOwnsAndLen(t *testing.T) {
	r := New()
	if r.Owns("a.h") {
		t.Fatalf("unclaimed file should not be owned")
	}
	r.Mark("a.h")
	r.Mark("b.h")
	if !r.Owns("a.h") || r.Len() != 2 {
		t.Fatalf("expected 2 owned files, got len=%d", r.Len())
	}
}
