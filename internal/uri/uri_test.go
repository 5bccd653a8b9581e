package uri

import "testing"

func TestToURIPosixPath(t *testing.T) {
	got := ToURI("/home/a b/foo.cpp")
	want := "file:///home/a%20b/foo.cpp"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestToURIWindowsDrive(t *testing.T) {
	got := ToURI(`C:\Users\x y\foo.cc`)
	want := "file:///c%3A/Users/x%20y/foo.cc"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFromURIWindowsDriveRoundTrips(t *testing.T) {
	path, err := FromURI("file:///c%3A/Users/x%20y/foo.cc")
	if err != nil {
		t.Fatalf("FromURI: %v", err)
	}
	want := "c:/Users/x y/foo.cc"
	if path != want {
		t.Fatalf("got %q, want %q", path, want)
	}
}

func TestFromURIRejectsNonFileScheme(t *testing.T) {
	if _, err := FromURI("http://example.com/a"); err == nil {
		t.Fatalf("expected an error for a non-file:// uri")
	}
}

func TestCacheRemembersClientSpelling(t *testing.T) {
	c := New()
	c.Remember("/home/a/Foo.cpp", "file:///home/a/FOO.cpp")
	if got := c.URIFor("/home/a/Foo.cpp"); got != "file:///home/a/FOO.cpp" {
		t.Fatalf("got %q, want the remembered client spelling", got)
	}
}

func TestCacheComputesAndCachesOnFirstSight(t *testing.T) {
	c := New()
	first := c.URIFor("/home/a/bar.cpp")
	if first != "file:///home/a/bar.cpp" {
		t.Fatalf("got %q", first)
	}
	// Second call should hit the cache (no observable difference here, but
	// Forget should make a fresh computation happen again).
	c.Forget("/home/a/bar.cpp")
	second := c.URIFor("/home/a/bar.cpp")
	if second != first {
		t.Fatalf("recomputed URI %q should match original %q", second, first)
	}
}
