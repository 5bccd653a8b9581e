package idcodec

import (
	"testing"

	"github.com/cxxls/cxxls/internal/types"
)

func TestEncodeZero(t *testing.T) {
	if got := Encode(0); got != "A" {
		t.Fatalf("Encode(0) = %q, want \"A\"", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 62, 63, 12345, 1 << 40, ^uint64(0)} {
		enc := Encode(v)
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", enc, err)
		}
		if dec != v {
			t.Fatalf("round trip mismatch: %d -> %q -> %d", v, enc, dec)
		}
	}
}

func TestDecodeEmptyErrors(t *testing.T) {
	if _, err := Decode(""); err != ErrEmptyString {
		t.Fatalf("expected ErrEmptyString, got %v", err)
	}
}

func TestDecodeInvalidChar(t *testing.T) {
	if _, err := Decode("abc!"); err == nil {
		t.Fatalf("expected error for invalid character")
	}
}

func TestQueryIDRoundTrip(t *testing.T) {
	id := types.QueryID(9001)
	enc := EncodeQueryID(id)
	dec, err := DecodeQueryID(enc)
	if err != nil || dec != id {
		t.Fatalf("QueryID round trip failed: dec=%v err=%v", dec, err)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(Encode(42)) {
		t.Fatalf("expected encoded value to be valid")
	}
	if IsValid("") {
		t.Fatalf("empty string should not be valid")
	}
}
