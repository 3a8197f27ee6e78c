package uuidutil

import "testing"

func TestParseAndStringRoundTrip(t *testing.T) {
	const canonical = "6823a838-1b06-470e-9774-0cce8bfb53fd"
	u, err := Parse(canonical)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.String() != canonical {
		t.Fatalf("String() = %q, want %q", u.String(), canonical)
	}
	if u.IsNil() {
		t.Fatalf("parsed non-zero uuid reported IsNil")
	}
}

func TestNilUUIDIsNil(t *testing.T) {
	if !(UUID{}).IsNil() {
		t.Fatalf("zero-value UUID should report IsNil")
	}
}

func TestMustParsePanicsOnInvalidInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("MustParse should panic on invalid input")
		}
	}()
	MustParse("not-a-uuid")
}

func TestNewProducesDistinctNonNilUUIDs(t *testing.T) {
	a, b := New(), New()
	if a.IsNil() || b.IsNil() {
		t.Fatalf("generated uuid should not be nil")
	}
	if a == b {
		t.Fatalf("two calls to New() produced the same uuid")
	}
}
