package intern

import "testing"

// TestInternerIdentity verifies that interning the same string twice yields
// handles that compare equal, two distinct strings bump the table to two
// live entries, and refcounts track how many times each string was interned.
func TestInternerIdentity(t *testing.T) {
	in := New()

	hello1 := in.Intern("hello")
	hello2 := in.Intern("hello")
	world := in.Intern("world")

	if !hello1.Equal(hello2) {
		t.Fatalf("expected two interns of %q to be equal handles", "hello")
	}
	if hello1.Equal(world) {
		t.Fatalf("expected %q and %q to be distinct handles", "hello", "world")
	}

	if got := in.Len(); got != 2 {
		t.Fatalf("num_objects_interned: got %d, want 2", got)
	}
	if got := in.Refcount("hello"); got != 2 {
		t.Fatalf("hello refcount: got %d, want 2", got)
	}
	if got := in.Refcount("world"); got != 1 {
		t.Fatalf("world refcount: got %d, want 1", got)
	}
}

func TestInternerStringRoundtrip(t *testing.T) {
	in := New()
	h := in.Intern("cpu.load")
	if h.String() != "cpu.load" {
		t.Fatalf("String: got %q, want %q", h.String(), "cpu.load")
	}
	if !h.Valid() {
		t.Fatalf("expected handle to be valid")
	}
	var zero Handle
	if zero.Valid() {
		t.Fatalf("expected zero handle to be invalid")
	}
}

func TestInternerRelease(t *testing.T) {
	in := New()
	h := in.Intern("ephemeral")
	in.Release(h)
	if got := in.Refcount("ephemeral"); got != 0 {
		t.Fatalf("refcount after release: got %d, want 0", got)
	}
	if got := in.Len(); got != 0 {
		t.Fatalf("Len after release: got %d, want 0", got)
	}
}
