package dice

import (
	"strings"
	"testing"
)

func TestRand_DieRange(t *testing.T) {
	src := New(42)
	seen := make(map[int]bool)
	for i := 0; i < 6000; i++ {
		d := src.Die()
		if d < 1 || d > 6 {
			t.Fatalf("Die returned %d, want a value in [1,6]", d)
		}
		seen[d] = true
	}
	if len(seen) != 6 {
		t.Errorf("Expected all six faces over 6000 rolls, saw %v", seen)
	}
}

func TestRand_Deterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 100; i++ {
		if a.Die() != b.Die() {
			t.Fatal("Two sources with the same seed should produce the same faces")
		}
	}
	if a.Code(5) != b.Code(5) {
		t.Fatal("Two sources with the same seed should produce the same codes")
	}
}

func TestRand_Code(t *testing.T) {
	src := New(3)
	code := src.Code(5)
	if len(code) != 5 {
		t.Fatalf("Expected a 5 character code, got %q", code)
	}
	for _, c := range code {
		if !strings.ContainsRune(CodeAlphabet, c) {
			t.Errorf("Code %q contains %q outside the alphabet", code, c)
		}
	}
}

func TestScripted(t *testing.T) {
	src := &Scripted{Faces: []int{3, 1}, Codes: []string{"AAAAA"}}

	if d := src.Die(); d != 3 {
		t.Errorf("Expected first scripted face 3, got %d", d)
	}
	if d := src.Die(); d != 1 {
		t.Errorf("Expected second scripted face 1, got %d", d)
	}
	if d := src.Die(); d < 1 || d > 6 {
		t.Errorf("Expected fallback face in [1,6], got %d", d)
	}
	if c := src.Code(5); c != "AAAAA" {
		t.Errorf("Expected scripted code AAAAA, got %s", c)
	}
	if c := src.Code(5); len(c) != 5 {
		t.Errorf("Expected fallback code of length 5, got %q", c)
	}
}
