package shortid

import (
	"strings"
	"testing"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	g := New()
	for i := 0; i < 100; i++ {
		id, err := g.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(id) != Length {
			t.Fatalf("want length %d, got %d (%q)", Length, len(id), id)
		}
		for _, c := range id {
			if !strings.ContainsRune(Alphabet, c) {
				t.Fatalf("character %q outside alphabet in %q", c, id)
			}
		}
	}
}

func TestGenerate_NoImmediateRepeats(t *testing.T) {
	g := New()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id, err := g.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[id] {
			// 62^8 ids; a repeat inside a thousand draws means broken randomness
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestNewWithAlphabet(t *testing.T) {
	g := NewWithAlphabet(4, "ab")
	id, err := g.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(id) != 4 {
		t.Fatalf("want length 4, got %q", id)
	}
	for _, c := range id {
		if c != 'a' && c != 'b' {
			t.Fatalf("character %q outside custom alphabet in %q", c, id)
		}
	}
}
