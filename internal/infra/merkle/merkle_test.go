package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func chain(parts ...string) string {
	return hashOf(strings.Join(parts, ""))
}

func TestBuildSingleLeafIsRoot(t *testing.T) {
	leaf := hashOf("only")
	tree, err := Build([]string{leaf})
	if err != nil {
		t.Fatalf("build single leaf: %v", err)
	}
	if tree.RootHash != leaf {
		t.Fatalf("single leaf root = %s, want %s", tree.RootHash, leaf)
	}
	if tree.LeafCount != 1 {
		t.Fatalf("leaf count = %d, want 1", tree.LeafCount)
	}
}

func TestBuildEmptyIsError(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrEmptyTree) {
		t.Fatalf("empty build error = %v, want ErrEmptyTree", err)
	}
}

func TestBuildOddNodePromotes(t *testing.T) {
	h1, h2, h3 := hashOf("a"), hashOf("b"), hashOf("c")

	tree, err := Build([]string{h1, h2, h3})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Three leaves: h1+h2 pair, h3 promotes unchanged, then the pair
	// hash combines with h3.
	want := chain(chain(h1, h2), h3)
	if tree.RootHash != want {
		t.Fatalf("root = %s, want %s", tree.RootHash, want)
	}
}

func TestBuildFourLeaves(t *testing.T) {
	h := []string{hashOf("a"), hashOf("b"), hashOf("c"), hashOf("d")}
	tree, err := Build(h)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := chain(chain(h[0], h[1]), chain(h[2], h[3]))
	if tree.RootHash != want {
		t.Fatalf("root = %s, want %s", tree.RootHash, want)
	}
}

func TestBuildDeterministic(t *testing.T) {
	leaves := []string{hashOf("x"), hashOf("y"), hashOf("z"), hashOf("w"), hashOf("v")}
	first, err := Build(leaves)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := Build(leaves)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if first.RootHash != second.RootHash {
		t.Fatalf("roots differ: %s vs %s", first.RootHash, second.RootHash)
	}
}

func TestBuildSensitivity(t *testing.T) {
	leaves := []string{hashOf("x"), hashOf("y"), hashOf("z")}
	base, err := Build(leaves)
	if err != nil {
		t.Fatalf("base build: %v", err)
	}

	for i := range leaves {
		mutated := make([]string, len(leaves))
		copy(mutated, leaves)
		mutated[i] = hashOf("mutated")
		tree, err := Build(mutated)
		if err != nil {
			t.Fatalf("mutated build %d: %v", i, err)
		}
		if tree.RootHash == base.RootHash {
			t.Fatalf("mutating leaf %d did not change the root", i)
		}
	}
}

func TestBuildNormalizesCase(t *testing.T) {
	leaf := hashOf("case")
	upper, err := Build([]string{strings.ToUpper(leaf)})
	if err != nil {
		t.Fatalf("upper build: %v", err)
	}
	lower, err := Build([]string{leaf})
	if err != nil {
		t.Fatalf("lower build: %v", err)
	}
	if upper.RootHash != lower.RootHash {
		t.Fatalf("case-normalized roots differ: %s vs %s", upper.RootHash, lower.RootHash)
	}
	if upper.LeafHashes[0] != leaf {
		t.Fatalf("leaf not stored lowercase: %s", upper.LeafHashes[0])
	}
}

func TestBuildRejectsBadLeaf(t *testing.T) {
	cases := []string{"", "abc", strings.Repeat("g", 64), hashOf("ok") + "00"}
	for _, leaf := range cases {
		if _, err := Build([]string{leaf}); !errors.Is(err, ErrInvalidHashLen) {
			t.Fatalf("leaf %q: error = %v, want ErrInvalidHashLen", leaf, err)
		}
	}
}
