// Package merkle builds the binary hash tree over evidence-component
// digests. Hashes are carried as lowercase hex strings and node hashes are
// computed over the concatenated hex of the children, so the tree is
// reproducible across platforms from the serialized digests alone.
package merkle

import (
	"errors"
	"fmt"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/crypto"
)

var (
	ErrEmptyTree      = errors.New("empty merkle tree")
	ErrInvalidHashLen = errors.New("invalid hash length")
)

// Tree is the result of one build: the root plus the exact leaf sequence
// it was computed from.
type Tree struct {
	RootHash   string
	LeafHashes []string
	LeafCount  int
}

// Build constructs the tree over the leaves in the given order. Adjacent
// leaves pair left-to-right into SHA256(left++right); an odd node at any
// level promotes unchanged to the next level (no duplicate-last). A single
// leaf is its own root. The caller decides canonical leaf order.
func Build(leafHashes []string) (Tree, error) {
	level, err := cloneAndValidateLeaves(leafHashes)
	if err != nil {
		return Tree{}, err
	}

	leaves := make([]string, len(level))
	copy(leaves, level)

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, crypto.ChainHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}

	return Tree{
		RootHash:   level[0],
		LeafHashes: leaves,
		LeafCount:  len(leaves),
	}, nil
}

// Root is a convenience wrapper returning only the root hash.
func Root(leafHashes []string) (string, error) {
	tree, err := Build(leafHashes)
	if err != nil {
		return "", err
	}
	return tree.RootHash, nil
}

func cloneAndValidateLeaves(leaves []string) ([]string, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	out := make([]string, len(leaves))
	for i, leaf := range leaves {
		if !domain.ValidHashHex(leaf) {
			return nil, fmt.Errorf("leaf %d: %w", i, ErrInvalidHashLen)
		}
		out[i] = domain.NormalizeHash(leaf)
	}
	return out, nil
}
