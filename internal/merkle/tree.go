// Package merkle builds sorted-pair Keccak-256 Merkle trees compatible with
// OpenZeppelin's MerkleProof verifier.
//
// Leaves are sorted before the tree is built and each internal node hashes
// its two children in ascending byte order, so a proof is just the list of
// siblings with no left/right flags. A node without a sibling is carried up
// to the next layer unchanged.
package merkle

import (
	"bytes"
	"errors"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

var (
	ErrEmptyTree    = errors.New("merkle: no leaves")
	ErrLeafNotFound = errors.New("merkle: leaf not in tree")
)

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// HashPair combines two nodes in ascending order.
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Keccak256(a[:], b[:])
}

func compareHash(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) }

// Tree is an immutable Merkle tree. layers[0] holds the sorted leaves and the
// last layer holds the root.
type Tree struct {
	layers [][]common.Hash
}

// New builds a tree over leaves. The input slice is not modified. Duplicate
// leaves are kept as separate nodes.
func New(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	layer := slices.Clone(leaves)
	slices.SortFunc(layer, compareHash)

	layers := [][]common.Hash{layer}
	for len(layer) > 1 {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
				continue
			}
			next = append(next, HashPair(layer[i], layer[i+1]))
		}
		layers = append(layers, next)
		layer = next
	}
	return &Tree{layers: layers}, nil
}

// Root returns the tree root. For a single leaf the root is the leaf itself.
func (t *Tree) Root() common.Hash {
	return t.layers[len(t.layers)-1][0]
}

// Leaves returns the sorted leaf layer.
func (t *Tree) Leaves() []common.Hash {
	return slices.Clone(t.layers[0])
}

// Depth is the number of hashing layers above the leaves.
func (t *Tree) Depth() int { return len(t.layers) - 1 }

// Proof returns the sibling path for leaf. When the leaf occurs more than
// once the proof for its first occurrence is returned; it verifies for every
// copy.
func (t *Tree) Proof(leaf common.Hash) ([]common.Hash, error) {
	idx, found := slices.BinarySearchFunc(t.layers[0], leaf, compareHash)
	if !found {
		return nil, ErrLeafNotFound
	}
	proof := make([]common.Hash, 0, t.Depth())
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		idx /= 2
	}
	return proof, nil
}

// Verify folds proof onto leaf and reports whether the result equals root.
func Verify(proof []common.Hash, leaf, root common.Hash) bool {
	return Fold(proof, leaf) == root
}

// Fold recomputes the root implied by leaf and proof.
func Fold(proof []common.Hash, leaf common.Hash) common.Hash {
	h := leaf
	for _, p := range proof {
		h = HashPair(h, p)
	}
	return h
}
