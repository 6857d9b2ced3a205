// Package allowlist builds and verifies keccak256 Merkle allowlists.
//
// Leaves are keccak256 hashes of the raw 20-byte address. Sibling pairs are
// hashed in sorted order, so proofs carry no position information. The
// builder and the verifier must agree on both choices or no proof validates.
package allowlist

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Builder errors.
var (
	ErrEmptySet  = errors.New("allowlist has no addresses")
	ErrNotInList = errors.New("address not in allowlist")
	ErrDuplicate = errors.New("duplicate address in allowlist")
)

// Leaf computes the allowlist leaf for an address.
func Leaf(addr common.Address) common.Hash {
	return crypto.Keccak256Hash(addr.Bytes())
}

// Verify reports whether leaf is a member of the tree with the given root.
// Proof elements are combined bottom-up, hashing each pair in sorted order.
func Verify(root, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// hashPair hashes two nodes in canonical sorted order.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// AddressVerifier adapts Verify to the address-level check the mint
// controller performs.
type AddressVerifier struct{}

// Verify reports whether addr belongs to the allowlist with the given root.
func (AddressVerifier) Verify(root common.Hash, addr common.Address, proof []common.Hash) bool {
	return Verify(root, Leaf(addr), proof)
}

// Tree is a binary Merkle tree over an address set.
type Tree struct {
	addresses []common.Address
	layers    [][]common.Hash
	leafIndex map[common.Hash]int
}

// NewTree builds a tree over the addresses in the given order.
func NewTree(addrs []common.Address) (*Tree, error) {
	if len(addrs) == 0 {
		return nil, ErrEmptySet
	}

	leaves := make([]common.Hash, len(addrs))
	leafIndex := make(map[common.Hash]int, len(addrs))
	for i, addr := range addrs {
		leaf := Leaf(addr)
		if _, ok := leafIndex[leaf]; ok {
			return nil, ErrDuplicate
		}
		leaves[i] = leaf
		leafIndex[leaf] = i
	}

	layers := [][]common.Hash{leaves}
	for current := leaves; len(current) > 1; {
		next := make([]common.Hash, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 == len(current) {
				// Odd node is promoted unchanged.
				next = append(next, current[i])
				continue
			}
			next = append(next, hashPair(current[i], current[i+1]))
		}
		layers = append(layers, next)
		current = next
	}

	tree := &Tree{
		addresses: make([]common.Address, len(addrs)),
		layers:    layers,
		leafIndex: leafIndex,
	}
	copy(tree.addresses, addrs)
	return tree, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash {
	top := t.layers[len(t.layers)-1]
	return top[0]
}

// Contains reports whether the address is in the tree.
func (t *Tree) Contains(addr common.Address) bool {
	_, ok := t.leafIndex[Leaf(addr)]
	return ok
}

// Proof returns the Merkle proof for an address.
func (t *Tree) Proof(addr common.Address) ([]common.Hash, error) {
	idx, ok := t.leafIndex[Leaf(addr)]
	if !ok {
		return nil, ErrNotInList
	}

	proof := make([]common.Hash, 0, len(t.layers)-1)
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		idx /= 2
	}
	return proof, nil
}

// Entry pairs an address with its leaf and proof for export.
type Entry struct {
	Address common.Address `json:"address"`
	Leaf    common.Hash    `json:"leaf"`
	Proof   []common.Hash  `json:"proof"`
}

// Export holds the serializable allowlist: the root plus one entry per
// address.
type Export struct {
	Root      common.Hash `json:"root"`
	WhiteList []Entry     `json:"whiteList"`
}

// Export returns the root and per-address proofs.
func (t *Tree) Export() (*Export, error) {
	out := &Export{
		Root:      t.Root(),
		WhiteList: make([]Entry, 0, len(t.addresses)),
	}
	for _, addr := range t.addresses {
		proof, err := t.Proof(addr)
		if err != nil {
			return nil, err
		}
		out.WhiteList = append(out.WhiteList, Entry{
			Address: addr,
			Leaf:    Leaf(addr),
			Proof:   proof,
		})
	}
	return out, nil
}
