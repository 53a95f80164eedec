package boot

import (
	"bytes"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Proof is a chain-relay-supplied storage proof: an ordered list of trie
// node blobs from the leaf holding (key, value) up to the root. The
// chain-relay's full trie format lives with the chain-relay itself;
// Proof models only the generic shape the boot path needs to verify.
// Each node's hash must be embedded in the next node up, and the final
// node's hash must equal the header's state root.
type Proof [][]byte

var (
	// ErrEmptyProof is returned when a proof has no nodes at all.
	ErrEmptyProof = errors.New("boot: empty storage proof")
	// ErrLeafMissingEntry is returned when the leaf node does not contain
	// the expected (key, value) pair.
	ErrLeafMissingEntry = errors.New("boot: leaf node does not contain expected key/value")
	// ErrBrokenChain is returned when a node's hash is not embedded in its
	// parent, breaking the chain up to the root.
	ErrBrokenChain = errors.New("boot: proof chain broken between nodes")
)

// Check verifies that value is stored under key, attested by p, rooting at
// stateRoot. It returns (false, nil) only for a cleanly-detected mismatch
// that is nonetheless a valid proof shape; malformed proofs return an
// error.
func (p Proof) Check(stateRoot [32]byte, key, value []byte) (bool, error) {
	if len(p) == 0 {
		return false, ErrEmptyProof
	}

	leaf := p[0]
	if !containsEntry(leaf, key, value) {
		return false, ErrLeafMissingEntry
	}

	hash := hashNode(leaf)
	for _, node := range p[1:] {
		if !bytes.Contains(node, hash) {
			return false, ErrBrokenChain
		}
		hash = hashNode(node)
	}

	return bytes.Equal(hash, stateRoot[:]), nil
}

// containsEntry reports whether leaf embeds key immediately followed by
// value, the shape a trie leaf node takes for a simple map entry.
func containsEntry(leaf, key, value []byte) bool {
	idx := bytes.Index(leaf, key)
	if idx < 0 {
		return false
	}
	rest := leaf[idx+len(key):]
	return bytes.HasPrefix(rest, value)
}

func hashNode(node []byte) []byte {
	sum := blake2b.Sum256(node)
	return sum[:]
}
