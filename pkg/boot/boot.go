// Package boot implements registry boot attestation: verifying a linked
// list of on-chain account proofs against a chain header's state root
// before the trusted core trusts any main/proxy account relationship.
// The list is walked from a deterministic pallet account; the registry
// and nonce store are populated only once every proof in the chain has
// checked out.
package boot

import (
	"crypto/ed25519"
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/accounts"
)

// Header is the subset of a layer-one block header the boot path needs.
// Headers themselves are produced by the external chain-relay (out of
// scope here); this is the shape the trusted core consumes.
type Header struct {
	StateRoot [32]byte
}

// LinkedAccount is one node of the on-chain linked list of registered
// accounts: the current account, its predecessor in the list (for
// link-integrity checking), an optional successor, its proxy set, and
// the storage proof attesting that this node is really stored at
// StateRoot.
type LinkedAccount struct {
	Prev    accounts.AccountId
	Current accounts.AccountId
	Next    *accounts.AccountId
	Proxies []accounts.AccountId
	Proof   Proof
}

// palletAccountID is the deterministic root of the linked list: an
// account id derived from a fixed seed rather than any real key pair, so
// the first node's Prev can be checked against it without a prior node
// to anchor to.
var palletAccountID = func() accounts.AccountId {
	var id accounts.AccountId
	copy(id[:], "polka/ga pallet account seed....")
	return id
}()

// VerifyAndLoad walks nodes as a linked list rooted at palletAccountID,
// verifying each node's storage proof against header.StateRoot in order.
// On full success it registers every account (and a zero-nonce entry) in
// registry. Any broken link or failed proof aborts with no partial
// mutation of registry.
func VerifyAndLoad(header Header, nodes []LinkedAccount, registry *accounts.Store) error {
	verified := make([]LinkedAccount, 0, len(nodes))

	last := palletAccountID
	for i, node := range nodes {
		if node.Prev != last {
			return fmt.Errorf("boot: linked list broken at index %d", i)
		}

		key := storageMapKey("OCEX", "MainAccounts", node.Current[:])
		encoded := encodeLinkedAccount(node)
		ok, err := node.Proof.Check(header.StateRoot, key, encoded)
		if err != nil {
			return fmt.Errorf("boot: storage proof check at index %d: %w", i, err)
		}
		if !ok {
			return fmt.Errorf("boot: storage proof mismatch at index %d", i)
		}

		verified = append(verified, node)
		if node.Next == nil {
			break
		}
		last = node.Current
	}

	for _, node := range verified {
		if err := registry.AddMain(node.Current); err != nil {
			return fmt.Errorf("boot: commit main account %x: %w", node.Current, err)
		}
		for _, p := range node.Proxies {
			if err := registry.AddProxy(node.Current, p); err != nil {
				return fmt.Errorf("boot: commit proxy for %x: %w", node.Current, err)
			}
		}
		registry.InitializeNonce(node.Current)
	}
	return nil
}

// encodeLinkedAccount produces the byte value the storage proof must
// attest to: the current account key concatenated with its encoded proxy
// list.
func encodeLinkedAccount(node LinkedAccount) []byte {
	out := make([]byte, 0, ed25519.PublicKeySize+len(node.Proxies)*ed25519.PublicKeySize)
	out = append(out, node.Current[:]...)
	for _, p := range node.Proxies {
		out = append(out, p[:]...)
	}
	return out
}
