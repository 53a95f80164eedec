// Package accounts implements the trusted core's main/proxy accounts
// registry and per-account nonce counter. The two are grouped under a
// single lock owner so that registration and nonce initialization commit
// atomically.
package accounts

import "crypto/ed25519"

// AccountId is a 32-byte ed25519 public key. It is comparable by value
// and usable directly as a map key.
type AccountId [ed25519.PublicKeySize]byte

// Bytes returns the raw public key bytes.
func (a AccountId) Bytes() []byte { return a[:] }

// AccountIdFromPublicKey narrows an ed25519.PublicKey into an AccountId.
func AccountIdFromPublicKey(pk ed25519.PublicKey) (AccountId, bool) {
	var a AccountId
	if len(pk) != len(a) {
		return AccountId{}, false
	}
	copy(a[:], pk)
	return a, true
}
