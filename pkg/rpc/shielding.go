package rpc

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// shieldingKey is the per-process RSA keypair callers encrypt sensitive
// request fields against before submission. This revision never decrypts
// anything shielded with it (no payload field in the six operations is
// defined as ciphertext), but the endpoint and keypair are kept so a
// future encrypted-payload field has somewhere to point callers.
// Generated fresh at process start rather than persisted; the
// persistence mirror covers balances, nonces, and orders, not key
// material.
type shieldingKey struct {
	priv *rsa.PrivateKey
	pem  string
}

func newShieldingKey() (*shieldingKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("rpc: generate shielding key: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal shielding key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return &shieldingKey{priv: priv, pem: string(pem.EncodeToMemory(block))}, nil
}
