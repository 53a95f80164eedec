package rpc

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/sigil-dex/tee-core/pkg/accounts"
)

// Operation names an envelope may claim. Each mutating endpoint accepts
// exactly the one matching it.
const (
	OpPlaceOrder  = "place_order"
	OpCancelOrder = "cancel_order"
	OpWithdraw    = "withdraw"
)

// ErrBadSignature is returned when an envelope's signature does not
// verify against its claimed signer.
var ErrBadSignature = errors.New("rpc: signature verification failed")

// ErrMalformedEnvelope is returned when an envelope's hex-encoded fields
// are not well-formed.
var ErrMalformedEnvelope = errors.New("rpc: malformed envelope")

// decodeAccount parses a "0x"-prefixed, 64-hex-char account id.
func decodeAccount(s string) (accounts.AccountId, error) {
	var a accounts.AccountId
	raw, err := decodeHex(s)
	if err != nil {
		return a, err
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("%w: account id must be %d bytes, got %d", ErrMalformedEnvelope, len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return raw, nil
}

// signingBytes is the exact byte sequence the signer's ed25519 key must
// sign: operation || nonce (big-endian u32) || main (32 bytes, zero-filled
// if absent) || payload bytes. The nonce and the claimed main account are
// folded into the signed message, not just the payload: otherwise a
// relayed envelope's nonce or proxy claim could be altered in flight
// without invalidating the signature.
func signingBytes(operation string, nonce uint32, main *accounts.AccountId, payload []byte) []byte {
	buf := make([]byte, 0, len(operation)+4+32+len(payload))
	buf = append(buf, []byte(operation)...)
	var nonceBuf [4]byte
	binary.BigEndian.PutUint32(nonceBuf[:], nonce)
	buf = append(buf, nonceBuf[:]...)
	if main != nil {
		buf = append(buf, main[:]...)
	} else {
		buf = append(buf, make([]byte, 32)...)
	}
	buf = append(buf, payload...)
	return buf
}

// Sign builds a signed Envelope for operation/nonce/main/payload using
// priv, the counterpart to Verify. Exported for cmd/sign-order and for
// tests that need to construct a valid envelope end-to-end.
func Sign(priv ed25519.PrivateKey, operation string, nonce uint32, signer accounts.AccountId, main *accounts.AccountId, payload []byte) Envelope {
	msg := signingBytes(operation, nonce, main, payload)
	sig := ed25519.Sign(priv, msg)

	e := Envelope{
		Signer:    "0x" + hex.EncodeToString(signer[:]),
		Nonce:     nonce,
		Operation: operation,
		Payload:   payload,
		Signature: "0x" + hex.EncodeToString(sig),
	}
	if main != nil {
		e.Main = "0x" + hex.EncodeToString(main[:])
	}
	return e
}

// Verify decodes the envelope's signer/main/signature hex fields and
// checks the signature against signingBytes. On success it returns the
// decoded signer and (possibly nil) main account id for the caller to
// hand to pkg/gateway.
func (e Envelope) Verify() (signer accounts.AccountId, main *accounts.AccountId, err error) {
	signer, err = decodeAccount(e.Signer)
	if err != nil {
		return accounts.AccountId{}, nil, err
	}

	if e.Main != "" {
		m, err := decodeAccount(e.Main)
		if err != nil {
			return accounts.AccountId{}, nil, err
		}
		main = &m
	}

	sig, err := decodeHex(e.Signature)
	if err != nil {
		return accounts.AccountId{}, nil, err
	}
	if len(sig) != ed25519.SignatureSize {
		return accounts.AccountId{}, nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrMalformedEnvelope, ed25519.SignatureSize, len(sig))
	}

	msg := signingBytes(e.Operation, e.Nonce, main, e.Payload)
	if !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig) {
		return accounts.AccountId{}, nil, ErrBadSignature
	}
	return signer, main, nil
}
