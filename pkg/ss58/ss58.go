// Package ss58 implements the SS58Check account-text codec the venue's
// object mapper uses to decode account fields that arrive as SS58 text:
// a base58 envelope of [prefix, raw account bytes, 2-byte Blake2b-512
// checksum], per Substrate's sp_core::crypto scheme. Only the
// single-byte prefix range (identifiers below 64) is implemented.
package ss58

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// SubstrateAccountPrefix is the ss58 address-format identifier for a
// generic Substrate account.
const SubstrateAccountPrefix = 42

const checksumLen = 2

var ss58Prefix = []byte("SS58PRE")

// ErrBadBase58 is returned when the input is not valid base58.
var ErrBadBase58 = errors.New("ss58: invalid base58 input")

// ErrBadLength is returned when the decoded payload's length does not
// match prefix + 32-byte account + checksum.
var ErrBadLength = errors.New("ss58: invalid payload length")

// ErrBadChecksum is returned when the trailing two checksum bytes do not
// match the Blake2b-512 hash of the preceding bytes.
var ErrBadChecksum = errors.New("ss58: checksum mismatch")

// Encode renders a 32-byte account id as an SS58Check string using the
// given address-format prefix (identifiers 0-63 only, single ident byte;
// this spec never needs the two-byte extended-prefix range).
func Encode(accountID [32]byte, prefix uint8) (string, error) {
	if prefix > 63 {
		return "", fmt.Errorf("ss58: prefix %d outside single-byte range", prefix)
	}

	body := make([]byte, 0, 1+32+checksumLen)
	body = append(body, prefix)
	body = append(body, accountID[:]...)

	sum := ss58Hash(body)
	body = append(body, sum[:checksumLen]...)

	return base58.Encode(body), nil
}

// Decode recovers the 32-byte account id and address-format prefix from
// an SS58Check string.
func Decode(s string) (accountID [32]byte, prefix uint8, err error) {
	data, err := base58.Decode(s)
	if err != nil {
		return accountID, 0, ErrBadBase58
	}
	if len(data) != 1+32+checksumLen {
		return accountID, 0, ErrBadLength
	}

	body := data[:1+32]
	sum := ss58Hash(body)
	if string(sum[:checksumLen]) != string(data[1+32:]) {
		return accountID, 0, ErrBadChecksum
	}

	copy(accountID[:], data[1:1+32])
	return accountID, data[0], nil
}

// ss58Hash is Blake2b-512 over the "SS58PRE" domain separator followed
// by data.
func ss58Hash(data []byte) [64]byte {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err) // only fails for a bad key/size, neither used here
	}
	h.Write(ss58Prefix)
	h.Write(data)
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}
