package ss58

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var id [32]byte
	for i := range id {
		id[i] = byte(i)
	}

	encoded, err := Encode(id, SubstrateAccountPrefix)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, prefix, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != id {
		t.Fatalf("Decode = %x, want %x", decoded, id)
	}
	if prefix != SubstrateAccountPrefix {
		t.Fatalf("prefix = %d, want %d", prefix, SubstrateAccountPrefix)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	var id [32]byte
	encoded, _ := Encode(id, SubstrateAccountPrefix)

	// Flip the last character, which lives in the checksum/base58 tail.
	tampered := []byte(encoded)
	if tampered[len(tampered)-1] == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}

	if _, _, err := Decode(string(tampered)); err == nil {
		t.Fatalf("Decode accepted a tampered checksum")
	}
}

func TestDecodeRejectsBadBase58(t *testing.T) {
	if _, _, err := Decode("not-valid-base58-!!!"); err != ErrBadBase58 {
		t.Fatalf("Decode = %v, want ErrBadBase58", err)
	}
}
