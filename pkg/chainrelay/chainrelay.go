// Package chainrelay is the narrow boundary between the trusted core and
// the layer-one chain client: it knows how to encode the handful of
// extrinsic calls the core issues (currently just asset release on
// withdraw) and submits the encoded payload through the extrinsic
// outbox. The actual chain client is a signing, broadcasting RPC
// connection living outside this module; Submitter is the seam a real
// client implements.
package chainrelay

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/outbox"
)

// Submitter broadcasts a raw encoded extrinsic to the chain and reports
// whether it was accepted into a block. pkg/outbox.Redrive calls this once
// per re-drive attempt.
type Submitter interface {
	Submit(payload []byte) error
}

// releaseCall is the RLP-encoded shape of an on-chain `release(asset,
// amount, main)` extrinsic. The asset kind is encoded as a discriminant
// byte ahead of the numbered id so a native asset doesn't need a
// synthetic id of its own.
type releaseCall struct {
	AssetKind uint8
	AssetId   uint32
	Amount    []byte
	Main      []byte
}

// EncodeRelease RLP-encodes a release call for asset/amount/main, for the
// outbox to carry as an opaque Submission payload.
func EncodeRelease(asset balance.AssetId, amount fixedpoint.Amount, main accounts.AccountId) ([]byte, error) {
	call := releaseCall{
		AssetKind: uint8(asset.Kind),
		AssetId:   asset.Id,
		Amount:    []byte(fixedpoint.Format(amount)),
		Main:      main.Bytes(),
	}
	encoded, err := rlp.EncodeToBytes(&call)
	if err != nil {
		return nil, fmt.Errorf("chainrelay: encode release call: %w", err)
	}
	return encoded, nil
}

// SubmitFunc adapts a Submitter collaborator into the outbox.Submitter
// function type, so pkg/outbox never needs to know about chain encoding.
func SubmitFunc(s Submitter) outbox.Submitter {
	return func(sub outbox.Submission) error {
		return s.Submit(sub.Payload)
	}
}
