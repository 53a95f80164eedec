// Package balance implements the balance ledger: a lock-guarded map
// from (asset, account) to a free/reserved balance pair, with the
// reserve/unreserve/deposit/withdraw/transfer operations the gateway and
// settlement path drive.
package balance

import (
	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
)

// AssetKind distinguishes the chain's native asset from a numbered asset.
type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetNumbered
)

// AssetId identifies a balance-bearing asset.
type AssetId struct {
	Kind AssetKind
	Id   uint32
}

// Native is the chain's native asset id.
func Native() AssetId { return AssetId{Kind: AssetNative} }

// Asset constructs a numbered asset id.
func Asset(id uint32) AssetId { return AssetId{Kind: AssetNumbered, Id: id} }

type key struct {
	asset   AssetId
	account accounts.AccountId
}

// Balances is a (free, reserved) balance pair.
type Balances struct {
	Free     fixedpoint.Amount
	Reserved fixedpoint.Amount
}
