package venue

import (
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/balance"
)

// Known numbered assets the venue's symbol table covers. POLKADEX is
// the chain's native asset; the rest carry fixed numbered ids. A live
// chain asset registry would resolve these dynamically; that client is
// an external collaborator this worker never talks to directly.
const (
	AssetDOT uint32 = 1
	AssetBTC uint32 = 2
	AssetUSD uint32 = 3
)

var symbolToAsset = map[string]balance.AssetId{
	"pdx": balance.Native(),
	"dot": balance.Asset(AssetDOT),
	"btc": balance.Asset(AssetBTC),
	"usd": balance.Asset(AssetUSD),
}

var assetToSymbol = map[balance.AssetId]string{
	balance.Native():       "pdx",
	balance.Asset(AssetDOT): "dot",
	balance.Asset(AssetBTC): "btc",
	balance.Asset(AssetUSD): "usd",
}

// AssetSymbol renders an AssetId as its venue wire symbol.
func AssetSymbol(a balance.AssetId) (string, error) {
	sym, ok := assetToSymbol[a]
	if !ok {
		return "", fmt.Errorf("venue: no wire symbol for asset %+v", a)
	}
	return sym, nil
}

// AssetFromSymbol parses a venue wire symbol into an AssetId.
func AssetFromSymbol(sym string) (balance.AssetId, error) {
	a, ok := symbolToAsset[sym]
	if !ok {
		return balance.AssetId{}, fmt.Errorf("venue: unknown asset symbol %q", sym)
	}
	return a, nil
}

// MarketSymbol renders a trading pair as its wire symbol, the plain
// concatenation of the base and quote asset symbols.
func MarketSymbol(base, quote balance.AssetId) (string, error) {
	b, err := AssetSymbol(base)
	if err != nil {
		return "", err
	}
	q, err := AssetSymbol(quote)
	if err != nil {
		return "", err
	}
	return b + q, nil
}
