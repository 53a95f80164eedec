package market

import (
	"encoding/json"
	"fmt"

	"github.com/sigil-dex/tee-core/pkg/venue"
)

// marketJSON is the per-market JSON blob shape returned inside a
// get_markets response, which the venue object mapper leaves undecoded.
// Fields are wire symbols, not AssetIds, since that resolution is this
// package's job.
type marketJSON struct {
	Symbol    string `json:"id"`
	Base      string `json:"base"`
	Quote     string `json:"quote"`
	Precision uint8  `json:"precision"`
}

// ParseMarketJSON decodes one get_markets JSON blob into a Market,
// resolving its base/quote wire symbols through pkg/venue's asset-symbol
// table.
func ParseMarketJSON(raw string) (Market, error) {
	var mj marketJSON
	if err := json.Unmarshal([]byte(raw), &mj); err != nil {
		return Market{}, fmt.Errorf("market: decode market json: %w", err)
	}
	base, err := venue.AssetFromSymbol(mj.Base)
	if err != nil {
		return Market{}, err
	}
	quote, err := venue.AssetFromSymbol(mj.Quote)
	if err != nil {
		return Market{}, err
	}
	return Market{Symbol: mj.Symbol, Base: base, Quote: quote, Precision: mj.Precision}, nil
}

// ParseMarketList decodes every blob in jsons, skipping (and logging via
// the caller) any entry that fails to parse rather than discarding the
// whole batch over one bad market.
func ParseMarketList(jsons []string) ([]Market, []error) {
	out := make([]Market, 0, len(jsons))
	var errs []error
	for _, raw := range jsons {
		m, err := ParseMarketJSON(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	return out, errs
}
