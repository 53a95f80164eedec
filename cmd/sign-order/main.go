package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/rpc"
)

// sign-order is a developer utility that generates an ed25519 keypair (or
// loads one from -seed) and signs a place_order/cancel_order/withdraw
// envelope of the shape pkg/rpc.Envelope.Verify expects, printing it as
// JSON ready to POST to the direct-RPC surface.
func main() {
	var (
		op        = flag.String("op", "place_order", "operation: place_order | cancel_order | withdraw")
		seedHex   = flag.String("seed", "", "hex-encoded 32-byte ed25519 seed; random if empty")
		nonce     = flag.Uint("nonce", 0, "claimed nonce")
		nickname  = flag.String("nickname", "", "nickname (place_order)")
		symbol    = flag.String("symbol", "btcusd", "market symbol (place_order, cancel_order)")
		kind      = flag.String("kind", "limit", "order kind (place_order)")
		side      = flag.String("side", "bid", "order side (place_order)")
		quantity  = flag.String("quantity", "", "quantity (place_order)")
		price     = flag.String("price", "", "price, required unless kind=market (place_order)")
		orderID   = flag.String("order-id", "", "hex order id (cancel_order)")
		assetKind = flag.String("asset-kind", "native", "asset kind: native | asset (withdraw)")
		assetID   = flag.Uint("asset-id", 0, "numbered asset id (withdraw)")
		amount    = flag.String("amount", "", "withdraw amount (withdraw)")
	)
	flag.Parse()

	pub, priv, err := loadOrGenerateKey(*seedHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign-order: %v\n", err)
		os.Exit(1)
	}

	var signer accounts.AccountId
	copy(signer[:], pub)

	var payload []byte
	switch *op {
	case rpc.OpPlaceOrder:
		payload, err = json.Marshal(rpc.PlaceOrderPayload{
			Nickname:     *nickname,
			MarketSymbol: *symbol,
			Kind:         *kind,
			Side:         *side,
			Quantity:     *quantity,
			Price:        *price,
		})
	case rpc.OpCancelOrder:
		payload, err = json.Marshal(rpc.CancelOrderPayload{
			MarketSymbol: *symbol,
			OrderID:      *orderID,
		})
	case rpc.OpWithdraw:
		payload, err = json.Marshal(rpc.WithdrawPayload{
			AssetKind: *assetKind,
			AssetID:   uint32(*assetID),
			Amount:    *amount,
		})
	default:
		fmt.Fprintf(os.Stderr, "sign-order: unknown -op %q\n", *op)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign-order: marshal payload: %v\n", err)
		os.Exit(1)
	}

	env := rpc.Sign(priv, *op, uint32(*nonce), signer, nil, payload)

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign-order: marshal envelope: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "account: 0x%s\n", hex.EncodeToString(pub))
	fmt.Println(string(out))
}

func loadOrGenerateKey(seedHex string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if seedHex == "" {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("generate key: %w", err)
		}
		return pub, priv, nil
	}

	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, nil, fmt.Errorf("decode -seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, nil, fmt.Errorf("-seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv, nil
}
