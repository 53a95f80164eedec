// Command workerd is the trusted core's process entrypoint: it
// constructs every store, wires the gateway and settlement path against
// them, dials the venue, serves the direct-RPC surface, and runs the
// persistence-mirror snapshot and extrinsic-outbox redrive loops until
// told to stop.
package main

import (
	"context"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sigil-dex/tee-core/pkg/accounts"
	"github.com/sigil-dex/tee-core/pkg/balance"
	"github.com/sigil-dex/tee-core/pkg/boot"
	"github.com/sigil-dex/tee-core/pkg/chainrelay"
	"github.com/sigil-dex/tee-core/pkg/config"
	"github.com/sigil-dex/tee-core/pkg/domain"
	"github.com/sigil-dex/tee-core/pkg/fixedpoint"
	"github.com/sigil-dex/tee-core/pkg/gateway"
	"github.com/sigil-dex/tee-core/pkg/market"
	"github.com/sigil-dex/tee-core/pkg/mirror"
	"github.com/sigil-dex/tee-core/pkg/orderbook"
	"github.com/sigil-dex/tee-core/pkg/outbox"
	"github.com/sigil-dex/tee-core/pkg/requestcache"
	"github.com/sigil-dex/tee-core/pkg/rpc"
	"github.com/sigil-dex/tee-core/pkg/settlement"
	"github.com/sigil-dex/tee-core/pkg/telemetry"
	"github.com/sigil-dex/tee-core/pkg/venue"
)

func main() {
	cfg := config.LoadFromEnv("")

	logger, err := telemetry.New(telemetry.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("workerd_starting",
		zap.String("venue_address", cfg.Venue.Address),
		zap.String("rpc_listen_address", cfg.RPC.ListenAddress),
		zap.String("mirror_snapshot_dir", cfg.Mirror.SnapshotDir))

	// ---- Stores ----
	accountsStore := accounts.New()
	balances := balance.New()
	orders := orderbook.New()
	createCache := requestcache.NewCreateOrderCache()
	cancelCache := requestcache.NewCancelOrderCache()
	marketCache := market.New()
	extrinsicOutbox := outbox.New()

	// ---- Registry boot ----
	//
	// A real deployment feeds VerifyAndLoad the linked-list account
	// proofs the chain-relay observed at the last finalized block; this
	// process has no such feed wired in, so it boots with an empty
	// attested node list, which commits nothing and cannot fail.
	if err := boot.VerifyAndLoad(boot.Header{}, nil, accountsStore); err != nil {
		logger.Fatal("registry_boot_failed", zap.Error(err))
	}

	// ---- Persistence mirrors: restore, then run the snapshot loop ----
	if err := os.MkdirAll(cfg.Mirror.SnapshotDir, 0o755); err != nil {
		logger.Fatal("mirror_snapshot_dir_create_failed", zap.Error(err))
	}
	balanceMirror := mirror.New("balance", logger)
	nonceMirror := mirror.New("nonce", logger)
	orderbookMirror := mirror.New("orderbook", logger)
	restoreMirrors(cfg.Mirror.SnapshotDir, balanceMirror, nonceMirror, orderbookMirror, balances, accountsStore, orders, logger)

	stop := make(chan struct{})

	go runSnapshotLoop(cfg.Mirror.SnapshotDir, cfg.Mirror.SnapshotInterval, balanceMirror, nonceMirror, orderbookMirror, balances, accountsStore, orders, stop, logger)

	// ---- Venue client ----
	var sender gateway.VenueSender
	venueClient, err := venue.Dial(cfg.Venue.Address, cfg.Venue.Address, "/ws", cfg.Venue.JWT, logger)
	if err != nil {
		logger.Warn("venue_dial_failed_starting_degraded",
			zap.String("addr", cfg.Venue.Address), zap.Error(err))
		sender = unavailableVenue{}
	} else {
		sender = venueClient
		defer venueClient.Close()
	}

	// ---- Gateway and settlement ----
	gw, err := gateway.New(accountsStore, balances, orders, createCache, cancelCache, extrinsicOutbox, sender, logger)
	if err != nil {
		logger.Fatal("gateway_wiring_failed", zap.Error(err))
	}
	settle := settlement.New(balances, orders, logger)

	// ---- Direct-RPC surface ----
	rpcServer, err := rpc.New(gw, accountsStore, balances, marketCache, logger)
	if err != nil {
		logger.Fatal("rpc_wiring_failed", zap.Error(err))
	}
	go func() {
		if err := rpcServer.Run(cfg.RPC.ListenAddress); err != nil {
			logger.Fatal("rpc_server_failed", zap.Error(err))
		}
	}()

	// ---- Extrinsic outbox re-drive ----
	submit := chainrelay.SubmitFunc(loggingSubmitter{log: logger})
	go extrinsicOutbox.Redrive(outbox.RealClock{}, cfg.Outbox.RedriveInterval, submit, stop)

	// ---- Venue message dispatch ----
	if venueClient != nil {
		msgs := venueClient.Messages(stop)
		go dispatchVenueMessages(msgs, gw, settle, marketCache, rpcServer, logger)

		// The subscribe request burns a market-cache request id it never
		// answers with markets, so it goes out first; get_markets then
		// holds the current id and its response passes SetMarkets' gate.
		if frame, err := venue.EncodeSubscribe(marketCache.NextRequestID()); err == nil {
			_ = venueClient.Send(frame)
		}
		if frame, err := venue.EncodeGetMarkets(marketCache.NextRequestID()); err == nil {
			_ = venueClient.Send(frame)
		}
	}

	// ---- Pending create-order cache sweep ----
	go runSweepLoop(createCache, stop, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("workerd_ready")
	<-ctx.Done()

	logger.Info("workerd_shutting_down")
	close(stop)
	snapshotAll(cfg.Mirror.SnapshotDir, balanceMirror, nonceMirror, orderbookMirror, balances, accountsStore, orders, logger)
}

// unavailableVenue is the VenueSender used while the worker has no live
// venue connection: every send fails loudly instead of panicking or
// silently dropping the request.
type unavailableVenue struct{}

func (unavailableVenue) Send([]byte) error { return venue.ErrWebSocket }

// loggingSubmitter stands in for the real layer-one chain client: it
// logs what would have been submitted and reports success.
type loggingSubmitter struct{ log *zap.Logger }

func (s loggingSubmitter) Submit(payload []byte) error {
	s.log.Info("chainrelay_submit_stub", zap.Int("payload_bytes", len(payload)))
	return nil
}

// restoreMirrors loads each mirror's on-disk snapshot and replays it
// into the corresponding trusted store. mirror.ErrCorruptSnapshot (no
// readable generation on either the primary or the previous file, which
// is the ordinary case on a first-ever boot) is not fatal: the store
// simply starts empty.
func restoreMirrors(dir string, balanceMirror, nonceMirror, orderbookMirror *mirror.Mirror, balances *balance.Ledger, accountsStore *accounts.Store, orders *orderbook.Store, log *zap.Logger) {
	if entries, err := balanceMirror.Restore(dir); err == nil {
		balanceMirror.Load(entries)
		if err := balances.Restore(entries); err != nil {
			log.Error("balance_restore_failed", zap.Error(err))
		}
	} else {
		log.Info("balance_mirror_starting_empty", zap.Error(err))
	}
	if entries, err := nonceMirror.Restore(dir); err == nil {
		nonceMirror.Load(entries)
		if err := accountsStore.RestoreNonces(entries); err != nil {
			log.Error("nonce_restore_failed", zap.Error(err))
		}
	} else {
		log.Info("nonce_mirror_starting_empty", zap.Error(err))
	}
	if entries, err := orderbookMirror.Restore(dir); err == nil {
		orderbookMirror.Load(entries)
		if err := orders.Restore(entries); err != nil {
			log.Error("orderbook_restore_failed", zap.Error(err))
		}
	} else {
		log.Info("orderbook_mirror_starting_empty", zap.Error(err))
	}
}

func runSnapshotLoop(dir string, interval time.Duration, balanceMirror, nonceMirror, orderbookMirror *mirror.Mirror, balances *balance.Ledger, accountsStore *accounts.Store, orders *orderbook.Store, stop <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snapshotAll(dir, balanceMirror, nonceMirror, orderbookMirror, balances, accountsStore, orders, log)
		}
	}
}

func snapshotAll(dir string, balanceMirror, nonceMirror, orderbookMirror *mirror.Mirror, balances *balance.Ledger, accountsStore *accounts.Store, orders *orderbook.Store, log *zap.Logger) {
	balanceMirror.Load(balances.Export())
	if err := balanceMirror.Snapshot(dir); err != nil {
		log.Error("balance_snapshot_failed", zap.Error(err))
	}
	nonceMirror.Load(accountsStore.ExportNonces())
	if err := nonceMirror.Snapshot(dir); err != nil {
		log.Error("nonce_snapshot_failed", zap.Error(err))
	}
	orderbookMirror.Load(orders.Export())
	if err := orderbookMirror.Snapshot(dir); err != nil {
		log.Error("orderbook_snapshot_failed", zap.Error(err))
	}
}

// runSweepLoop clears stale create-order cache entries whose venue
// response never arrived, never touching an entry younger than 60s since
// insertion.
func runSweepLoop(createCache *requestcache.CreateOrderCache, stop <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			swept := createCache.Sweep(60 * time.Second)
			if len(swept) > 0 {
				log.Info("create_order_cache_swept", zap.Int("count", len(swept)))
			}
		}
	}
}

// dispatchVenueMessages consumes decoded venue responses/events off msgs
// and routes each to the gateway callback, the settlement path, or the
// market cache. A message type this worker does not act on (an error
// frame, a subscription ack, a deposit/withdraw chain-record notice) is
// logged and dropped.
func dispatchVenueMessages(msgs <-chan any, gw *gateway.Gateway, settle *settlement.Settlement, markets *market.Cache, rpcServer *rpc.Server, log *zap.Logger) {
	for msg := range msgs {
		switch m := msg.(type) {
		case venue.ErrorMessage:
			log.Warn("venue_error_response", zap.Int64("request_id", m.RequestID), zap.String("text", m.Text))

		case venue.CreateOrderResponse:
			gw.ProcessCreateOrder(requestcache.RequestId(m.RequestID), m.OrderID)
			rpcServer.BroadcastOrderEvent(rpc.OrderEvent{Type: "order", OrderID: hex.EncodeToString(m.OrderID), Status: "resting"})

		case venue.CancelAck:
			if err := gw.OnCancelAck(m.OrderID); err != nil {
				log.Error("cancel_ack_failed", zap.ByteString("order_id", m.OrderID), zap.Error(err))
				continue
			}
			rpcServer.BroadcastOrderEvent(rpc.OrderEvent{Type: "order", OrderID: hex.EncodeToString(m.OrderID), Status: "cancelled"})

		case venue.SubscriptionResponse:
			log.Info("venue_subscribed", zap.String("name", m.Name), zap.Strings("events", m.Events))

		case venue.DepositResponse:
			log.Info("venue_deposit_ack", zap.Int64("record_id", m.RecordID))

		case venue.WithdrawResponse:
			log.Info("venue_withdraw_ack", zap.Int64("record_id", m.RecordID))

		case venue.GetMarketsResponse:
			list, errs := market.ParseMarketList(m.JSONs)
			for _, e := range errs {
				log.Warn("market_json_decode_failed", zap.Error(e))
			}
			if !markets.SetMarkets(requestcache.RequestId(m.RequestID), list) {
				log.Warn("stale_get_markets_response_dropped", zap.Int64("request_id", m.RequestID))
			}

		case *domain.OrderUpdate:
			rpcServer.BroadcastOrderEvent(rpc.OrderEvent{
				Type:      "order",
				OrderID:   hex.EncodeToString(m.OrderID),
				Status:    m.State,
				Remaining: fixedpoint.Format(m.VolumeOrder),
			})

		case *domain.TradeEvent:
			if cached, ok := markets.Get(m.Symbol); ok {
				m.Market = orderbook.MarketId{Base: cached.Base, Quote: cached.Quote}
			}
			if err := settle.Apply(*m); err != nil {
				log.Error("settlement_failed", zap.Error(err))
				continue
			}
			rpcServer.BroadcastTradeEvent(rpc.TradeEvent{
				Type:         "trade",
				MarketSymbol: m.Symbol,
				Price:        fixedpoint.Format(m.Price),
				Amount:       fixedpoint.Format(m.Amount),
				MakerOrderID: hex.EncodeToString(m.MakerOrderID),
				TakerOrderID: hex.EncodeToString(m.TakerOrderID),
			})

		default:
			log.Warn("unrecognized_venue_message", zap.String("type", "unknown"))
		}
	}
}
