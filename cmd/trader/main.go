package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"

	"main/internal/adapter"
	"main/internal/bus"
	"main/internal/feed"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/sched"
	"main/internal/store"
	"main/internal/strategy"
	"main/pkg/conn"
)

const eventQueueCapacity = 1024

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	pyroscopeServer := flag.String("pyroscope-server", "", "Pyroscope server address (empty=disable)")
	feedAddr := flag.String("feed-addr", "", "Snapshot feed listen address override")
	balanceSnapshot := flag.String("balance-snapshot", "", "Write final balance snapshot to this path")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *pyroscopeServer != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trader",
			ServerAddress:   *pyroscopeServer,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assets := ledger.New()
	for asset, qty := range loaded.Balances {
		assets.Set(asset, qty)
	}

	queue := bus.NewQueue(eventQueueCapacity)
	paper := adapter.NewPaper(loaded.Pair, queue, loaded.Paper.StartMid, loaded.Paper.HalfSpread, adapter.WalkConfig{
		Step:      loaded.Paper.WalkStep,
		FlipEvery: loaded.Paper.WalkFlipEvery,
	})

	var strat strategy.Strategy
	switch {
	case loaded.Quote != nil:
		strat = strategy.NewQuoteEngine(1, *loaded.Quote)
	case loaded.Twap != nil:
		strat = strategy.NewTwap(2, *loaded.Twap)
	}

	addr := loaded.FeedAddr
	if *feedAddr != "" {
		addr = *feedAddr
	}
	var hub *feed.Hub
	if addr != "" {
		hub = feed.NewHub()
		go hub.Run(ctx)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		server := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("feed server stopped: %v", err)
			}
		}()
		defer server.Close()
		log.Printf("snapshot feed listening on %s", addr)
	}

	var audit *store.Audit
	if loaded.Audit != nil {
		client, err := conn.New(*loaded.Audit)
		if err != nil {
			log.Fatalf("audit store connect failed: %v", err)
		}
		defer client.Close()
		if audit, err = store.NewAudit(client); err != nil {
			log.Fatalf("audit store init failed: %v", err)
		}
	}

	metrics := obs.NewMetrics()
	scheduler := sched.New(sched.Config{
		Pair:         loaded.Pair,
		TickInterval: loaded.TickInterval,
		MakerFeeBps:  loaded.MakerFeeBps,
		TakerFeeBps:  loaded.TakerFeeBps,
	}, sched.Deps{
		Exchange:  paper,
		Queue:     queue,
		Ledger:    assets,
		Guard:     risk.NewEngine(loaded.Risk),
		Strategy:  strat,
		Publisher: feed.NewPublisher(hub),
		Metrics:   metrics,
		Audit:     audit,
	})

	log.Printf("trader started: pair=%s strategy=%s tick=%s", loaded.Pair.Name, strat.Name(), loaded.TickInterval)

	errCh := make(chan error, 1)
	go func() { errCh <- scheduler.Run(ctx) }()

	select {
	case <-sys.Shutdown():
		log.Printf("shutdown signal received")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Fatalf("trader halted: %v", err)
		}
	}

	if *balanceSnapshot != "" {
		if err := ledger.WriteSnapshot(*balanceSnapshot, assets.Snapshot()); err != nil {
			log.Printf("write balance snapshot failed: %v", err)
		}
	}

	m := metrics.Snapshot()
	log.Printf("done: ticks=%d submissions=%d fills=%d pauses=%d expirations=%d",
		m.Ticks, m.Submissions, m.Fills, m.Pauses, m.Expirations)
}
