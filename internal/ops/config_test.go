package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"main/internal/schema"
)

func baseFileConfig() FileConfig {
	return FileConfig{
		Registry: RegistryConfig{
			Venues: []VenueConfig{{Name: "paper"}},
			Pairs: []PairConfig{{
				Name:  "BTCUSDT",
				Venue: "paper",
				Base:  "BTC",
				Quote: "USDT",
				Scale: ScaleConfig{PriceScale: 2, QuantityScale: 4},
			}},
		},
		Pair: "BTCUSDT",
		Risk: RiskFileConfig{
			MaxOrderQty:    "5",
			MaxExposure:    "1000",
			PriceDeviation: "0.02",
			MinQuoteBuffer: "50",
		},
		Fees: FeesConfig{Maker: "0.001", Taker: "0.002"},
		Quote: QuoteFileConfig{
			Enabled:         true,
			BidSpread:       "0.01",
			AskSpread:       "0.01",
			OrderSize:       "1",
			RefreshInterval: "15s",
			MaxOrderAge:     "45s",
		},
		Scheduler: SchedulerConfig{TickInterval: "1s"},
		Balances:  map[string]string{"BTC": "500", "USDT": "50000"},
		Paper: PaperConfig{
			StartMid:   "100",
			HalfSpread: "0.05",
		},
	}
}

func TestResolveQuoteConfig(t *testing.T) {
	loaded, err := Resolve(baseFileConfig())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if loaded.Pair.Name != "BTCUSDT" || loaded.Pair.Base != "BTC" {
		t.Fatalf("pair mismatch: %+v", loaded.Pair)
	}

	if loaded.Risk.MaxOrderQty != 50000 {
		t.Fatalf("max order qty mismatch! should be 50000 but got %d", loaded.Risk.MaxOrderQty)
	}
	if loaded.Risk.PriceDeviationBps != 200 {
		t.Fatalf("deviation mismatch! should be 200 but got %d", loaded.Risk.PriceDeviationBps)
	}
	if loaded.MakerFeeBps != 10 || loaded.TakerFeeBps != 20 {
		t.Fatalf("fee mismatch: maker %d taker %d", loaded.MakerFeeBps, loaded.TakerFeeBps)
	}
	// Buys reserve headroom at the worst of the two rates.
	if loaded.Risk.FeeBps != 20 {
		t.Fatalf("risk fee mismatch! should be 20 but got %d", loaded.Risk.FeeBps)
	}

	if loaded.Quote == nil || loaded.Twap != nil {
		t.Fatal("quote strategy should be the only one resolved")
	}
	if loaded.Quote.BidSpreadBps != 100 || loaded.Quote.AskSpreadBps != 100 {
		t.Fatalf("spread mismatch: %+v", loaded.Quote)
	}
	if loaded.Quote.OrderSize != 10000 {
		t.Fatalf("order size mismatch! should be 10000 but got %d", loaded.Quote.OrderSize)
	}
	if loaded.Quote.RefreshInterval != 15*time.Second {
		t.Fatalf("refresh mismatch: %v", loaded.Quote.RefreshInterval)
	}

	if loaded.TickInterval != time.Second {
		t.Fatalf("tick mismatch: %v", loaded.TickInterval)
	}
	if loaded.Balances["BTC"] != 5_000_000 || loaded.Balances["USDT"] != 500_000_000 {
		t.Fatalf("balance mismatch: %+v", loaded.Balances)
	}
	if loaded.Paper.StartMid != 10000 || loaded.Paper.HalfSpread != 5 {
		t.Fatalf("paper mismatch: %+v", loaded.Paper)
	}
}

func TestResolveTwapConfig(t *testing.T) {
	cfg := baseFileConfig()
	cfg.Quote.Enabled = false
	cfg.Twap = TwapFileConfig{
		Enabled:     true,
		Side:        "buy",
		TargetQty:   "2",
		StepQty:     "1",
		OrderDelay:  "10s",
		CancelWait:  "45s",
		PriceOffset: "0.005",
	}

	loaded, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loaded.Twap == nil || loaded.Quote != nil {
		t.Fatal("twap strategy should be the only one resolved")
	}
	if loaded.Twap.Side != schema.OrderSideBuy {
		t.Fatalf("side mismatch: %v", loaded.Twap.Side)
	}
	if loaded.Twap.TargetQty != 20000 || loaded.Twap.StepQty != 10000 {
		t.Fatalf("qty mismatch: %+v", loaded.Twap)
	}
	if loaded.Twap.CancelWait != 45*time.Second {
		t.Fatalf("cancel wait mismatch: %v", loaded.Twap.CancelWait)
	}
	if loaded.Twap.PriceOffsetBps != 50 {
		t.Fatalf("offset mismatch: %d", loaded.Twap.PriceOffsetBps)
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg := baseFileConfig()
	cfg.Quote.RefreshInterval = ""
	cfg.Quote.MaxOrderAge = ""
	cfg.Scheduler.TickInterval = ""

	loaded, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loaded.Quote.RefreshInterval != 15*time.Second {
		t.Fatalf("refresh default mismatch: %v", loaded.Quote.RefreshInterval)
	}
	if loaded.Quote.MaxOrderAge != 45*time.Second {
		t.Fatalf("age default mismatch: %v", loaded.Quote.MaxOrderAge)
	}
	if loaded.TickInterval != time.Second {
		t.Fatalf("tick default mismatch: %v", loaded.TickInterval)
	}
}

func TestResolveRejectsInvalid(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(*FileConfig)
	}{
		{"no strategy", func(c *FileConfig) { c.Quote.Enabled = false }},
		{"two strategies", func(c *FileConfig) {
			c.Twap = TwapFileConfig{Enabled: true, Side: "buy", TargetQty: "2", StepQty: "1"}
		}},
		{"unknown pair", func(c *FileConfig) { c.Pair = "ETHUSDT" }},
		{"bad twap side", func(c *FileConfig) {
			c.Quote.Enabled = false
			c.Twap = TwapFileConfig{Enabled: true, Side: "short", TargetQty: "2", StepQty: "1"}
		}},
		{"zero order size", func(c *FileConfig) { c.Quote.OrderSize = "0" }},
		{"bad decimal", func(c *FileConfig) { c.Fees.Maker = "a lot" }},
		{"bad duration", func(c *FileConfig) { c.Scheduler.TickInterval = "soon" }},
		{"no pairs", func(c *FileConfig) { c.Registry.Pairs = nil }},
		{"unknown venue", func(c *FileConfig) { c.Registry.Pairs[0].Venue = "nyse" }},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := baseFileConfig()
			tc.mutate(&cfg)
			if _, err := Resolve(cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	raw := `{
  "registry": {
    "venues": [{"name": "paper"}],
    "pairs": [{
      "name": "BTCUSDT", "venue": "paper", "base": "BTC", "quote": "USDT",
      "scale": {"priceScale": 2, "quantityScale": 4}
    }]
  },
  "pair": "BTCUSDT",
  "fees": {"maker": "0.001"},
  "quote": {
    "enabled": true,
    "bidSpread": "0.01",
    "askSpread": "0.01",
    "orderSize": "1"
  },
  "balances": {"BTC": "500", "USDT": "50000"}
}`
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Quote == nil {
		t.Fatal("quote strategy missing")
	}
	if loaded.MakerFeeBps != 10 {
		t.Fatalf("maker fee mismatch! should be 10 but got %d", loaded.MakerFeeBps)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
