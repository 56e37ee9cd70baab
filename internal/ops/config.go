package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/risk"
	"main/internal/schema"
	"main/internal/strategy"
	"main/pkg/conn"
)

// FileConfig mirrors the JSON config layout. Numeric ratios and quantities
// are decimal strings ("0.01", "1.0") converted into scaled integers during
// resolution.
type FileConfig struct {
	Registry  RegistryConfig    `json:"registry"`
	Pair      string            `json:"pair"`
	Risk      RiskFileConfig    `json:"risk"`
	Fees      FeesConfig        `json:"fees"`
	Quote     QuoteFileConfig   `json:"quote"`
	Twap      TwapFileConfig    `json:"twap"`
	Scheduler SchedulerConfig   `json:"scheduler"`
	Balances  map[string]string `json:"balances"`
	Paper     PaperConfig       `json:"paper"`
	Feed      FeedConfig        `json:"feed"`
	Audit     AuditConfig       `json:"audit"`
}

// RegistryConfig defines venue and pair mappings.
type RegistryConfig struct {
	Venues []VenueConfig `json:"venues"`
	Pairs  []PairConfig  `json:"pairs"`
}

// VenueConfig describes a venue entry.
type VenueConfig struct {
	Name string `json:"name"`
}

// PairConfig describes a trading pair entry.
type PairConfig struct {
	Name  string      `json:"name"`
	Venue string      `json:"venue"`
	Base  string      `json:"base"`
	Quote string      `json:"quote"`
	Scale ScaleConfig `json:"scale"`
}

// ScaleConfig describes the scaled-integer precision of a pair.
type ScaleConfig struct {
	PriceScale    schema.Scale `json:"priceScale"`
	QuantityScale schema.Scale `json:"quantityScale"`
}

// RiskFileConfig holds the guard limits as decimal strings.
type RiskFileConfig struct {
	MaxOrderQty    string `json:"maxOrderQty"`
	MaxExposure    string `json:"maxExposure"`
	PriceDeviation string `json:"priceDeviation"`
	MinQuoteBuffer string `json:"minQuoteBuffer"`
}

// FeesConfig holds maker/taker fee rates as decimal ratios.
type FeesConfig struct {
	Maker string `json:"maker"`
	Taker string `json:"taker"`
}

// QuoteFileConfig holds the market-making parameters.
type QuoteFileConfig struct {
	Enabled         bool   `json:"enabled"`
	BidSpread       string `json:"bidSpread"`
	AskSpread       string `json:"askSpread"`
	OrderSize       string `json:"orderSize"`
	RefreshInterval string `json:"refreshInterval"`
	MaxOrderAge     string `json:"maxOrderAge"`
	TargetBaseRatio string `json:"targetBaseRatio"`
	InventoryRange  string `json:"inventoryRange"`
}

// TwapFileConfig holds the slicer parameters.
type TwapFileConfig struct {
	Enabled     bool   `json:"enabled"`
	Side        string `json:"side"`
	TargetQty   string `json:"targetQty"`
	StepQty     string `json:"stepQty"`
	OrderDelay  string `json:"orderDelay"`
	CancelWait  string `json:"cancelWait"`
	PriceOffset string `json:"priceOffset"`
}

// SchedulerConfig holds the tick period.
type SchedulerConfig struct {
	TickInterval string `json:"tickInterval"`
}

// PaperConfig shapes the simulated venue used by the trader binary.
type PaperConfig struct {
	StartMid      string `json:"startMid"`
	HalfSpread    string `json:"halfSpread"`
	WalkStep      string `json:"walkStep"`
	WalkFlipEvery int    `json:"walkFlipEvery"`
}

// FeedConfig holds the snapshot feed listen address. Empty disables it.
type FeedConfig struct {
	ListenAddr string `json:"listenAddr"`
}

// AuditConfig holds the optional Postgres audit store settings.
type AuditConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry     *schema.Registry
	Pair         schema.Pair
	Risk         risk.Config
	MakerFeeBps  schema.Bps
	TakerFeeBps  schema.Bps
	Quote        *strategy.QuoteConfig
	Twap         *strategy.TwapConfig
	TickInterval time.Duration
	Balances     map[string]schema.Quantity
	Paper        PaperSpec
	FeedAddr     string
	Audit        *conn.Option
}

// PaperSpec is the resolved paper venue definition.
type PaperSpec struct {
	StartMid      schema.Price
	HalfSpread    schema.Price
	WalkStep      schema.Price
	WalkFlipEvery int
}

// Load reads a JSON config file and resolves every section.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a file config and converts it into runtime types.
func Resolve(cfg FileConfig) (Loaded, error) {
	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		return Loaded{}, err
	}

	pairName := cfg.Pair
	if pairName == "" {
		if p, ok := registry.PairAt(0); ok {
			pairName = p.Name
		}
	}
	pairID, ok := registry.PairIDByName(pairName)
	if !ok {
		return Loaded{}, fmt.Errorf("pair not found: %s", pairName)
	}
	pair, _ := registry.Pair(pairID)

	loaded := Loaded{
		Registry: registry,
		Pair:     pair,
	}

	if loaded.Risk, err = resolveRisk(cfg.Risk, pair.Scale); err != nil {
		return Loaded{}, err
	}
	if loaded.MakerFeeBps, err = parseOptionalBps(cfg.Fees.Maker, "fees.maker"); err != nil {
		return Loaded{}, err
	}
	if loaded.TakerFeeBps, err = parseOptionalBps(cfg.Fees.Taker, "fees.taker"); err != nil {
		return Loaded{}, err
	}
	// Buys must clear the worst-case fee rate.
	loaded.Risk.FeeBps = loaded.MakerFeeBps
	if loaded.TakerFeeBps > loaded.Risk.FeeBps {
		loaded.Risk.FeeBps = loaded.TakerFeeBps
	}

	if cfg.Quote.Enabled {
		quote, err := resolveQuote(cfg.Quote, pair)
		if err != nil {
			return Loaded{}, err
		}
		loaded.Quote = &quote
	}
	if cfg.Twap.Enabled {
		twap, err := resolveTwap(cfg.Twap, pair)
		if err != nil {
			return Loaded{}, err
		}
		loaded.Twap = &twap
	}
	if loaded.Quote == nil && loaded.Twap == nil {
		return Loaded{}, fmt.Errorf("no strategy enabled")
	}
	if loaded.Quote != nil && loaded.Twap != nil {
		return Loaded{}, fmt.Errorf("enable exactly one strategy per pair")
	}

	if loaded.TickInterval, err = parseDuration(cfg.Scheduler.TickInterval, time.Second, "scheduler.tickInterval"); err != nil {
		return Loaded{}, err
	}

	loaded.Balances = make(map[string]schema.Quantity, len(cfg.Balances))
	for asset, raw := range cfg.Balances {
		qty, err := parseQty(raw, pair.Scale.QuantityScale, "balances."+asset)
		if err != nil {
			return Loaded{}, err
		}
		loaded.Balances[asset] = qty
	}

	if loaded.Paper, err = resolvePaper(cfg.Paper, pair.Scale); err != nil {
		return Loaded{}, err
	}

	loaded.FeedAddr = cfg.Feed.ListenAddr
	if cfg.Audit.Enabled {
		loaded.Audit = &conn.Option{
			Host:     cfg.Audit.Host,
			Port:     cfg.Audit.Port,
			User:     cfg.Audit.User,
			Password: cfg.Audit.Password,
			Database: cfg.Audit.Database,
		}
	}
	return loaded, nil
}

func buildRegistry(cfg RegistryConfig) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, venue := range cfg.Venues {
		if _, err := reg.AddVenue(venue.Name); err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Pairs {
		venueID, ok := reg.VenueIDByName(p.Venue)
		if !ok {
			return nil, fmt.Errorf("venue not found: %s", p.Venue)
		}
		if p.Scale.PriceScale < 0 || p.Scale.QuantityScale < 0 {
			return nil, fmt.Errorf("invalid scale for %s", p.Name)
		}
		scale := schema.ScaleSpec{
			PriceScale:    p.Scale.PriceScale,
			QuantityScale: p.Scale.QuantityScale,
		}
		if _, err := reg.AddPair(p.Name, p.Base, p.Quote, venueID, scale); err != nil {
			return nil, err
		}
	}
	if reg.PairCount() == 0 {
		return nil, fmt.Errorf("registry has no pairs")
	}
	return reg, nil
}

func resolveRisk(cfg RiskFileConfig, scale schema.ScaleSpec) (risk.Config, error) {
	var out risk.Config
	var err error
	if out.MaxOrderQty, err = parseOptionalQty(cfg.MaxOrderQty, scale.QuantityScale, "risk.maxOrderQty"); err != nil {
		return out, err
	}
	if out.MaxExposure, err = parseOptionalQty(cfg.MaxExposure, scale.QuantityScale, "risk.maxExposure"); err != nil {
		return out, err
	}
	if out.PriceDeviationBps, err = parseOptionalBps(cfg.PriceDeviation, "risk.priceDeviation"); err != nil {
		return out, err
	}
	if out.MinQuoteBuffer, err = parseOptionalQty(cfg.MinQuoteBuffer, scale.QuantityScale, "risk.minQuoteBuffer"); err != nil {
		return out, err
	}
	return out, nil
}

func resolveQuote(cfg QuoteFileConfig, pair schema.Pair) (strategy.QuoteConfig, error) {
	var out strategy.QuoteConfig
	var err error
	out.PairID = pair.ID
	out.PriceScale = pair.Scale.PriceScale
	if out.BidSpreadBps, err = parseBps(cfg.BidSpread, "quote.bidSpread"); err != nil {
		return out, err
	}
	if out.AskSpreadBps, err = parseBps(cfg.AskSpread, "quote.askSpread"); err != nil {
		return out, err
	}
	if out.OrderSize, err = parseQty(cfg.OrderSize, pair.Scale.QuantityScale, "quote.orderSize"); err != nil {
		return out, err
	}
	if out.OrderSize <= 0 {
		return out, fmt.Errorf("quote.orderSize must be > 0")
	}
	if out.RefreshInterval, err = parseDuration(cfg.RefreshInterval, 15*time.Second, "quote.refreshInterval"); err != nil {
		return out, err
	}
	if out.MaxOrderAge, err = parseDuration(cfg.MaxOrderAge, 45*time.Second, "quote.maxOrderAge"); err != nil {
		return out, err
	}
	if out.Inventory.TargetRatioBps, err = parseOptionalBps(cfg.TargetBaseRatio, "quote.targetBaseRatio"); err != nil {
		return out, err
	}
	if out.Inventory.RangeMultBps, err = parseOptionalBps(cfg.InventoryRange, "quote.inventoryRange"); err != nil {
		return out, err
	}
	return out, nil
}

func resolveTwap(cfg TwapFileConfig, pair schema.Pair) (strategy.TwapConfig, error) {
	var out strategy.TwapConfig
	var err error
	out.PairID = pair.ID
	switch cfg.Side {
	case "buy":
		out.Side = schema.OrderSideBuy
	case "sell":
		out.Side = schema.OrderSideSell
	default:
		return out, fmt.Errorf("twap.side must be buy or sell, got %q", cfg.Side)
	}
	if out.TargetQty, err = parseQty(cfg.TargetQty, pair.Scale.QuantityScale, "twap.targetQty"); err != nil {
		return out, err
	}
	if out.StepQty, err = parseQty(cfg.StepQty, pair.Scale.QuantityScale, "twap.stepQty"); err != nil {
		return out, err
	}
	if out.TargetQty <= 0 || out.StepQty <= 0 {
		return out, fmt.Errorf("twap.targetQty and twap.stepQty must be > 0")
	}
	if out.OrderDelay, err = parseDuration(cfg.OrderDelay, 10*time.Second, "twap.orderDelay"); err != nil {
		return out, err
	}
	if out.CancelWait, err = parseDuration(cfg.CancelWait, 60*time.Second, "twap.cancelWait"); err != nil {
		return out, err
	}
	if out.PriceOffsetBps, err = parseOptionalBps(cfg.PriceOffset, "twap.priceOffset"); err != nil {
		return out, err
	}
	return out, nil
}

func resolvePaper(cfg PaperConfig, scale schema.ScaleSpec) (PaperSpec, error) {
	var out PaperSpec
	var err error
	var v schema.Quantity
	if v, err = parseOptionalQty(cfg.StartMid, scale.PriceScale, "paper.startMid"); err != nil {
		return out, err
	}
	out.StartMid = schema.Price(v)
	if v, err = parseOptionalQty(cfg.HalfSpread, scale.PriceScale, "paper.halfSpread"); err != nil {
		return out, err
	}
	out.HalfSpread = schema.Price(v)
	if v, err = parseOptionalQty(cfg.WalkStep, scale.PriceScale, "paper.walkStep"); err != nil {
		return out, err
	}
	out.WalkStep = schema.Price(v)
	out.WalkFlipEvery = cfg.WalkFlipEvery
	return out, nil
}

func parseQty(raw string, scale schema.Scale, field string) (schema.Quantity, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return schema.Quantity(d.Shift(int32(scale)).IntPart()), nil
}

func parseOptionalQty(raw string, scale schema.Scale, field string) (schema.Quantity, error) {
	if raw == "" {
		return 0, nil
	}
	return parseQty(raw, scale, field)
}

func parseBps(raw string, field string) (schema.Bps, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return schema.Bps(d.Shift(4).IntPart()), nil
}

func parseOptionalBps(raw string, field string) (schema.Bps, error) {
	if raw == "" {
		return 0, nil
	}
	return parseBps(raw, field)
}

func parseDuration(raw string, fallback time.Duration, field string) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", field)
	}
	return d, nil
}
