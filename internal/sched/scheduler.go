package sched

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/adapter"
	"main/internal/bus"
	"main/internal/feed"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/og"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/store"
	"main/internal/strategy"
)

// Config defines the per-pair scheduler parameters.
type Config struct {
	Pair         schema.Pair
	TickInterval time.Duration
	MakerFeeBps  schema.Bps
	TakerFeeBps  schema.Bps
}

// Advancer is implemented by simulated venues that move with the clock.
type Advancer interface {
	Advance(now int64)
}

// remainer is implemented by strategies with a finite target.
type remainer interface {
	Remaining() schema.Quantity
}

// Scheduler is the single logical clock for one trading pair. Every tick
// runs, in fixed order: event reconciliation (fills first), expiry sweep,
// anomaly gate, candidate generation, risk filtering, submission, snapshot
// publish. The loop is single-threaded; adapter completions queue up and
// feed the next tick.
type Scheduler struct {
	cfg       config
	exchange  adapter.Exchange
	queue     *bus.Queue
	ledger    *ledger.Ledger
	guard     *risk.Engine
	manager   *og.Manager
	strat     strategy.Strategy
	publisher *feed.Publisher
	metrics   *obs.Metrics
	audit     *store.Audit

	lastDecision schema.RiskDecision
	seenDrops    uint64
	doneLogged   bool
}

type config struct {
	pair         schema.Pair
	tickInterval time.Duration
	makerFeeBps  schema.Bps
	takerFeeBps  schema.Bps
}

// Deps bundles the collaborators wired into a scheduler. Audit and
// Publisher may be nil.
type Deps struct {
	Exchange  adapter.Exchange
	Queue     *bus.Queue
	Ledger    *ledger.Ledger
	Guard     *risk.Engine
	Strategy  strategy.Strategy
	Publisher *feed.Publisher
	Metrics   *obs.Metrics
	Audit     *store.Audit
}

// New wires a scheduler for one pair. The lifecycle manager is owned here;
// its hooks route fills into the ledger and retirements into the strategy
// and audit store.
func New(cfg Config, deps Deps) *Scheduler {
	s := &Scheduler{
		cfg: config{
			pair:         cfg.Pair,
			tickInterval: cfg.TickInterval,
			makerFeeBps:  cfg.MakerFeeBps,
			takerFeeBps:  cfg.TakerFeeBps,
		},
		exchange:  deps.Exchange,
		queue:     deps.Queue,
		ledger:    deps.Ledger,
		guard:     deps.Guard,
		strat:     deps.Strategy,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		audit:     deps.Audit,
	}
	if s.metrics == nil {
		s.metrics = obs.NewMetrics()
	}
	s.manager = og.NewManager(deps.Exchange, og.Hooks{
		OnFill:   s.onFill,
		OnRetire: s.onRetire,
	})
	return s
}

// Manager exposes the lifecycle manager, mainly for inspection in tests.
func (s *Scheduler) Manager() *og.Manager {
	return s.manager
}

// LastDecision returns the most recent risk decision.
func (s *Scheduler) LastDecision() schema.RiskDecision {
	return s.lastDecision
}

// Run drives ticks from a wall clock until the context is done or a fatal
// error halts the pair.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if err := s.Step(t.UnixNano()); err != nil {
				logs.Errorf("pair %s halted: %v", s.cfg.pair.Name, err)
				return err
			}
		}
	}
}

// Step processes one tick at the given timestamp. A returned error is
// fatal for the pair: the caller must stop driving this scheduler.
func (s *Scheduler) Step(now int64) error {
	start := time.Now()
	defer func() {
		s.metrics.ObserveTick(time.Since(start))
	}()

	if a, ok := s.exchange.(Advancer); ok {
		a.Advance(now)
	}

	if err := s.manager.Reconcile(s.queue.Drain()); err != nil {
		return errors.Wrapf(err, "reconcile pair %s", s.cfg.pair.Name)
	}
	if drops := s.queue.Drops(); drops > s.seenDrops {
		s.metrics.ObserveQueueDrops(drops - s.seenDrops)
		s.seenDrops = drops
	}

	s.manager.SweepExpired(now)

	snapshot := s.exchange.Snapshot()
	decision := s.guard.CheckPrice(snapshot)
	s.lastDecision = decision
	if decision.Action == schema.RiskActionPause {
		s.metrics.ObserveDecision(decision)
		logs.Warnf("pair %s trading paused: %s", s.cfg.pair.Name, decision.Reason)
	} else if !s.strat.Done() {
		s.generate(snapshot, now)
	}

	if s.strat.Done() && !s.doneLogged {
		logs.Infof("strategy %s complete on pair %s", s.strat.Name(), s.cfg.pair.Name)
		s.doneLogged = true
	}

	s.publish(snapshot, now)
	return nil
}

func (s *Scheduler) generate(snapshot schema.MarketSnapshot, now int64) {
	view := strategy.View{
		Market:         snapshot,
		BaseAvailable:  s.ledger.Get(s.cfg.pair.Base),
		QuoteAvailable: s.ledger.Get(s.cfg.pair.Quote),
		Now:            now,
	}
	candidates := s.strat.Candidates(view)
	s.metrics.ObserveCandidates(len(candidates))

	for _, intent := range candidates {
		intent.OrderID = s.manager.NextOrderID()
		decision := s.guard.Evaluate(intent, risk.View{
			BaseAvailable:  s.ledger.Get(s.cfg.pair.Base),
			QuoteAvailable: s.ledger.Get(s.cfg.pair.Quote),
			ActiveNotional: s.manager.ActiveNotional(s.cfg.pair.Scale.PriceScale),
			PriceScale:     s.cfg.pair.Scale.PriceScale,
		})
		s.lastDecision = decision
		s.metrics.ObserveDecision(decision)
		if decision.Action != schema.RiskActionAllow {
			logs.Infof("candidate %s %d@%d on %s dropped: %s",
				intent.Side, intent.Qty, intent.Price, s.cfg.pair.Name, decision.Reason)
			continue
		}
		o, err := s.manager.Submit(intent, now)
		if err != nil {
			logs.Warnf("submit order %d failed: %v", intent.OrderID, err)
			continue
		}
		if !o.State.IsTerminal() {
			s.strat.OnSubmitted(*o)
		}
	}
}

func (s *Scheduler) onFill(o *og.Order, fill schema.Fill) error {
	rate := s.cfg.makerFeeBps
	if fill.Liquidity == schema.LiquidityTaker {
		rate = s.cfg.takerFeeBps
	}
	fee, err := s.ledger.ApplyFill(s.cfg.pair, fill, rate)
	if err != nil {
		return err
	}
	s.metrics.ObserveFill()
	s.strat.OnFill(fill)
	if s.audit != nil {
		if err := s.audit.RecordFill(s.cfg.pair, fill, fee); err != nil {
			logs.Warnf("audit fill for order %d: %v", fill.OrderID, err)
		}
	}
	return nil
}

func (s *Scheduler) onRetire(o *og.Order) {
	s.metrics.ObserveRetired(o.State.String())
	s.strat.OnOrderRetired(*o)
	if s.audit != nil {
		if err := s.audit.RecordRetired(s.cfg.pair, *o, time.Now().UTC().UnixNano()); err != nil {
			logs.Warnf("audit order %d: %v", o.ID, err)
		}
	}
}

func (s *Scheduler) publish(snapshot schema.MarketSnapshot, now int64) {
	if s.publisher == nil {
		return
	}
	pair := s.cfg.pair
	active := s.manager.ActiveOrders()
	orders := make([]feed.OrderView, 0, len(active))
	for _, o := range active {
		orders = append(orders, feed.OrderView{
			ID:     o.ID,
			Side:   o.Side.String(),
			Price:  feed.Render(int64(o.Price), pair.Scale.PriceScale),
			Qty:    feed.Render(int64(o.Qty), pair.Scale.QuantityScale),
			Filled: feed.Render(int64(o.FilledQty), pair.Scale.QuantityScale),
			Status: o.State.String(),
		})
	}
	snap := feed.TickSnapshot{
		Ts:     now,
		Pair:   pair.Name,
		Mid:    feed.Render(int64(snapshot.Mid), pair.Scale.PriceScale),
		Paused: s.guard.Paused(),
		Risk:   feed.RenderRisk(s.lastDecision),
		Orders: orders,
		Balances: map[string]string{
			pair.Base:  feed.Render(int64(s.ledger.Get(pair.Base)), pair.Scale.QuantityScale),
			pair.Quote: feed.Render(int64(s.ledger.Get(pair.Quote)), pair.Scale.QuantityScale),
		},
		FeesPaid: feed.Render(int64(s.ledger.FeesPaid(pair.Quote)), pair.Scale.QuantityScale),
	}
	if r, ok := s.strat.(remainer); ok {
		snap.TwapRemaining = feed.Render(int64(r.Remaining()), pair.Scale.QuantityScale)
	}
	s.publisher.Publish(snap)
}
