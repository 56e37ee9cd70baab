package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxRiskReason = int(schema.RiskReasonMaxQty)

// Metrics collects lightweight counters for the execution loop.
type Metrics struct {
	ticks            uint64
	candidates       uint64
	submissions      uint64
	denials          [maxRiskReason + 1]uint64
	pauses           uint64
	fills            uint64
	expirations      uint64
	cancellations    uint64
	rejections       uint64
	queueDrops       uint64

	tickLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Ticks         uint64
	Candidates    uint64
	Submissions   uint64
	Denials       map[schema.RiskReason]uint64
	Pauses        uint64
	Fills         uint64
	Expirations   uint64
	Cancellations uint64
	Rejections    uint64
	QueueDrops    uint64
	TickLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) ObserveTick(elapsed time.Duration) {
	atomic.AddUint64(&m.ticks, 1)
	m.tickLatency.observe(uint64(elapsed))
}

func (m *Metrics) ObserveCandidates(n int) {
	if n > 0 {
		atomic.AddUint64(&m.candidates, uint64(n))
	}
}

func (m *Metrics) ObserveDecision(decision schema.RiskDecision) {
	switch decision.Action {
	case schema.RiskActionAllow:
		atomic.AddUint64(&m.submissions, 1)
	case schema.RiskActionPause:
		atomic.AddUint64(&m.pauses, 1)
	case schema.RiskActionDeny:
		idx := int(decision.Reason)
		if idx > maxRiskReason {
			idx = 0
		}
		atomic.AddUint64(&m.denials[idx], 1)
	}
}

func (m *Metrics) ObserveFill() {
	atomic.AddUint64(&m.fills, 1)
}

func (m *Metrics) ObserveRetired(terminal string) {
	switch terminal {
	case "expired":
		atomic.AddUint64(&m.expirations, 1)
	case "canceled":
		atomic.AddUint64(&m.cancellations, 1)
	case "rejected":
		atomic.AddUint64(&m.rejections, 1)
	}
}

func (m *Metrics) ObserveQueueDrops(n uint64) {
	if n > 0 {
		atomic.AddUint64(&m.queueDrops, n)
	}
}

// Snapshot returns a copy of every counter.
func (m *Metrics) Snapshot() Snapshot {
	denials := make(map[schema.RiskReason]uint64, maxRiskReason+1)
	for i := 0; i <= maxRiskReason; i++ {
		if v := atomic.LoadUint64(&m.denials[i]); v > 0 {
			denials[schema.RiskReason(i)] = v
		}
	}
	return Snapshot{
		Ticks:         atomic.LoadUint64(&m.ticks),
		Candidates:    atomic.LoadUint64(&m.candidates),
		Submissions:   atomic.LoadUint64(&m.submissions),
		Denials:       denials,
		Pauses:        atomic.LoadUint64(&m.pauses),
		Fills:         atomic.LoadUint64(&m.fills),
		Expirations:   atomic.LoadUint64(&m.expirations),
		Cancellations: atomic.LoadUint64(&m.cancellations),
		Rejections:    atomic.LoadUint64(&m.rejections),
		QueueDrops:    atomic.LoadUint64(&m.queueDrops),
		TickLatency:   m.tickLatency.snapshot(),
	}
}

func (s *LatencyStats) observe(v uint64) {
	atomic.AddUint64(&s.count, 1)
	atomic.AddUint64(&s.sum, v)
	for {
		cur := atomic.LoadUint64(&s.min)
		if cur != 0 && v >= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&s.min, cur, v) {
			break
		}
	}
	for {
		cur := atomic.LoadUint64(&s.max)
		if v <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&s.max, cur, v) {
			break
		}
	}
}

func (s *LatencyStats) snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&s.count)
	out := LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&s.min)),
		Max:   time.Duration(atomic.LoadUint64(&s.max)),
	}
	if count > 0 {
		out.Avg = time.Duration(atomic.LoadUint64(&s.sum) / count)
	}
	return out
}
