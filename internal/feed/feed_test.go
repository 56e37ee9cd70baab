package feed

import (
	"testing"

	"main/internal/schema"
)

func TestRender(t *testing.T) {
	testCases := []struct {
		desc     string
		v        int64
		scale    schema.Scale
		expected string
	}{
		{"whole", 10000, 2, "100"},
		{"fraction", 9900, 2, "99"},
		{"sub-unit", 990, 4, "0.099"},
		{"zero", 0, 2, "0"},
		{"negative", -150, 2, "-1.5"},
		{"no scale", 42, 0, "42"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := Render(tc.v, tc.scale)
			if got != tc.expected {
				t.Fatalf("render mismatch! should be %s but got %s", tc.expected, got)
			}
		})
	}
}

func TestRenderRisk(t *testing.T) {
	testCases := []struct {
		action   schema.RiskAction
		reason   schema.RiskReason
		expected RiskView
	}{
		{schema.RiskActionAllow, schema.RiskReasonNone, RiskView{Action: "approved", Reason: "none"}},
		{schema.RiskActionDeny, schema.RiskReasonInsufficientBalance, RiskView{Action: "denied", Reason: "insufficient_balance"}},
		{schema.RiskActionPause, schema.RiskReasonPriceAnomaly, RiskView{Action: "paused", Reason: "price_anomaly"}},
	}

	for _, tc := range testCases {
		got := RenderRisk(schema.RiskDecision{Action: tc.action, Reason: tc.reason})
		if got != tc.expected {
			t.Fatalf("risk view mismatch! should be %+v but got %+v", tc.expected, got)
		}
	}
}

func TestPublisherSubscribe(t *testing.T) {
	p := NewPublisher(nil)
	ch, cancel := p.Subscribe(2)

	p.Publish(TickSnapshot{Ts: 1})
	p.Publish(TickSnapshot{Ts: 2})

	if snap := <-ch; snap.Ts != 1 {
		t.Fatalf("snapshot order mismatch! should be 1 but got %d", snap.Ts)
	}
	if snap := <-ch; snap.Ts != 2 {
		t.Fatalf("snapshot order mismatch! should be 2 but got %d", snap.Ts)
	}

	cancel()
	p.Publish(TickSnapshot{Ts: 3})
	select {
	case snap := <-ch:
		t.Fatalf("canceled subscriber received %d", snap.Ts)
	default:
	}
}

// A subscriber that stops draining loses snapshots but never blocks the
// publisher.
func TestPublisherDropsOnSlowSubscriber(t *testing.T) {
	p := NewPublisher(nil)
	ch, cancel := p.Subscribe(1)
	defer cancel()

	p.Publish(TickSnapshot{Ts: 1})
	p.Publish(TickSnapshot{Ts: 2})
	p.Publish(TickSnapshot{Ts: 3})

	if snap := <-ch; snap.Ts != 1 {
		t.Fatalf("kept snapshot mismatch! should be 1 but got %d", snap.Ts)
	}
	select {
	case snap := <-ch:
		t.Fatalf("overflow snapshot delivered: %d", snap.Ts)
	default:
	}
}
