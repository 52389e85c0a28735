package engine

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"market-pulse/internal/market"
	"market-pulse/internal/state"
)

const floatTolerance = 1e-9

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// recordingConsumer captures every event it receives.
type recordingConsumer struct {
	name   string
	events []market.UpdateEvent
}

func (r *recordingConsumer) Name() string { return r.name }

func (r *recordingConsumer) OnUpdate(ev market.UpdateEvent) {
	r.events = append(r.events, ev)
}

func newReconcilerFixture(t *testing.T) (*Reconciler, *state.Store, *recordingConsumer) {
	t.Helper()
	store := state.NewStore(market.Tracked(), market.Bitcoin, 7.2)
	sink := &recordingConsumer{name: "sink"}
	dispatcher := NewDispatcher(noopLogger())
	dispatcher.Register(sink)
	return NewReconciler(store, dispatcher, noopLogger()), store, sink
}

func TestReconcilerDerivesChangesFromAnchors(t *testing.T) {
	rec, store, sink := newReconcilerFixture(t)
	if err := store.SetAnchors(market.Bitcoin, 115, 100); err != nil {
		t.Fatalf("SetAnchors: %v", err)
	}

	rec.HandleTick(market.Tick{Asset: market.Bitcoin, Price: 120, Change24h: 2.5})

	if len(sink.events) != 1 {
		t.Fatalf("每个有效 tick 应产生恰好一个事件, 实际 %d", len(sink.events))
	}
	ev := sink.events[0]

	if ev.Change1h == nil {
		t.Fatal("anchor1h 已建立时 change1h 不应缺失")
	}
	want1h := (120.0 - 115.0) / 115.0 * 100.0
	if math.Abs(*ev.Change1h-want1h) > floatTolerance {
		t.Fatalf("change1h = %v, want %v", *ev.Change1h, want1h)
	}
	// Scenario from the dashboard: 120 against anchor 115 is ~+4.347826%.
	if math.Abs(*ev.Change1h-4.3478260869565215) > 1e-6 {
		t.Fatalf("change1h = %v, want ≈4.347826", *ev.Change1h)
	}

	if ev.Change4h == nil {
		t.Fatal("anchor4h 已建立时 change4h 不应缺失")
	}
	if math.Abs(*ev.Change4h-20.0) > floatTolerance {
		t.Fatalf("change4h = %v, want 20", *ev.Change4h)
	}

	if ev.Change24h != 2.5 {
		t.Fatalf("change24h should pass through unchanged, got %v", ev.Change24h)
	}
}

func TestReconcilerUnavailableWithoutAnchor(t *testing.T) {
	rec, _, sink := newReconcilerFixture(t)

	rec.HandleTick(market.Tick{Asset: market.Bitcoin, Price: 50000, Change24h: 1})

	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Change1h != nil {
		t.Fatalf("锚点未建立时 change1h 应缺失, 实际 %v", *ev.Change1h)
	}
	if ev.Change4h != nil {
		t.Fatalf("锚点未建立时 change4h 应缺失, 实际 %v", *ev.Change4h)
	}
}

func TestReconcilerDiscardsInvalidTick(t *testing.T) {
	rec, store, sink := newReconcilerFixture(t)
	if err := store.SetCurrent(market.Bitcoin, 64000, 0.5); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	rec.HandleTick(market.Tick{Asset: market.Bitcoin, Price: 0, Change24h: 9})
	rec.HandleTick(market.Tick{Asset: market.Bitcoin, Price: -3, Change24h: 9})

	if len(sink.events) != 0 {
		t.Fatalf("无效 tick 不应产生事件, 实际 %d 个", len(sink.events))
	}
	if st := store.Get(market.Bitcoin); st.CurrentPrice != 64000 || st.Change24h != 0.5 {
		t.Fatalf("invalid ticks must leave state untouched, got %+v", st)
	}
}

func TestReconcilerWritesCurrentBeforeDeriving(t *testing.T) {
	rec, store, _ := newReconcilerFixture(t)

	rec.HandleTick(market.Tick{Asset: market.Ethereum, Price: 3500.25, Change24h: -0.7})

	st := store.Get(market.Ethereum)
	if st.CurrentPrice != 3500.25 {
		t.Fatalf("currentPrice = %v, want 3500.25", st.CurrentPrice)
	}
	if st.Change24h != -0.7 {
		t.Fatalf("change24h = %v, want -0.7", st.Change24h)
	}
}
