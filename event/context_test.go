package event_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/reactive/event"
	"github.com/tailored-agentic-units/reactive/observability"
)

func newContext(t *testing.T) (*event.Context, *observability.CountingObserver) {
	t.Helper()
	counter := observability.NewCountingObserver()
	return event.NewContext(event.WithObserver(counter)), counter
}

func TestContext_ID(t *testing.T) {
	a, _ := newContext(t)
	b, _ := newContext(t)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ids %q and %q should be distinct and non-empty", a.ID(), b.ID())
	}

	named := event.NewContext(event.WithID("ui"))
	if named.ID() != "ui" {
		t.Errorf("ID() = %q, want ui", named.ID())
	}
}

func TestContext_ActivateRunsOnce(t *testing.T) {
	ctx, _ := newContext(t)
	calls := 0
	id := ctx.RegisterEvent(func(event.ID) bool { calls++; return true }, nil)

	if !ctx.ActivateEvent(id) {
		t.Fatal("ActivateEvent() = false, want true")
	}
	ctx.ActivateEvent(id)
	if ctx.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1 (double activation coalesces)", ctx.Pending())
	}

	ctx.ExecuteActiveEventsImmediately()
	ctx.ExecuteActiveEventsImmediately()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if ctx.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (event stays registered)", ctx.Len())
	}
}

func TestContext_ExecutionOrderFollowsActivation(t *testing.T) {
	ctx, _ := newContext(t)
	var order []string
	a := ctx.RegisterEvent(func(event.ID) bool { order = append(order, "a"); return true }, nil)
	b := ctx.RegisterEvent(func(event.ID) bool { order = append(order, "b"); return true }, nil)
	c := ctx.RegisterEvent(func(event.ID) bool { order = append(order, "c"); return true }, nil)

	ctx.ActivateEvent(c)
	ctx.ActivateEvent(a)
	ctx.ActivateEvent(b)
	ctx.ExecuteActiveEventsImmediately()

	if want := []string{"c", "a", "b"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestContext_ActivationDuringDrainIsDeferred(t *testing.T) {
	ctx, _ := newContext(t)
	runs := 0
	var id event.ID
	id = ctx.RegisterEvent(func(event.ID) bool {
		runs++
		ctx.ActivateEvent(id)
		return true
	}, nil)

	ctx.ActivateEvent(id)
	ctx.ExecuteActiveEventsImmediately()
	if runs != 1 {
		t.Fatalf("runs after first drain = %d, want 1", runs)
	}
	if ctx.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", ctx.Pending())
	}

	ctx.ExecuteActiveEventsImmediately()
	if runs != 2 {
		t.Errorf("runs after second drain = %d, want 2", runs)
	}
}

func TestContext_ActivateReturningFalseDisposes(t *testing.T) {
	ctx, _ := newContext(t)
	calls := 0
	id := ctx.RegisterEvent(func(event.ID) bool { calls++; return false }, nil)

	ctx.ActivateEvent(id)
	ctx.ExecuteActiveEventsImmediately()

	if ctx.ActivateEvent(id) {
		t.Error("ActivateEvent() after disposal = true, want false")
	}
	if ctx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ctx.Len())
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestContext_DeadSubscriberIsInvalidatedOnActivate(t *testing.T) {
	ctx, _ := newContext(t)
	alive := true
	id := ctx.RegisterEvent(func(event.ID) bool { return true }, func() bool { return alive })

	alive = false
	if ctx.ActivateEvent(id) {
		t.Error("ActivateEvent() on dead subscriber = true, want false")
	}
	if ctx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ctx.Len())
	}
}

func TestContext_DeathBetweenActivateAndDrain(t *testing.T) {
	ctx, _ := newContext(t)
	owner := event.NewOwner()
	calls := 0
	id := ctx.Subscribe(owner.Token(), func(event.ID) bool { calls++; return true })

	ctx.ActivateEvent(id)
	owner.Release()
	ctx.ExecuteActiveEventsImmediately()

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if got := ctx.Metrics().Pruned; got != 1 {
		t.Errorf("Pruned = %d, want 1", got)
	}
}

func TestContext_SubscriberPanicIsContained(t *testing.T) {
	ctx, counter := newContext(t)
	sibling := 0
	bad := ctx.RegisterEvent(func(event.ID) bool { panic("boom") }, nil)
	good := ctx.RegisterEvent(func(event.ID) bool { sibling++; return true }, nil)

	ctx.ActivateEvent(bad)
	ctx.ActivateEvent(good)
	ctx.ExecuteActiveEventsImmediately()

	if sibling != 1 {
		t.Errorf("sibling ran %d times, want 1", sibling)
	}
	if counter.Count(event.EventSubscriberPanic) != 1 {
		t.Errorf("panic events = %d, want 1", counter.Count(event.EventSubscriberPanic))
	}
	if !ctx.ActivateEvent(bad) {
		t.Error("panicking subscriber should stay registered")
	}
}

func TestContext_NestedDrainIsRefused(t *testing.T) {
	ctx, counter := newContext(t)
	nested := true
	id := ctx.RegisterEvent(func(event.ID) bool {
		nested = ctx.ExecuteActiveEventsImmediately()
		return true
	}, nil)

	ctx.ActivateEvent(id)
	if !ctx.ExecuteActiveEventsImmediately() {
		t.Fatal("outer drain reported false")
	}
	if nested {
		t.Error("nested drain reported true, want false")
	}
	if counter.Count(event.EventNestedDrain) != 1 {
		t.Errorf("nested drain events = %d, want 1", counter.Count(event.EventNestedDrain))
	}
}

func TestContext_AfterEffectsRunLast(t *testing.T) {
	ctx, _ := newContext(t)
	var order []string
	after := ctx.RegisterAfterEffect(func(event.ID) bool { order = append(order, "after"); return true }, nil)
	regular := ctx.RegisterEvent(func(event.ID) bool { order = append(order, "regular"); return true }, nil)

	ctx.ActivateAfterEffect(after)
	ctx.ActivateEvent(regular)
	ctx.ExecuteActiveEventsImmediately()

	if want := []string{"regular", "after"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestContext_ExecuteEvent(t *testing.T) {
	ctx, _ := newContext(t)
	calls := 0
	id := ctx.RegisterEvent(func(event.ID) bool { calls++; return true }, nil)

	ctx.ActivateEvent(id)
	if err := ctx.ExecuteEvent(id); err != nil {
		t.Fatalf("ExecuteEvent() error = %v", err)
	}
	if ctx.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after direct execution", ctx.Pending())
	}
	ctx.ExecuteActiveEventsImmediately()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	if err := ctx.ExecuteEvent(event.InvalidID); !errors.Is(err, event.ErrUnknownEvent) {
		t.Errorf("ExecuteEvent(InvalidID) error = %v, want ErrUnknownEvent", err)
	}
}

func TestContext_RemoveEvent(t *testing.T) {
	ctx, _ := newContext(t)
	calls := 0
	id := ctx.RegisterEvent(func(event.ID) bool { calls++; return true }, nil)

	ctx.ActivateEvent(id)
	if !ctx.RemoveEvent(id) {
		t.Fatal("RemoveEvent() = false, want true")
	}
	ctx.ExecuteActiveEventsImmediately()
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if ctx.RemoveEvent(id) {
		t.Error("second RemoveEvent() = true, want false")
	}
}

func TestContext_CleanInvalidEvents(t *testing.T) {
	ctx, _ := newContext(t)
	owner := event.NewOwner()
	ctx.Subscribe(owner.Token(), func(event.ID) bool { return true })
	ctx.Subscribe(owner.Token(), func(event.ID) bool { return true })
	ctx.RegisterEvent(func(event.ID) bool { return true }, nil)

	owner.Release()
	if removed := ctx.CleanInvalidEvents(); removed != 2 {
		t.Errorf("CleanInvalidEvents() = %d, want 2", removed)
	}
	if ctx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ctx.Len())
	}
}

func TestContext_Metrics(t *testing.T) {
	ctx, _ := newContext(t)
	id := ctx.RegisterEvent(func(event.ID) bool { return true }, nil)
	ctx.ActivateEvent(id)
	ctx.ExecuteActiveEventsImmediately()

	got := ctx.Metrics()
	want := event.MetricsSnapshot{Registered: 1, Activated: 1, Executed: 1, Drains: 1}
	if got != want {
		t.Errorf("Metrics() = %+v, want %+v", got, want)
	}
}

func TestToken(t *testing.T) {
	var zero event.Token
	if !zero.Alive() {
		t.Error("zero Token should be alive")
	}

	owner := event.NewOwner()
	first := owner.Token()
	owner.Release()
	second := owner.Token()

	if first.Alive() {
		t.Error("token taken before Release should be dead")
	}
	if !second.Alive() {
		t.Error("token taken after Release should be alive")
	}
	if owner.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", owner.Generation())
	}
}
