package orders

import (
	"errors"
	"testing"
	"time"

	"slicehouse.ai/internal/sim/anatomy"
)

func newOrder(id string, items ...Item) *Order {
	return &Order{ID: id, Customer: "cust-" + id, Archetype: NeutralArchetype(), TimeLimit: 10 * time.Second, Items: items}
}

func TestBook_PinFillsLowestSlot(t *testing.T) {
	b := NewBook(nil)
	a, c, d, e := newOrder("A"), newOrder("B"), newOrder("C"), newOrder("D")
	b.SetOrders([]*Order{a, c, d, e})

	for i, o := range []*Order{a, c, d} {
		slot, err := b.Pin(o)
		if err != nil || slot != i {
			t.Fatalf("pin %s: slot=%d err=%v", o.ID, slot, err)
		}
	}
	if !b.Complete(c) {
		t.Fatalf("complete B")
	}
	if slot, err := b.Pin(e); err != nil || slot != 1 {
		t.Fatalf("D should take freed slot 1: slot=%d err=%v", slot, err)
	}
	pinned := b.Pinned()
	if len(pinned) != 3 || pinned[0].Order != a || pinned[1].Order != e || pinned[2].Order != d {
		t.Fatalf("slot order wrong: %+v", pinned)
	}
	b.SetOrders(b.Waiting())
	if len(b.Pinned()) != 0 || len(b.Completed()) != 0 {
		t.Fatalf("SetOrders must clear slots and completed")
	}
}

func TestBook_FourthPinFails(t *testing.T) {
	b := NewBook(nil)
	list := []*Order{newOrder("A"), newOrder("B"), newOrder("C"), newOrder("D")}
	b.SetOrders(list)
	for _, o := range list[:3] {
		if _, err := b.Pin(o); err != nil {
			t.Fatalf("pin %s: %v", o.ID, err)
		}
	}
	beforeWaiting := b.Waiting()
	beforeSlots := b.Slots()

	slot, err := b.Pin(list[3])
	if !errors.Is(err, ErrNoSlot) || slot != -1 {
		t.Fatalf("expected ErrNoSlot, got slot=%d err=%v", slot, err)
	}
	if got := b.Waiting(); len(got) != len(beforeWaiting) || got[0] != list[3] {
		t.Fatalf("waiting list changed: %v", got)
	}
	if b.Slots() != beforeSlots {
		t.Fatalf("slots mutated")
	}
	if list[3].State != StateWaiting || b.AvailableSlots() != 0 {
		t.Fatalf("state=%s available=%d", list[3].State, b.AvailableSlots())
	}
}

func TestBook_PinErrors(t *testing.T) {
	b := NewBook(nil)
	a := newOrder("A")
	b.SetOrders([]*Order{a})
	if _, err := b.Pin(nil); !errors.Is(err, ErrNilOrder) {
		t.Fatalf("nil: %v", err)
	}
	if _, err := b.Pin(newOrder("stranger")); !errors.Is(err, ErrNotWaiting) {
		t.Fatalf("stranger: %v", err)
	}
	slot, _ := b.Pin(a)
	again, err := b.Pin(a)
	if !errors.Is(err, ErrAlreadyPinned) || again != slot {
		t.Fatalf("repin: slot=%d err=%v", again, err)
	}
	if len(b.Pinned()) != 1 || b.SlotOf(a) != slot || !b.IsPinned(a) {
		t.Fatalf("order pinned twice")
	}
}

func TestBook_CompleteRequiresPinned(t *testing.T) {
	b := NewBook(nil)
	a := newOrder("A")
	b.SetOrders([]*Order{a})
	if b.Complete(a) {
		t.Fatalf("waiting order must not complete")
	}
	if b.Complete(nil) {
		t.Fatalf("nil must not complete")
	}
	b.Pin(a)
	if !b.Complete(a) || a.State != StateCompleted {
		t.Fatalf("pinned order must complete")
	}
	if b.IsPinned(a) || b.SlotOf(a) != -1 || len(b.Completed()) != 1 {
		t.Fatalf("slot not cleared")
	}
	if b.Complete(a) {
		t.Fatalf("double complete")
	}
}

func TestBook_TickFloorsAtZero(t *testing.T) {
	b := NewBook(nil)
	a, w := newOrder("A"), newOrder("W")
	b.SetOrders([]*Order{a, w})
	b.Pin(a)

	if got := b.Tick(4 * time.Second); len(got) != 0 || a.Remaining != 6*time.Second {
		t.Fatalf("remaining=%v expired=%v", a.Remaining, got)
	}
	got := b.Tick(7 * time.Second)
	if len(got) != 1 || got[0] != a || a.Remaining != 0 || !a.Expired() {
		t.Fatalf("remaining=%v expired=%v", a.Remaining, got)
	}
	if got := b.Tick(time.Second); len(got) != 0 {
		t.Fatalf("expiry must be reported once")
	}
	if !b.IsPinned(a) {
		t.Fatalf("tick must not vacate slots")
	}
	if w.Remaining != 10*time.Second {
		t.Fatalf("waiting orders do not tick")
	}
	if !b.Expire(a) || a.State != StateExpired || len(b.Expired()) != 1 || b.AvailableSlots() != NumSlots {
		t.Fatalf("expire failed")
	}
}

func TestBook_SetOrdersResetsProgress(t *testing.T) {
	b := NewBook(nil)
	a := newOrder("A", Item{Species: anatomy.Cat, Part: anatomy.Foot, Quantity: 2, Delivered: 2})
	a.Remaining = time.Second
	b.SetOrders([]*Order{a, nil, a})
	if len(b.Waiting()) != 1 {
		t.Fatalf("nil and duplicate entries must be skipped")
	}
	if a.Items[0].Delivered != 0 || a.Remaining != a.TimeLimit || a.State != StateWaiting {
		t.Fatalf("order not reset: %+v", a)
	}
	b.SetOrders(nil)
	if len(b.Waiting()) != 0 || len(b.Pinned()) != 0 {
		t.Fatalf("nil list must give an empty day")
	}
}

func TestOrder_NoItemsIsComplete(t *testing.T) {
	o := &Order{ID: "empty"}
	if !o.Complete() {
		t.Fatalf("an order without items is complete")
	}
}

func TestBook_FindCoversEveryList(t *testing.T) {
	b := NewBook(nil)
	a, c, e, w := newOrder("A"), newOrder("C"), newOrder("E"), newOrder("W")
	b.SetOrders([]*Order{a, c, e, w})
	b.Pin(a)
	b.Pin(c)
	b.Pin(e)
	b.Complete(c)
	b.Expire(e)

	for _, o := range []*Order{a, c, e, w} {
		if got := b.Find(o.ID); got != o {
			t.Fatalf("Find(%s)=%v", o.ID, got)
		}
	}
	if b.Find("nope") != nil {
		t.Fatalf("unknown id must not resolve")
	}
	for _, o := range []*Order{c, e} {
		if _, err := b.Pin(o); !errors.Is(err, ErrNotWaiting) {
			t.Fatalf("re-pin %s: %v", o.ID, err)
		}
	}
}
