package orders

import (
	"errors"
	"io"
	"log"
	"time"
)

// NumSlots is the number of orders that can be worked at once.
const NumSlots = 3

var (
	ErrNilOrder      = errors.New("nil order")
	ErrNoSlot        = errors.New("no free slot")
	ErrAlreadyPinned = errors.New("order already pinned")
	ErrNotWaiting    = errors.New("order is not waiting")
)

// Pinned pairs an order with the slot it occupies.
type Pinned struct {
	Slot  int
	Order *Order
}

// Book owns the round's orders and the slot assignments. Every mutation
// re-checks that slots and the order->slot index agree.
type Book struct {
	waiting   []*Order
	slots     [NumSlots]*Order
	index     map[*Order]int
	completed []*Order
	expired   []*Order
	log       *log.Logger
}

func NewBook(logger *log.Logger) *Book {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Book{index: map[*Order]int{}, log: logger}
}

// SetOrders starts a new round: list replaces the waiting orders, and all
// pinned, completed and expired orders are forgotten. A nil or empty list
// yields a day with no orders.
func (b *Book) SetOrders(list []*Order) {
	b.waiting = nil
	b.slots = [NumSlots]*Order{}
	b.index = map[*Order]int{}
	b.completed = nil
	b.expired = nil

	seen := make(map[*Order]bool, len(list))
	for _, o := range list {
		if o == nil || seen[o] {
			continue
		}
		seen[o] = true
		o.reset()
		b.waiting = append(b.waiting, o)
	}
	b.verify("set_orders")
}

// Pin moves a waiting order into the lowest free slot. Pinning an order that
// is already pinned returns its slot together with ErrAlreadyPinned.
func (b *Book) Pin(o *Order) (int, error) {
	if o == nil {
		return -1, ErrNilOrder
	}
	if slot, ok := b.index[o]; ok {
		return slot, ErrAlreadyPinned
	}
	wi := b.waitingIndex(o)
	if wi < 0 {
		return -1, ErrNotWaiting
	}
	slot := -1
	for i := range b.slots {
		if b.slots[i] == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return -1, ErrNoSlot
	}
	b.slots[slot] = o
	b.index[o] = slot
	b.waiting = append(b.waiting[:wi:wi], b.waiting[wi+1:]...)
	o.State = StatePinned
	b.verify("pin")
	return slot, nil
}

// Complete vacates the order's slot and records it as completed.
func (b *Book) Complete(o *Order) bool {
	if !b.vacate(o, "complete") {
		return false
	}
	o.State = StateCompleted
	b.completed = append(b.completed, o)
	b.verify("complete")
	return true
}

// Expire vacates the slot of a pinned order whose timer ran out.
func (b *Book) Expire(o *Order) bool {
	if !b.vacate(o, "expire") {
		return false
	}
	o.State = StateExpired
	b.expired = append(b.expired, o)
	b.verify("expire")
	return true
}

func (b *Book) vacate(o *Order, op string) bool {
	if o == nil {
		b.log.Printf("orders: %s: nil order", op)
		return false
	}
	slot, ok := b.index[o]
	if !ok {
		b.log.Printf("orders: %s: order %s is not pinned", op, o.ID)
		return false
	}
	b.slots[slot] = nil
	delete(b.index, o)
	return true
}

// Tick counts down every pinned order, flooring at zero, and returns the
// orders whose timers reached zero during this call. Expired orders keep
// their slots; the caller decides whether to vacate them.
func (b *Book) Tick(dt time.Duration) []*Order {
	if dt <= 0 {
		return nil
	}
	var out []*Order
	for _, o := range b.slots {
		if o == nil || o.Remaining <= 0 {
			continue
		}
		o.Remaining -= dt
		if o.Remaining <= 0 {
			o.Remaining = 0
			out = append(out, o)
		}
	}
	return out
}

func (b *Book) Waiting() []*Order   { return append([]*Order(nil), b.waiting...) }
func (b *Book) Completed() []*Order { return append([]*Order(nil), b.completed...) }
func (b *Book) Expired() []*Order   { return append([]*Order(nil), b.expired...) }

// Slots returns the raw slot array; empty slots are nil.
func (b *Book) Slots() [NumSlots]*Order { return b.slots }

// Pinned lists pinned orders in slot order.
func (b *Book) Pinned() []Pinned {
	var out []Pinned
	for i, o := range b.slots {
		if o != nil {
			out = append(out, Pinned{Slot: i, Order: o})
		}
	}
	return out
}

func (b *Book) AvailableSlots() int {
	n := 0
	for _, o := range b.slots {
		if o == nil {
			n++
		}
	}
	return n
}

func (b *Book) IsPinned(o *Order) bool {
	_, ok := b.index[o]
	return ok
}

// SlotOf returns the slot holding o, or -1.
func (b *Book) SlotOf(o *Order) int {
	if slot, ok := b.index[o]; ok {
		return slot
	}
	return -1
}

// Find looks an order up by id in every list the book keeps: pinned,
// waiting, completed and expired.
func (b *Book) Find(id string) *Order {
	for _, o := range b.slots {
		if o != nil && o.ID == id {
			return o
		}
	}
	for _, list := range [][]*Order{b.waiting, b.completed, b.expired} {
		for _, o := range list {
			if o.ID == id {
				return o
			}
		}
	}
	return nil
}

func (b *Book) waitingIndex(o *Order) int {
	for i, w := range b.waiting {
		if w == o {
			return i
		}
	}
	return -1
}

func (b *Book) verify(op string) bool {
	n := 0
	for i, o := range b.slots {
		if o == nil {
			continue
		}
		n++
		if slot, ok := b.index[o]; !ok || slot != i {
			b.log.Printf("orders: %s: slot %d holds %s but index says %d (ok=%v)", op, i, o.ID, slot, ok)
			return false
		}
	}
	if n != len(b.index) {
		b.log.Printf("orders: %s: %d pinned slots but %d indexed orders", op, n, len(b.index))
		return false
	}
	return true
}
