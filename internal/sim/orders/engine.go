package orders

import (
	"io"
	"log"

	"slicehouse.ai/internal/sim/anatomy"
)

// PartTray is the tray surface the engine needs.
type PartTray interface {
	Add(p anatomy.Part)
	Drain() []anatomy.Part
}

// Engine runs deposits against an order book. Its collaborators are passed
// in; nothing is looked up globally.
type Engine struct {
	book   *Book
	tray   PartTray
	scorer Scorer
	log    *log.Logger
}

func NewEngine(book *Book, tray PartTray, scorer Scorer, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{book: book, tray: tray, scorer: scorer, log: logger}
}

// Deposit drains the tray, allocates the snapshot against the pinned orders
// and puts unmatched parts back in their original order. Completed orders
// keep their slots; the caller completes them from the summary.
func (e *Engine) Deposit() Summary {
	parts := e.tray.Drain()
	if len(parts) == 0 {
		return Summary{}
	}
	pinned := e.book.Pinned()
	sum := Allocate(parts, pinned, e.scorer)
	for _, p := range sum.Unmatched {
		e.tray.Add(p)
	}
	if len(pinned) == 0 {
		e.log.Printf("orders: deposit with no pinned orders; %d parts left on tray", len(parts))
	}
	return sum
}
