package tray

import "slicehouse.ai/internal/sim/anatomy"

// Tray holds severed parts waiting to be deposited, in insertion order.
// It grows only through Add and shrinks only through Drain or Discard.
type Tray struct {
	parts []anatomy.Part
}

func New() *Tray { return &Tray{} }

func (t *Tray) Add(p anatomy.Part) { t.parts = append(t.parts, p) }

// Drain returns the full contents and empties the tray.
func (t *Tray) Drain() []anatomy.Part {
	out := t.parts
	t.parts = nil
	return out
}

// Discard empties the tray and reports how many parts were thrown away.
func (t *Tray) Discard() int {
	n := len(t.parts)
	t.parts = nil
	return n
}

func (t *Tray) Contents() []anatomy.Part { return append([]anatomy.Part(nil), t.parts...) }

func (t *Tray) Len() int { return len(t.parts) }
