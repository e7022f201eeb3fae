package orders

import (
	"time"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/scoring"
)

// Archetype holds the per-customer modifiers.
type Archetype struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Patience         float64 `json:"patience"`
	PrecisionBias    float64 `json:"precision_bias"`
	SpeedBias        float64 `json:"speed_bias"`
	WasteSensitivity float64 `json:"waste_sensitivity"`
	TipMultiplier    float64 `json:"tip_multiplier"`
}

// NeutralArchetype scores parts at face value.
func NeutralArchetype() Archetype {
	return Archetype{ID: "neutral", Name: "Neutral", Patience: 1, PrecisionBias: 1, SpeedBias: 1, WasteSensitivity: 1, TipMultiplier: 1}
}

func (a Archetype) scoring() scoring.Archetype {
	return scoring.Archetype{TipMultiplier: a.TipMultiplier, PrecisionBias: a.PrecisionBias}
}

// Item is one line of an order. Delivered stays within [0, Quantity].
type Item struct {
	Species    anatomy.Species  `json:"species"`
	Part       anatomy.PartType `json:"part"`
	Quantity   int              `json:"quantity"`
	MinQuality anatomy.Quality  `json:"min_quality"`
	Delivered  int              `json:"delivered"`
}

func (it *Item) Complete() bool { return it.Delivered >= it.Quantity }

func (it *Item) Remaining() int {
	if it.Delivered >= it.Quantity {
		return 0
	}
	return it.Quantity - it.Delivered
}

// Matches applies the side-independent part mapping at match time.
func (it *Item) Matches(p anatomy.Part) bool {
	return it.Species == p.Species && it.Part == p.Type()
}

type State uint8

const (
	StateWaiting State = iota
	StatePinned
	StateCompleted
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StatePinned:
		return "PINNED"
	case StateCompleted:
		return "COMPLETED"
	case StateExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Order struct {
	ID        string        `json:"id"`
	Customer  string        `json:"customer"`
	Archetype Archetype     `json:"archetype"`
	TimeLimit time.Duration `json:"time_limit"`
	Remaining time.Duration `json:"remaining"`
	Items     []Item        `json:"items"`
	State     State         `json:"state"`
}

// Complete reports whether every item is fully delivered. An order without
// items is trivially complete.
func (o *Order) Complete() bool {
	for i := range o.Items {
		if !o.Items[i].Complete() {
			return false
		}
	}
	return true
}

func (o *Order) Expired() bool { return o.Remaining <= 0 }

// Progress returns delivered and requested unit totals.
func (o *Order) Progress() (delivered, requested int) {
	for i := range o.Items {
		delivered += o.Items[i].Delivered
		requested += o.Items[i].Quantity
	}
	return delivered, requested
}

func (o *Order) reset() {
	o.State = StateWaiting
	o.Remaining = o.TimeLimit
	for i := range o.Items {
		o.Items[i].Delivered = 0
	}
}
