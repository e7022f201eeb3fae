package orders

import (
	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/scoring"
)

// Scorer prices one delivered part.
type Scorer interface {
	Score(p anatomy.Part, req scoring.Requirement, a scoring.Archetype) int
}

type Allocation struct {
	Slot    int          `json:"slot"`
	OrderID string       `json:"order_id"`
	Item    int          `json:"item"`
	Part    anatomy.Part `json:"part"`
	Score   int          `json:"score"`
	Order   *Order       `json:"-"`
}

type Summary struct {
	Matched     int            `json:"matched"`
	Allocations []Allocation   `json:"allocations,omitempty"`
	Unmatched   []anatomy.Part `json:"unmatched,omitempty"`
	// Completed lists orders that became fully delivered during this call.
	Completed []*Order `json:"-"`
	Score     int      `json:"score"`
}

// CompletedIDs lists the ids of orders completed by the batch.
func (s Summary) CompletedIDs() []string {
	out := make([]string, 0, len(s.Completed))
	for _, o := range s.Completed {
		out = append(out, o.ID)
	}
	return out
}

// Allocate routes parts into pinned orders first-fit: parts in tray order,
// orders by slot, items in list order. A part fills at most one unit; parts
// nothing wants come back in Unmatched. Item progress is mutated in place;
// slots are left alone.
func Allocate(parts []anatomy.Part, pinned []Pinned, sc Scorer) Summary {
	var sum Summary
	wasComplete := make([]bool, len(pinned))
	for i, pn := range pinned {
		wasComplete[i] = pn.Order == nil || pn.Order.Complete()
	}

	for _, p := range parts {
		if !place(p, pinned, sc, &sum) {
			sum.Unmatched = append(sum.Unmatched, p)
		}
	}

	for i, pn := range pinned {
		if !wasComplete[i] && pn.Order.Complete() {
			sum.Completed = append(sum.Completed, pn.Order)
		}
	}
	return sum
}

func place(p anatomy.Part, pinned []Pinned, sc Scorer, sum *Summary) bool {
	for _, pn := range pinned {
		o := pn.Order
		if o == nil || o.Complete() {
			continue
		}
		for i := range o.Items {
			it := &o.Items[i]
			if it.Complete() || !it.Matches(p) {
				continue
			}
			it.Delivered++
			score := 0
			if sc != nil {
				score = sc.Score(p, scoring.Requirement{MinQuality: it.MinQuality}, o.Archetype.scoring())
			}
			sum.Matched++
			sum.Score += score
			sum.Allocations = append(sum.Allocations, Allocation{
				Slot:    pn.Slot,
				OrderID: o.ID,
				Item:    i,
				Part:    p,
				Score:   score,
				Order:   o,
			})
			return true
		}
	}
	return false
}
