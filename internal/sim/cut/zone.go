package cut

import "slicehouse.ai/internal/sim/anatomy"

// Meta describes the cut that moved a zone (or a segment's parent cut) to Cut.
type Meta struct {
	Precision anatomy.Precision `json:"precision"`
	Tool      anatomy.Tool      `json:"tool"`
	Joint     anatomy.Joint     `json:"joint"`
}

// Zone is one severable joint on a body. It moves Intact -> Cut once per round.
type Zone struct {
	ID anatomy.CutID

	accepts uint8 // bitmask over anatomy.Precision; zero accepts everything
	cut     bool
	meta    Meta
}

func NewZone(id anatomy.CutID, accepts ...anatomy.Precision) *Zone {
	z := &Zone{ID: id}
	for _, p := range accepts {
		z.accepts |= 1 << p
	}
	return z
}

// Accepts reports whether a hit of this precision class lands on the zone.
func (z *Zone) Accepts(p anatomy.Precision) bool {
	if !p.Valid() {
		return false
	}
	return z.accepts == 0 || z.accepts&(1<<p) != 0
}

// MarkCut moves the zone to Cut. Only the first call records metadata and
// returns true; repeats are no-ops.
func (z *Zone) MarkCut(p anatomy.Precision, tool anatomy.Tool) bool {
	if z.cut {
		return false
	}
	z.cut = true
	z.meta = Meta{Precision: p, Tool: tool, Joint: z.ID.Joint}
	return true
}

func (z *Zone) IsCut() bool { return z.cut }

// Meta returns the metadata of the transitioning cut; zero while intact.
func (z *Zone) Meta() Meta { return z.meta }
