package anatomy

import "fmt"

func (s Species) Valid() bool   { return s < numSpecies }
func (l Limb) Valid() bool      { return l < numLimbs }
func (j Joint) Valid() bool     { return j < numJoints }
func (p PartType) Valid() bool  { return p < numParts }
func (p Precision) Valid() bool { return p < numPrecisions }
func (q Quality) Valid() bool   { return q < numQualities }
func (t Tool) Valid() bool      { return t < numTools }

func (s SegmentType) Valid() bool { return int(s) < NumSegments }

var genericParts = [NumSegments]PartType{
	Head:          PartHead,
	UpperTorso:    Chest,
	LowerTorso:    Belly,
	LeftUpperArm:  UpperArm,
	RightUpperArm: UpperArm,
	LeftForearm:   Forearm,
	RightForearm:  Forearm,
	LeftHand:      Hand,
	RightHand:     Hand,
	LeftThigh:     Thigh,
	RightThigh:    Thigh,
	LeftShin:      Shin,
	RightShin:     Shin,
	LeftFoot:      Foot,
	RightFoot:     Foot,
}

// GenericPart collapses a side-specific segment to the part type orders use.
// Anything outside the segment range is Scrap.
func GenericPart(s SegmentType) PartType {
	if !s.Valid() {
		return Scrap
	}
	return genericParts[s]
}

// CutID names one severable joint: a limb and a position on it.
type CutID struct {
	Limb  Limb  `json:"limb"`
	Joint Joint `json:"joint"`
}

func (c CutID) String() string { return fmt.Sprintf("%s/%s", c.Limb, c.Joint) }

// Part is a severed segment. It is immutable once produced.
type Part struct {
	BodyID    string      `json:"body_id"`
	Species   Species     `json:"species"`
	Segment   SegmentType `json:"segment"`
	Quality   Quality     `json:"quality"`
	Precision Precision   `json:"precision"`
	Tool      Tool        `json:"tool"`
	Joint     Joint       `json:"joint"`
}

// Type is the generic part type, derived from the segment on every call.
func (p Part) Type() PartType { return GenericPart(p.Segment) }

func NewPart(bodyID string, species Species, seg SegmentType, p Precision, tool Tool, joint Joint) Part {
	return Part{
		BodyID:    bodyID,
		Species:   species,
		Segment:   seg,
		Quality:   QualityFor(p),
		Precision: p,
		Tool:      tool,
		Joint:     joint,
	}
}
