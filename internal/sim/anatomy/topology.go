package anatomy

import (
	"errors"
	"fmt"
)

// Edge binds one joint cut to the child segment it separates from its parent.
type Edge struct {
	Cut    CutID
	Child  SegmentType
	Parent SegmentType
}

// Topology is the static cut-dependency tree of a body. It is never mutated
// after construction.
type Topology struct {
	root     SegmentType
	segments []SegmentType
	byCut    map[CutID]Edge
	cuts     []CutID

	present   [NumSegments]bool
	hasParent [NumSegments]bool
	parentCut [NumSegments]CutID
	childCuts [NumSegments][]CutID
}

var ErrBadTopology = errors.New("invalid topology")

func NewTopology(root SegmentType, edges []Edge) (*Topology, error) {
	if !root.Valid() {
		return nil, fmt.Errorf("%w: root %s out of range", ErrBadTopology, root)
	}
	t := &Topology{
		root:  root,
		byCut: make(map[CutID]Edge, len(edges)),
		cuts:  make([]CutID, 0, len(edges)),
	}
	t.present[root] = true

	for _, e := range edges {
		if !e.Child.Valid() || !e.Parent.Valid() || !e.Cut.Limb.Valid() || !e.Cut.Joint.Valid() {
			return nil, fmt.Errorf("%w: edge %s out of range", ErrBadTopology, e.Cut)
		}
		if e.Child == root {
			return nil, fmt.Errorf("%w: root %s cannot have a parent cut", ErrBadTopology, root)
		}
		if e.Child == e.Parent {
			return nil, fmt.Errorf("%w: %s is its own parent", ErrBadTopology, e.Child)
		}
		if _, dup := t.byCut[e.Cut]; dup {
			return nil, fmt.Errorf("%w: duplicate cut %s", ErrBadTopology, e.Cut)
		}
		if t.hasParent[e.Child] {
			return nil, fmt.Errorf("%w: %s has two parent cuts", ErrBadTopology, e.Child)
		}
		t.byCut[e.Cut] = e
		t.cuts = append(t.cuts, e.Cut)
		t.hasParent[e.Child] = true
		t.parentCut[e.Child] = e.Cut
		t.childCuts[e.Parent] = append(t.childCuts[e.Parent], e.Cut)
		t.present[e.Child] = true
		t.present[e.Parent] = true
	}

	// Every segment must hang off the root through parent cuts.
	for s := SegmentType(0); int(s) < NumSegments; s++ {
		if !t.present[s] {
			continue
		}
		if s != root && !t.hasParent[s] {
			return nil, fmt.Errorf("%w: %s has no parent cut", ErrBadTopology, s)
		}
		seen := 0
		for cur := s; cur != root; cur = t.byCut[t.parentCut[cur]].Parent {
			if seen++; seen > NumSegments {
				return nil, fmt.Errorf("%w: cycle through %s", ErrBadTopology, s)
			}
			if !t.hasParent[cur] {
				return nil, fmt.Errorf("%w: %s not connected to root %s", ErrBadTopology, s, root)
			}
		}
		t.segments = append(t.segments, s)
	}
	return t, nil
}

// DefaultTopology is the full 15-segment body rooted at the upper torso.
func DefaultTopology() *Topology {
	t, err := NewTopology(UpperTorso, defaultEdges())
	if err != nil {
		panic(err)
	}
	return t
}

func defaultEdges() []Edge {
	edges := []Edge{
		{Cut: CutID{LimbNone, Neck}, Child: Head, Parent: UpperTorso},
		{Cut: CutID{LimbNone, TorsoMiddle}, Child: LowerTorso, Parent: UpperTorso},
	}
	arm := func(l Limb, upper, fore, hand SegmentType) {
		edges = append(edges,
			Edge{Cut: CutID{l, Shoulder}, Child: upper, Parent: UpperTorso},
			Edge{Cut: CutID{l, Elbow}, Child: fore, Parent: upper},
			Edge{Cut: CutID{l, Wrist}, Child: hand, Parent: fore},
		)
	}
	leg := func(l Limb, thigh, shin, foot SegmentType) {
		edges = append(edges,
			Edge{Cut: CutID{l, Hip}, Child: thigh, Parent: LowerTorso},
			Edge{Cut: CutID{l, Knee}, Child: shin, Parent: thigh},
			Edge{Cut: CutID{l, Ankle}, Child: foot, Parent: shin},
		)
	}
	arm(LeftArm, LeftUpperArm, LeftForearm, LeftHand)
	arm(RightArm, RightUpperArm, RightForearm, RightHand)
	leg(LeftLeg, LeftThigh, LeftShin, LeftFoot)
	leg(RightLeg, RightThigh, RightShin, RightFoot)
	return edges
}

func (t *Topology) Root() SegmentType { return t.root }

// Segments lists the defined segments in ordinal order.
func (t *Topology) Segments() []SegmentType { return append([]SegmentType(nil), t.segments...) }

// Cuts lists every joint cut in declaration order.
func (t *Topology) Cuts() []CutID { return append([]CutID(nil), t.cuts...) }

func (t *Topology) Has(s SegmentType) bool { return s.Valid() && t.present[s] }

// Resolve maps a (limb, joint) pair to its edge. Pairs that name no defined
// joint report false.
func (t *Topology) Resolve(l Limb, j Joint) (Edge, bool) {
	e, ok := t.byCut[CutID{Limb: l, Joint: j}]
	return e, ok
}

func (t *Topology) ParentCut(s SegmentType) (CutID, bool) {
	if !s.Valid() || !t.hasParent[s] {
		return CutID{}, false
	}
	return t.parentCut[s], true
}

func (t *Topology) ChildCuts(s SegmentType) []CutID {
	if !s.Valid() {
		return nil
	}
	return append([]CutID(nil), t.childCuts[s]...)
}
