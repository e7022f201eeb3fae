package body

import (
	"io"
	"log"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/cut"
)

// PartSink receives severed parts the moment they isolate.
type PartSink interface {
	Add(p anatomy.Part)
}

type segmentState struct {
	present   bool
	root      bool
	parent    *cut.Zone
	children  []*cut.Zone
	meta      cut.Meta
	deposited bool
}

// SegmentView is a read-only copy of one segment's runtime record.
type SegmentView struct {
	Segment   anatomy.SegmentType
	Root      bool
	ParentCut bool
	ChildCuts int
	ChildDone int
	Meta      cut.Meta
	Deposited bool
}

// Tracker owns the cut state of one body and decides when segments isolate.
// It is not safe for concurrent use.
type Tracker struct {
	id      string
	species anatomy.Species
	top     *anatomy.Topology
	zones   map[anatomy.CutID]*cut.Zone
	segs    [anatomy.NumSegments]segmentState
	sink    PartSink
	log     *log.Logger
}

func New(id string, species anatomy.Species, top *anatomy.Topology, sink PartSink, logger *log.Logger) *Tracker {
	if top == nil {
		top = anatomy.DefaultTopology()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &Tracker{
		id:      id,
		species: species,
		top:     top,
		zones:   make(map[anatomy.CutID]*cut.Zone),
		sink:    sink,
		log:     logger,
	}
	for _, c := range top.Cuts() {
		t.zones[c] = cut.NewZone(c)
	}
	for _, s := range top.Segments() {
		st := &t.segs[s]
		st.present = true
		st.root = s == top.Root()
		if pc, ok := top.ParentCut(s); ok {
			st.parent = t.zones[pc]
		}
		for _, cc := range top.ChildCuts(s) {
			st.children = append(st.children, t.zones[cc])
		}
	}
	return t
}

func (t *Tracker) ID() string                  { return t.id }
func (t *Tracker) Species() anatomy.Species    { return t.species }
func (t *Tracker) Topology() *anatomy.Topology { return t.top }

// Zone returns the zone for a joint cut, or nil.
func (t *Tracker) Zone(c anatomy.CutID) *cut.Zone { return t.zones[c] }

// HandleCut implements cut.Handler. Events addressed to other bodies are
// ignored.
func (t *Tracker) HandleCut(ev cut.Event) {
	if ev.BodyID != t.id {
		return
	}
	t.Apply(ev)
}

func (t *Tracker) Channels() []cut.Channel { return []cut.Channel{cut.ChannelAny} }

// Apply processes one cut against this body and returns the parts it
// isolated, in segment order. An event that matches no zone is logged and
// dropped.
func (t *Tracker) Apply(ev cut.Event) []anatomy.Part {
	z := t.zones[anatomy.CutID{Limb: ev.Limb, Joint: ev.Joint}]
	if z == nil || !z.Accepts(ev.Precision) {
		t.log.Printf("body %s: no zone for %s/%s precision=%s; dropped", t.id, ev.Limb, ev.Joint, ev.Precision)
		return nil
	}
	z.MarkCut(ev.Precision, ev.Tool)

	meta := cut.Meta{Precision: ev.Precision, Tool: ev.Tool, Joint: ev.Joint}
	for i := range t.segs {
		st := &t.segs[i]
		if st.present && !st.deposited && st.parent == z {
			st.meta = meta
		}
	}

	var out []anatomy.Part
	for i := range t.segs {
		st := &t.segs[i]
		if !t.isolated(st) {
			continue
		}
		m := st.meta
		if st.root {
			// The root has no parent cut; it takes the cut that freed it.
			m = meta
		}
		p := anatomy.NewPart(t.id, t.species, anatomy.SegmentType(i), m.Precision, m.Tool, m.Joint)
		st.deposited = true
		if t.sink != nil {
			t.sink.Add(p)
		}
		out = append(out, p)
	}
	return out
}

func (t *Tracker) isolated(st *segmentState) bool {
	if !st.present || st.deposited {
		return false
	}
	if !st.root && (st.parent == nil || !st.parent.IsCut()) {
		return false
	}
	for _, c := range st.children {
		if !c.IsCut() {
			return false
		}
	}
	return true
}

func (t *Tracker) Segment(s anatomy.SegmentType) (SegmentView, bool) {
	if !s.Valid() || !t.segs[s].present {
		return SegmentView{}, false
	}
	st := &t.segs[s]
	v := SegmentView{
		Segment:   s,
		Root:      st.root,
		ParentCut: st.parent != nil && st.parent.IsCut(),
		ChildCuts: len(st.children),
		Meta:      st.meta,
		Deposited: st.deposited,
	}
	for _, c := range st.children {
		if c.IsCut() {
			v.ChildDone++
		}
	}
	return v, true
}

func (t *Tracker) Deposited(s anatomy.SegmentType) bool {
	return s.Valid() && t.segs[s].deposited
}

// Remaining counts segments that have not produced a part yet.
func (t *Tracker) Remaining() int {
	n := 0
	for i := range t.segs {
		if t.segs[i].present && !t.segs[i].deposited {
			n++
		}
	}
	return n
}

func (t *Tracker) Done() bool { return t.Remaining() == 0 }
