package cut

import (
	"testing"

	"slicehouse.ai/internal/sim/anatomy"
)

func TestZone_MarkCutIdempotent(t *testing.T) {
	z := NewZone(anatomy.CutID{Limb: anatomy.LeftArm, Joint: anatomy.Wrist})
	if z.IsCut() {
		t.Fatalf("new zone must be intact")
	}
	if !z.MarkCut(anatomy.MissEarly, anatomy.Knife) {
		t.Fatalf("first mark must transition")
	}
	first := z.Meta()
	if z.MarkCut(anatomy.Perfect, anatomy.Saw) {
		t.Fatalf("second mark must be a no-op")
	}
	if !z.IsCut() || z.Meta() != first {
		t.Fatalf("state changed on repeat: %+v vs %+v", z.Meta(), first)
	}
	if first.Joint != anatomy.Wrist || first.Tool != anatomy.Knife {
		t.Fatalf("unexpected meta %+v", first)
	}
}

func TestZone_Accepts(t *testing.T) {
	open := NewZone(anatomy.CutID{Joint: anatomy.Neck})
	if !open.Accepts(anatomy.MissLate) || !open.Accepts(anatomy.Perfect) {
		t.Fatalf("default zone accepts all precisions")
	}
	strict := NewZone(anatomy.CutID{Joint: anatomy.Neck}, anatomy.Perfect)
	if strict.Accepts(anatomy.MissEarly) || !strict.Accepts(anatomy.Perfect) {
		t.Fatalf("strict zone accepts only perfect")
	}
	if open.Accepts(anatomy.Precision(9)) {
		t.Fatalf("invalid precision must not be accepted")
	}
}

type recorder struct {
	name  string
	chans []Channel
	log   *[]string
}

func (r recorder) HandleCut(ev Event)  { *r.log = append(*r.log, r.name+":"+ev.BodyID) }
func (r recorder) Channels() []Channel { return r.chans }

func TestRouter_ChannelsAndOrder(t *testing.T) {
	var got []string
	r := NewRouter()
	r.Register(recorder{name: "perfect", chans: []Channel{ChannelPerfect}, log: &got})
	r.Register(recorder{name: "any", chans: []Channel{ChannelAny}, log: &got})
	r.Register(recorder{name: "miss", chans: []Channel{ChannelMiss}, log: &got})
	r.Register(recorder{name: "both", chans: []Channel{ChannelPerfect, ChannelMiss}, log: &got})

	r.Publish(Event{BodyID: "b1", Precision: anatomy.Perfect})
	r.Publish(Event{BodyID: "b2", Precision: anatomy.MissLate})

	want := []string{"any:b1", "perfect:b1", "both:b1", "any:b2", "miss:b2", "both:b2"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %v want %v", i, got, want)
		}
	}
}

func TestRouter_DrainFIFO(t *testing.T) {
	var got []string
	r := NewRouter()
	r.Register(HandlerFunc{Channel: ChannelAny, Fn: func(ev Event) { got = append(got, ev.BodyID) }})
	r.Enqueue(Event{BodyID: "1"})
	r.Enqueue(Event{BodyID: "2"})
	r.Enqueue(Event{BodyID: "3"})
	if r.Pending() != 3 || len(got) != 0 {
		t.Fatalf("enqueue must not deliver")
	}
	if n := r.Drain(); n != 3 {
		t.Fatalf("drained %d", n)
	}
	if len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Fatalf("order %v", got)
	}
	if r.Pending() != 0 {
		t.Fatalf("queue not empty")
	}
}
