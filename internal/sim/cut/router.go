package cut

import "slicehouse.ai/internal/sim/anatomy"

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Event is one player cut as reported by the hit-detection collaborator.
type Event struct {
	BodyID    string            `json:"body_id"`
	Limb      anatomy.Limb      `json:"limb"`
	Joint     anatomy.Joint     `json:"joint"`
	Precision anatomy.Precision `json:"precision"`
	Tool      anatomy.Tool      `json:"tool"`
	Hit       Vec3              `json:"hit"`
}

type Channel uint8

const (
	ChannelAny Channel = iota
	ChannelPerfect
	ChannelMiss
	numChannels
)

// Handler receives routed cut events.
type Handler interface {
	HandleCut(ev Event)
	// Channels lists the channels the handler subscribes to.
	Channels() []Channel
}

// HandlerFunc adapts a function subscribed to a single channel.
type HandlerFunc struct {
	Channel Channel
	Fn      func(Event)
}

func (h HandlerFunc) HandleCut(ev Event)  { h.Fn(ev) }
func (h HandlerFunc) Channels() []Channel { return []Channel{h.Channel} }

// Router fans cut events out by precision.
//
// Dispatch is synchronous and single-threaded: for each event every Any
// handler runs first, then the Perfect or Miss handlers, each group in
// registration order. The router never marks zones itself.
type Router struct {
	handlers [numChannels][]Handler
	pending  []Event
}

func NewRouter() *Router { return &Router{} }

func (r *Router) Register(h Handler) {
	for _, c := range h.Channels() {
		if c < numChannels {
			r.handlers[c] = append(r.handlers[c], h)
		}
	}
}

func (r *Router) Publish(ev Event) {
	for _, h := range r.handlers[ChannelAny] {
		h.HandleCut(ev)
	}
	c := ChannelMiss
	if ev.Precision.IsPerfect() {
		c = ChannelPerfect
	}
	for _, h := range r.handlers[c] {
		h.HandleCut(ev)
	}
}

// Enqueue buffers an event until the owner calls Drain.
func (r *Router) Enqueue(ev Event) { r.pending = append(r.pending, ev) }

// Drain publishes every queued event in FIFO order and returns how many were
// delivered. Events enqueued by handlers during the drain are delivered in
// the same call.
func (r *Router) Drain() int {
	n := 0
	for len(r.pending) > 0 {
		ev := r.pending[0]
		r.pending = r.pending[1:]
		r.Publish(ev)
		n++
	}
	r.pending = nil
	return n
}

func (r *Router) Pending() int { return len(r.pending) }

func (r *Router) HandlerCount(c Channel) int {
	if c >= numChannels {
		return 0
	}
	return len(r.handlers[c])
}
