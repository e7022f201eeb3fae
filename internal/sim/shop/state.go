package shop

import (
	"sort"

	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/orders"
)

func (s *Shop) buildState(nowTick uint64) protocol.StateMsg {
	st := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		ShopID:          s.cfg.ID,
		Tick:            nowTick,
		Day:             s.day,
		Slots:           make([]*protocol.OrderView, orders.NumSlots),
		Waiting:         []protocol.OrderView{},
		Completed:       orderIDs(s.book.Completed()),
		Expired:         orderIDs(s.book.Expired()),
		Tray:            []protocol.PartView{},
		Bodies:          []protocol.BodyView{},
		TotalScore:      s.totalScore,
		Stats:           s.stats,
	}
	for _, pn := range s.book.Pinned() {
		v := orderView(pn.Order, pn.Slot)
		st.Slots[pn.Slot] = &v
	}
	for _, o := range s.book.Waiting() {
		st.Waiting = append(st.Waiting, orderView(o, -1))
	}
	for _, p := range s.tray.Contents() {
		st.Tray = append(st.Tray, partView(p))
	}
	for _, id := range s.bodyIDs() {
		tr := s.bodies[id]
		st.Bodies = append(st.Bodies, protocol.BodyView{BodyID: id, Species: tr.Species().String(), Remaining: tr.Remaining()})
	}
	if s.lastDeposit != nil {
		d := *s.lastDeposit
		st.LastDeposit = &d
	}
	return st
}

func (s *Shop) bodyIDs() []string {
	ids := make([]string, 0, len(s.bodies))
	for id := range s.bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func orderView(o *orders.Order, slot int) protocol.OrderView {
	v := protocol.OrderView{
		ID:          o.ID,
		Customer:    o.Customer,
		Archetype:   o.Archetype.ID,
		Slot:        slot,
		State:       o.State.String(),
		RemainingMs: o.Remaining.Milliseconds(),
		TimeLimitMs: o.TimeLimit.Milliseconds(),
		Items:       make([]protocol.ItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, protocol.ItemView{
			Species:    it.Species.String(),
			Part:       it.Part.String(),
			Quantity:   it.Quantity,
			Delivered:  it.Delivered,
			MinQuality: it.MinQuality.String(),
		})
	}
	return v
}

func partView(p anatomy.Part) protocol.PartView {
	return protocol.PartView{
		BodyID:    p.BodyID,
		Species:   p.Species.String(),
		Segment:   p.Segment.String(),
		Part:      p.Type().String(),
		Quality:   p.Quality.String(),
		Precision: p.Precision.String(),
		Tool:      p.Tool.String(),
		Joint:     p.Joint.String(),
	}
}

func orderIDs(list []*orders.Order) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}
