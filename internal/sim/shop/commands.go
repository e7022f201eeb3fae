package shop

import (
	"errors"
	"fmt"

	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/body"
	"slicehouse.ai/internal/sim/cut"
	"slicehouse.ai/internal/sim/orders"
)

var (
	ErrBadCommand    = errors.New("bad command")
	ErrUnknownBody   = errors.New("unknown body")
	ErrDuplicateBody = errors.New("body already on the table")
	ErrUnknownOrder  = errors.New("unknown order")
	ErrUnknownDay    = errors.New("unknown day")
)

// CodeFor maps a command error to its protocol error code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownBody):
		return protocol.ErrUnknownBody
	case errors.Is(err, ErrUnknownOrder):
		return protocol.ErrUnknownOrder
	case errors.Is(err, orders.ErrNoSlot):
		return protocol.ErrNoSlot
	case errors.Is(err, orders.ErrAlreadyPinned):
		return protocol.ErrAlreadyPinned
	case errors.Is(err, orders.ErrNotWaiting):
		return protocol.ErrNotWaiting
	case errors.Is(err, ErrBadCommand), errors.Is(err, ErrDuplicateBody), errors.Is(err, ErrUnknownDay), errors.Is(err, orders.ErrNilOrder):
		return protocol.ErrBadRequest
	default:
		return protocol.ErrInternal
	}
}

func (s *Shop) apply(c protocol.CmdMsg, nowTick uint64) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          c.CmdID,
		Accepted:        true,
		Tick:            nowTick,
	}
	var err error
	switch c.Cmd {
	case protocol.CmdCut:
		err = s.cmdCut(c)
	case protocol.CmdSpawn:
		s.flushCuts()
		err = s.cmdSpawn(c)
	case protocol.CmdDeposit:
		s.flushCuts()
		s.cmdDeposit(nowTick)
	case protocol.CmdDiscard:
		s.flushCuts()
		s.stats.PartsWasted += s.tray.Discard()
	case protocol.CmdPin:
		s.flushCuts()
		err = s.cmdPin(c)
	case protocol.CmdStartDay:
		s.flushCuts()
		err = s.startDay(c.Day)
	default:
		err = fmt.Errorf("%w: unknown cmd %q", ErrBadCommand, c.Cmd)
	}
	if err != nil {
		ack.Accepted = false
		ack.Code = CodeFor(err)
		ack.Message = err.Error()
	}
	return ack
}

func (s *Shop) cmdSpawn(c protocol.CmdMsg) error {
	sp, err := anatomy.ParseSpecies(c.Species)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	id := c.BodyID
	if id == "" {
		s.nextBodyNum++
		id = fmt.Sprintf("B%06d", s.nextBodyNum)
	}
	if _, ok := s.bodies[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, id)
	}
	s.bodies[id] = body.New(id, sp, nil, traySink{s}, s.log)
	return nil
}

// cmdCut queues the cut on the router; it is applied at the next flush.
func (s *Shop) cmdCut(c protocol.CmdMsg) error {
	if _, ok := s.bodies[c.BodyID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBody, c.BodyID)
	}
	ev := cut.Event{BodyID: c.BodyID, Hit: cut.Vec3{X: c.Hit[0], Y: c.Hit[1], Z: c.Hit[2]}}
	var err error
	if ev.Limb, err = anatomy.ParseLimb(c.Limb); err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	if ev.Joint, err = anatomy.ParseJoint(c.Joint); err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	if ev.Precision, err = anatomy.ParsePrecision(c.Precision); err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	if ev.Tool, err = anatomy.ParseTool(c.Tool); err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	s.router.Enqueue(ev)
	return nil
}

// flushCuts drains queued cuts so later commands see their parts.
func (s *Shop) flushCuts() { s.router.Drain() }

// dispatchCut routes a cut to the body it names. It runs before the
// precision handlers for the same event; dropped cuts are not counted as
// perfect or missed.
func (s *Shop) dispatchCut(ev cut.Event) {
	s.stats.Cuts++
	rec := CutRecord{BodyID: ev.BodyID, Limb: ev.Limb, Joint: ev.Joint, Precision: ev.Precision, Tool: ev.Tool}
	s.cutDropped = false
	tr := s.bodies[ev.BodyID]
	if tr == nil {
		s.log.Printf("shop %s: cut for unknown body %q; dropped", s.cfg.ID, ev.BodyID)
		rec.Dropped = true
		s.cutDropped = true
		s.stats.DroppedCuts++
		s.tickCuts = append(s.tickCuts, rec)
		return
	}
	if z := tr.Zone(anatomy.CutID{Limb: ev.Limb, Joint: ev.Joint}); z == nil || !z.Accepts(ev.Precision) {
		rec.Dropped = true
		s.cutDropped = true
		s.stats.DroppedCuts++
	}
	for _, p := range tr.Apply(ev) {
		rec.Severed = append(rec.Severed, p.Segment)
	}
	s.tickCuts = append(s.tickCuts, rec)
}

func (s *Shop) cmdDeposit(nowTick uint64) {
	sum := s.engine.Deposit()
	for _, o := range sum.Completed {
		s.completeOrder(o)
	}
	s.totalScore += sum.Score

	rec := DepositRecord{
		Allocations: sum.Allocations,
		Unmatched:   len(sum.Unmatched),
		Score:       sum.Score,
		Completed:   sum.CompletedIDs(),
	}
	s.tickDeposits = append(s.tickDeposits, rec)

	view := &protocol.DepositView{
		Tick:      nowTick,
		Matched:   sum.Matched,
		Unmatched: len(sum.Unmatched),
		Score:     sum.Score,
		Completed: rec.Completed,
	}
	for _, a := range sum.Allocations {
		view.Allocations = append(view.Allocations, protocol.AllocationView{
			Slot:    a.Slot,
			OrderID: a.OrderID,
			Item:    a.Item,
			Segment: a.Part.Segment.String(),
			Score:   a.Score,
		})
	}
	s.lastDeposit = view
}

func (s *Shop) completeOrder(o *orders.Order) {
	slot := s.book.SlotOf(o)
	if !s.book.Complete(o) {
		return
	}
	s.stats.OrdersCompleted++
	s.tickEvents = append(s.tickEvents, OrderEvent{OrderID: o.ID, Event: EventCompleted, Slot: slot})
}

func (s *Shop) cmdPin(c protocol.CmdMsg) error {
	o := s.book.Find(c.OrderID)
	if o == nil {
		return fmt.Errorf("%w: %q", ErrUnknownOrder, c.OrderID)
	}
	slot, err := s.book.Pin(o)
	if err != nil {
		return fmt.Errorf("pin %s: %w", o.ID, err)
	}
	s.tickEvents = append(s.tickEvents, OrderEvent{OrderID: o.ID, Event: EventPinned, Slot: slot})
	return nil
}

// startDay replaces the orders with the day's list and starts a fresh round:
// bodies, tray, score and stats are cleared.
func (s *Shop) startDay(day int) error {
	if s.cats == nil {
		return fmt.Errorf("%w: %d (no catalogs)", ErrUnknownDay, day)
	}
	list, err := s.cats.Orders(day)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownDay, err)
	}
	s.SetOrders(day, list)
	return nil
}

// SetOrders installs an explicit order list as a new round. It must only be
// called from the tick loop or before Run starts.
func (s *Shop) SetOrders(day int, list []*orders.Order) {
	s.book.SetOrders(list)
	s.day = day
	s.bodies = map[string]*body.Tracker{}
	s.tray.Discard()
	s.totalScore = 0
	s.stats = protocol.StatsView{}
	s.lastDeposit = nil
	s.state.Store(s.buildState(s.tick.Load()))
	s.log.Printf("shop %s: day %d started with %d orders", s.cfg.ID, day, len(s.book.Waiting()))
}
