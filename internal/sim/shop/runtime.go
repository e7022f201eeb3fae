package shop

import (
	"context"
	"encoding/json"
	"time"

	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/orders"
)

// TickLogEntry is the per-tick record written to the event log. Commands are
// stored exactly as applied so a replay can reproduce the digest.
type TickLogEntry struct {
	Tick        uint64            `json:"tick"`
	Commands    []protocol.CmdMsg `json:"commands,omitempty"`
	Cuts        []CutRecord       `json:"cuts,omitempty"`
	Deposits    []DepositRecord   `json:"deposits,omitempty"`
	OrderEvents []OrderEvent      `json:"order_events,omitempty"`
	Digest      string            `json:"digest"`
}

type CutRecord struct {
	BodyID    string                `json:"body_id"`
	Limb      anatomy.Limb          `json:"limb"`
	Joint     anatomy.Joint         `json:"joint"`
	Precision anatomy.Precision     `json:"precision"`
	Tool      anatomy.Tool          `json:"tool"`
	Dropped   bool                  `json:"dropped,omitempty"`
	Severed   []anatomy.SegmentType `json:"severed,omitempty"`
}

type DepositRecord struct {
	Allocations []orders.Allocation `json:"allocations,omitempty"`
	Unmatched   int                 `json:"unmatched"`
	Score       int                 `json:"score"`
	Completed   []string            `json:"completed,omitempty"`
}

// Order lifecycle events.
const (
	EventPinned    = "PINNED"
	EventCompleted = "COMPLETED"
	EventExpired   = "EXPIRED"
)

type OrderEvent struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
	Slot    int    `json:"slot"`
}

func (s *Shop) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	var pending []CommandEnvelope
	for {
		inbox := s.inbox
		if len(pending) >= s.cfg.MaxPending {
			inbox = nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case env := <-inbox:
			pending = append(pending, env)
		case <-ticker.C:
			n := len(pending)
			if s.cfg.CommandsPerTick > 0 && n > s.cfg.CommandsPerTick {
				n = s.cfg.CommandsPerTick
			}
			s.step(pending[:n])
			pending = append(pending[:0], pending[n:]...)
		}
	}
}

func (s *Shop) Stop() { close(s.stop) }

// StepOnce advances the shop by a single tick using the same ordering
// semantics as Run. It is intended for deterministic replays and tests.
func (s *Shop) StepOnce(cmds []protocol.CmdMsg) (tick uint64, digest string) {
	envs := make([]CommandEnvelope, 0, len(cmds))
	for _, c := range cmds {
		envs = append(envs, CommandEnvelope{Cmd: c})
	}
	tick = s.tick.Load()
	digest = s.step(envs)
	return tick, digest
}

// step applies one tick: commands in receive order, then the order book
// sweep, then timers. It returns the state digest for the tick.
func (s *Shop) step(envs []CommandEnvelope) string {
	nowTick := s.tick.Load()
	s.tickCuts = s.tickCuts[:0]
	s.tickDeposits = s.tickDeposits[:0]
	s.tickEvents = s.tickEvents[:0]

	recorded := make([]protocol.CmdMsg, 0, len(envs))
	for _, env := range envs {
		ack := s.apply(env.Cmd, nowTick)
		recorded = append(recorded, env.Cmd)
		if env.Resp != nil {
			select {
			case env.Resp <- ack:
			default:
			}
		}
	}
	s.flushCuts()

	// Orders with nothing left to deliver complete even without a deposit.
	for _, pn := range s.book.Pinned() {
		if pn.Order.Complete() {
			s.completeOrder(pn.Order)
		}
	}
	for _, o := range s.book.Tick(s.interval()) {
		slot := s.book.SlotOf(o)
		s.log.Printf("shop %s: order %s expired in slot %d", s.cfg.ID, o.ID, slot)
		if s.cfg.VacateExpired && s.book.Expire(o) {
			s.stats.OrdersExpired++
			s.tickEvents = append(s.tickEvents, OrderEvent{OrderID: o.ID, Event: EventExpired, Slot: slot})
		}
	}
	for id, tr := range s.bodies {
		if tr.Done() {
			delete(s.bodies, id)
		}
	}

	digest := s.stateDigest(nowTick)
	entry := TickLogEntry{
		Tick:        nowTick,
		Commands:    recorded,
		Cuts:        append([]CutRecord(nil), s.tickCuts...),
		Deposits:    append([]DepositRecord(nil), s.tickDeposits...),
		OrderEvents: append([]OrderEvent(nil), s.tickEvents...),
		Digest:      digest,
	}
	if s.tickLogger != nil {
		if err := s.tickLogger.WriteTick(entry); err != nil {
			s.log.Printf("shop %s: tick log: %v", s.cfg.ID, err)
		}
	}
	if s.index != nil {
		_ = s.index.WriteTick(entry)
	}

	s.tick.Add(1)
	s.publish(nowTick)
	return digest
}

func (s *Shop) publish(nowTick uint64) {
	st := s.buildState(nowTick)
	s.state.Store(st)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	b, err := json.Marshal(st)
	if err != nil {
		s.log.Printf("shop %s: marshal state: %v", s.cfg.ID, err)
		return
	}
	for _, ch := range s.subs {
		sendLatest(ch, b)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
