package shop

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/orders"
)

// stateDigest hashes the round state: orders with their archetypes, the
// tray, every body's zones and segment metadata, score and stats. Bodies are
// visited in id order so the result is independent of map iteration.
func (s *Shop) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, int64(s.day))
	digestWriteI64(h, &tmp, int64(s.totalScore))
	digestWriteU64(h, &tmp, s.nextBodyNum)

	for slot, o := range s.book.Slots() {
		if o == nil {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		digestWriteI64(h, &tmp, int64(slot))
		digestOrder(h, &tmp, o)
	}
	for _, list := range [][]*orders.Order{s.book.Waiting(), s.book.Completed(), s.book.Expired()} {
		digestWriteU64(h, &tmp, uint64(len(list)))
		for _, o := range list {
			digestOrder(h, &tmp, o)
		}
	}

	parts := s.tray.Contents()
	digestWriteU64(h, &tmp, uint64(len(parts)))
	for _, p := range parts {
		digestPart(h, p)
	}

	ids := s.bodyIDs()
	digestWriteU64(h, &tmp, uint64(len(ids)))
	for _, id := range ids {
		tr := s.bodies[id]
		h.Write([]byte(id))
		h.Write([]byte{0, byte(tr.Species())})
		for _, c := range tr.Topology().Cuts() {
			h.Write([]byte{byte(c.Limb), byte(c.Joint), boolByte(tr.Zone(c).IsCut())})
		}
		for _, seg := range tr.Topology().Segments() {
			v, _ := tr.Segment(seg)
			h.Write([]byte{byte(seg), boolByte(v.Deposited), byte(v.Meta.Precision), byte(v.Meta.Tool), byte(v.Meta.Joint)})
		}
	}

	st := s.stats
	for _, v := range []int{st.Cuts, st.PerfectCuts, st.MissCuts, st.DroppedCuts, st.PartsSevered, st.PartsWasted, st.OrdersCompleted, st.OrdersExpired} {
		digestWriteI64(h, &tmp, int64(v))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestOrder(h hash.Hash, tmp *[8]byte, o *orders.Order) {
	h.Write([]byte(o.ID))
	h.Write([]byte{0, byte(o.State)})
	digestWriteI64(h, tmp, int64(o.Remaining))
	digestWriteI64(h, tmp, int64(o.TimeLimit))
	a := o.Archetype
	h.Write([]byte(a.ID))
	h.Write([]byte{0})
	for _, f := range []float64{a.Patience, a.PrecisionBias, a.SpeedBias, a.WasteSensitivity, a.TipMultiplier} {
		digestWriteU64(h, tmp, math.Float64bits(f))
	}
	digestWriteU64(h, tmp, uint64(len(o.Items)))
	for _, it := range o.Items {
		h.Write([]byte{byte(it.Species), byte(it.Part), byte(it.MinQuality)})
		digestWriteI64(h, tmp, int64(it.Quantity))
		digestWriteI64(h, tmp, int64(it.Delivered))
	}
}

func digestPart(h hash.Hash, p anatomy.Part) {
	h.Write([]byte(p.BodyID))
	h.Write([]byte{0, byte(p.Species), byte(p.Segment), byte(p.Quality), byte(p.Precision), byte(p.Tool), byte(p.Joint)})
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
