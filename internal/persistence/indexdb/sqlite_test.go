package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/catalogs"
	"slicehouse.ai/internal/sim/orders"
	"slicehouse.ai/internal/sim/shop"
	"slicehouse.ai/internal/sim/tuning"
)

func TestSQLiteIndex_WriteTick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	part := anatomy.NewPart("b1", anatomy.Cat, anatomy.LeftFoot, anatomy.Perfect, anatomy.Shears, anatomy.Ankle)
	entry := shop.TickLogEntry{
		Tick: 7,
		Cuts: []shop.CutRecord{
			{BodyID: "b1", Limb: anatomy.LeftLeg, Joint: anatomy.Ankle, Precision: anatomy.Perfect, Tool: anatomy.Shears, Severed: []anatomy.SegmentType{anatomy.LeftFoot}},
			{BodyID: "b1", Limb: anatomy.LeftArm, Joint: anatomy.Knee, Dropped: true},
		},
		Deposits: []shop.DepositRecord{{
			Allocations: []orders.Allocation{{Slot: 0, OrderID: "A", Item: 0, Part: part, Score: 185}},
			Score:       185,
			Completed:   []string{"A"},
		}},
		OrderEvents: []shop.OrderEvent{{OrderID: "A", Event: shop.EventCompleted, Slot: 0}},
		Digest:      "abc",
	}
	if err := idx.WriteTick(entry); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.WriteTick(entry); err != nil {
		t.Fatalf("WriteTick after close must be a no-op: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var digest string
	var cuts int
	if err := db.QueryRow(`SELECT digest,cuts FROM ticks WHERE tick=7`).Scan(&digest, &cuts); err != nil {
		t.Fatalf("ticks: %v", err)
	}
	if digest != "abc" || cuts != 2 {
		t.Fatalf("tick row mismatch: digest=%q cuts=%d", digest, cuts)
	}

	var dropped int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cuts WHERE tick=7 AND dropped=1`).Scan(&dropped); err != nil {
		t.Fatalf("cuts: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("dropped=%d", dropped)
	}

	var (
		orderID, segment, quality string
		score                     int
	)
	if err := db.QueryRow(`SELECT order_id,segment,quality,score FROM allocations WHERE tick=7 AND seq=0`).Scan(&orderID, &segment, &quality, &score); err != nil {
		t.Fatalf("allocations: %v", err)
	}
	if orderID != "A" || segment != "LEFT_FOOT" || quality != "PERFECT" || score != 185 {
		t.Fatalf("allocation row mismatch: %s %s %s %d", orderID, segment, quality, score)
	}

	var event string
	if err := db.QueryRow(`SELECT event FROM order_events WHERE order_id='A'`).Scan(&event); err != nil {
		t.Fatalf("order_events: %v", err)
	}
	if event != shop.EventCompleted {
		t.Fatalf("event=%q", event)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	cats, err := catalogs.Load(t.TempDir())
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	tune := tuning.Defaults()
	if err := idx.UpsertCatalogs("", cats, tune); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	rows := map[string]string{}
	rs, err := db.Query(`SELECT name,digest FROM catalogs`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rs.Close()
	for rs.Next() {
		var name, digest string
		if err := rs.Scan(&name, &digest); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		rows[name] = digest
	}
	if rows["tuning"] != TuningDigest(tune) {
		t.Fatalf("tuning digest mismatch: %v", rows)
	}
	if rows["days"] != cats.Days.Digest {
		t.Fatalf("days digest mismatch: %v", rows)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan shop.TickLogEntry, 1)}
	s.ch <- shop.TickLogEntry{Tick: 1}

	_ = s.WriteTick(shop.TickLogEntry{Tick: 2})

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
