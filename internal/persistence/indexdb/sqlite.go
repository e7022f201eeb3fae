package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"slicehouse.ai/internal/sim/catalogs"
	"slicehouse.ai/internal/sim/orders"
	"slicehouse.ai/internal/sim/shop"
	"slicehouse.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable read model of the tick log. The JSONL event
// files stay the source of truth; rows here may be dropped under load.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan shop.TickLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed        atomic.Bool
	dropTickTotal atomic.Uint64
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTickTotal uint64 `json:"drop_tick_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan shop.TickLogEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			cuts INTEGER NOT NULL,
			deposits INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cuts (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			body_id TEXT NOT NULL,
			limb TEXT NOT NULL,
			joint TEXT NOT NULL,
			precision TEXT NOT NULL,
			tool TEXT NOT NULL,
			dropped INTEGER NOT NULL,
			severed INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cuts_body_tick ON cuts(body_id, tick);`,
		`CREATE TABLE IF NOT EXISTS allocations (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			order_id TEXT NOT NULL,
			item INTEGER NOT NULL,
			body_id TEXT NOT NULL,
			species TEXT NOT NULL,
			segment TEXT NOT NULL,
			quality TEXT NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_order ON allocations(order_id, tick);`,
		`CREATE TABLE IF NOT EXISTS order_events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			order_id TEXT NOT NULL,
			event TEXT NOT NULL,
			slot INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_order_events_order ON order_events(order_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry shop.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTickTotal.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTickTotal.Load(),
	}
}

// UpsertCatalogs records the catalogs and tuning the shop is running with,
// keyed by name, so rows in other tables can be tied back to content.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "archetypes.json")); err == nil && cats != nil {
			rows = append(rows, kv{name: "archetypes", digest: cats.Archetypes.Digest, json: b})
		}
	}
	if cats != nil {
		// Canonicalize days to stable JSON for easier querying.
		days := make([]catalogs.DayDef, 0, len(cats.Days.ByDay))
		for _, d := range cats.Days.ByDay {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
		if b, _ := json.Marshal(days); len(b) > 0 {
			rows = append(rows, kv{name: "days", digest: cats.Days.Digest, json: b})
		}
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		rows = append(rows, kv{name: "tuning", digest: TuningDigest(tune), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TuningDigest hashes the canonical JSON form of the applied tuning.
func TuningDigest(tune tuning.Tuning) string {
	b, _ := json.Marshal(tune)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,commands,cuts,deposits,raw_json) VALUES(?,?,?,?,?,?)`)
	insertCut, _ := s.db.Prepare(`INSERT OR REPLACE INTO cuts(tick,seq,body_id,limb,joint,precision,tool,dropped,severed) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertAlloc, _ := s.db.Prepare(`INSERT OR REPLACE INTO allocations(tick,seq,slot,order_id,item,body_id,species,segment,quality,score) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO order_events(tick,seq,order_id,event,slot) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertCut, insertAlloc, insertEvent} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for e := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		if err := writeEntry(tx, e, insertTick, insertCut, insertAlloc, insertEvent, &opCount); err != nil {
			rollback()
			continue
		}
		flushIfNeeded()
	}

	commit()
}

func writeEntry(tx *sql.Tx, e shop.TickLogEntry, insertTick, insertCut, insertAlloc, insertEvent *sql.Stmt, opCount *int) error {
	tick := int64(e.Tick)
	if insertTick != nil {
		raw, _ := json.Marshal(e)
		if _, err := tx.Stmt(insertTick).Exec(tick, e.Digest, len(e.Commands), len(e.Cuts), len(e.Deposits), string(raw)); err != nil {
			return err
		}
		*opCount++
	}
	if insertCut != nil {
		for i, c := range e.Cuts {
			if _, err := tx.Stmt(insertCut).Exec(tick, i, c.BodyID, c.Limb.String(), c.Joint.String(),
				c.Precision.String(), c.Tool.String(), boolInt(c.Dropped), len(c.Severed)); err != nil {
				return err
			}
			*opCount++
		}
	}
	if insertAlloc != nil {
		seq := 0
		for _, d := range e.Deposits {
			for _, a := range d.Allocations {
				if err := execAlloc(tx.Stmt(insertAlloc), tick, seq, a); err != nil {
					return err
				}
				seq++
				*opCount++
			}
		}
	}
	if insertEvent != nil {
		for i, ev := range e.OrderEvents {
			if _, err := tx.Stmt(insertEvent).Exec(tick, i, ev.OrderID, ev.Event, ev.Slot); err != nil {
				return err
			}
			*opCount++
		}
	}
	return nil
}

func execAlloc(st *sql.Stmt, tick int64, seq int, a orders.Allocation) error {
	_, err := st.Exec(tick, seq, a.Slot, a.OrderID, a.Item, a.Part.BodyID,
		a.Part.Species.String(), a.Part.Segment.String(), a.Part.Quality.String(), a.Score)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
