package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"slicehouse.ai/internal/sim/shop"
)

const hourLayout = "2006-01-02-15"

// segment is one open <prefix>-<hour>.jsonl.zst file.
type segment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	enc  *json.Encoder
}

func openSegment(path, hour string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	buf := bufio.NewWriterSize(zw, 128*1024)
	return &segment{hour: hour, f: f, zw: zw, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (s *segment) close() error {
	return errors.Join(s.buf.Flush(), s.zw.Close(), s.f.Close())
}

// JSONLZstdWriter appends JSON records to zstd-compressed JSONL files, one
// file per UTC hour. Every record reaches the encoder before Append returns.
type JSONLZstdWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu    sync.Mutex
	cur   *segment
	lines uint64
}

func NewJSONLZstdWriter(dir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) Append(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format(hourLayout)
	if w.cur == nil || w.cur.hour != hour {
		if err := w.closeLocked(); err != nil {
			return err
		}
		seg, err := openSegment(filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour)), hour)
		if err != nil {
			return err
		}
		w.cur = seg
	}
	// Encode writes the trailing newline.
	if err := w.cur.enc.Encode(v); err != nil {
		return err
	}
	if err := w.cur.buf.Flush(); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Lines reports how many records were appended since the writer was created.
func (w *JSONLZstdWriter) Lines() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) closeLocked() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.close()
	w.cur = nil
	return err
}

// TickLogger is the shop's event log: one entry per tick under
// <shopDir>/events/events-YYYY-MM-DD-HH.jsonl.zst. It is the source of truth
// for replay.
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(shopDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(EventsDir(shopDir), "events")}
}

func (l *TickLogger) WriteTick(e shop.TickLogEntry) error { return l.w.Append(e) }
func (l *TickLogger) Close() error                        { return l.w.Close() }

func EventsDir(shopDir string) string { return filepath.Join(shopDir, "events") }

// TickFiles lists the event files in dir in write order.
func TickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	// Hour stamps sort lexically.
	sort.Strings(out)
	return out, nil
}

// ErrStop ends ScanTicks early without an error.
var ErrStop = errors.New("stop scan")

// ScanTicks decodes every entry of one event file in order and hands it to
// fn. Returning ErrStop from fn ends the scan cleanly.
func ScanTicks(path string, fn func(shop.TickLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for line := 1; sc.Scan(); line++ {
		var e shop.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		if err := fn(e); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return sc.Err()
}
