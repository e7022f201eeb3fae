package shop

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/body"
	"slicehouse.ai/internal/sim/catalogs"
	"slicehouse.ai/internal/sim/cut"
	"slicehouse.ai/internal/sim/orders"
	"slicehouse.ai/internal/sim/scoring"
	"slicehouse.ai/internal/sim/tray"
	"slicehouse.ai/internal/sim/tuning"
)

type Config struct {
	ID         string
	TickRateHz int
	// VacateExpired frees the slot of a pinned order whose timer ran out.
	VacateExpired bool
	// CommandsPerTick caps how many queued commands Run applies per tick;
	// the rest wait for the next tick. Zero means no cap.
	CommandsPerTick int
	InboxSize       int
	// MaxPending bounds the commands Run holds back between ticks. Once it
	// is reached Run stops reading the inbox, so senders see it fill up.
	// Zero means InboxSize.
	MaxPending int
}

// ConfigFromTuning fills the runtime knobs that come from tuning.yaml.
func ConfigFromTuning(id string, t tuning.Tuning) Config {
	return Config{
		ID:              id,
		TickRateHz:      t.TickRateHz,
		VacateExpired:   t.VacateExpired,
		CommandsPerTick: t.RateLimits.CommandsPerTick,
		InboxSize:       1024,
	}
}

// CommandEnvelope carries one client command into the tick loop. Resp, when
// set, receives the ACK once the command was applied.
type CommandEnvelope struct {
	Cmd  protocol.CmdMsg
	Resp chan protocol.AckMsg
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// Index is the read-model sink. It must not block the tick loop.
type Index interface {
	WriteTick(entry TickLogEntry) error
}

// Shop owns one running butcher shop: the bodies on the table, the tray,
// the order book and the round score. All game state is touched only from
// the tick loop; State and Subscribe are safe from other goroutines.
type Shop struct {
	cfg    Config
	cats   *catalogs.Catalogs
	scorer *scoring.Calculator
	log    *log.Logger

	tick atomic.Uint64

	inbox chan CommandEnvelope
	stop  chan struct{}

	router *cut.Router
	bodies map[string]*body.Tracker
	tray   *tray.Tray
	book   *orders.Book
	engine *orders.Engine

	day         int
	nextBodyNum uint64
	totalScore  int
	stats       protocol.StatsView
	lastDeposit *protocol.DepositView
	cutDropped  bool // last dispatched cut hit no body or zone

	// Per-tick records, reset by step.
	tickCuts     []CutRecord
	tickDeposits []DepositRecord
	tickEvents   []OrderEvent

	tickLogger TickLogger
	index      Index

	subMu   sync.Mutex
	subs    map[uint64]chan []byte
	nextSub uint64

	state atomic.Value // protocol.StateMsg
}

func New(cfg Config, tune tuning.Tuning, cats *catalogs.Catalogs, logger *log.Logger) (*Shop, error) {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1024
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = cfg.InboxSize
	}
	if cfg.ID == "" {
		cfg.ID = "shop_1"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	sc, err := scoring.New(tune.Scoring)
	if err != nil {
		return nil, err
	}
	s := &Shop{
		cfg:    cfg,
		cats:   cats,
		scorer: sc,
		log:    logger,
		inbox:  make(chan CommandEnvelope, cfg.InboxSize),
		stop:   make(chan struct{}),
		router: cut.NewRouter(),
		bodies: map[string]*body.Tracker{},
		tray:   tray.New(),
		book:   orders.NewBook(logger),
		subs:   map[uint64]chan []byte{},
	}
	s.engine = orders.NewEngine(s.book, s.tray, sc, logger)

	s.router.Register(cut.HandlerFunc{Channel: cut.ChannelAny, Fn: s.dispatchCut})
	// Precision handlers see an event after dispatchCut, so cutDropped is set.
	s.router.Register(cut.HandlerFunc{Channel: cut.ChannelPerfect, Fn: func(cut.Event) {
		if !s.cutDropped {
			s.stats.PerfectCuts++
		}
	}})
	s.router.Register(cut.HandlerFunc{Channel: cut.ChannelMiss, Fn: func(cut.Event) {
		if !s.cutDropped {
			s.stats.MissCuts++
		}
	}})

	s.state.Store(s.buildState(0))
	return s, nil
}

func (s *Shop) SetTickLogger(l TickLogger) { s.tickLogger = l }
func (s *Shop) SetIndex(idx Index)         { s.index = idx }

// Inbox is where transports submit commands. Sends should not block; a full
// inbox means the shop is busy.
func (s *Shop) Inbox() chan<- CommandEnvelope { return s.inbox }

func (s *Shop) ID() string          { return s.cfg.ID }
func (s *Shop) TickRateHz() int     { return s.cfg.TickRateHz }
func (s *Shop) CurrentTick() uint64 { return s.tick.Load() }

func (s *Shop) interval() time.Duration {
	return time.Second / time.Duration(s.cfg.TickRateHz)
}

// State returns the snapshot published at the end of the last tick.
func (s *Shop) State() protocol.StateMsg {
	return s.state.Load().(protocol.StateMsg)
}

// Subscribe registers a state observer. Each tick the latest STATE message is
// offered to the channel; slow readers only ever see the newest one.
func (s *Shop) Subscribe() (uint64, <-chan []byte) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	ch := make(chan []byte, 1)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

func (s *Shop) Unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subs, id)
}

// traySink counts severed parts on their way to the tray.
type traySink struct{ s *Shop }

func (t traySink) Add(p anatomy.Part) {
	t.s.stats.PartsSevered++
	t.s.tray.Add(p)
}
