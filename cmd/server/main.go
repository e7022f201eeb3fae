package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"slicehouse.ai/internal/persistence/indexdb"
	persistlog "slicehouse.ai/internal/persistence/log"
	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/catalogs"
	"slicehouse.ai/internal/sim/shop"
	"slicehouse.ai/internal/sim/tuning"
	"slicehouse.ai/internal/transport/observer"
	"slicehouse.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		shopID     = flag.String("shop", "shop_1", "shop id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read model")
		day        = flag.Int("day", 1, "day to open with (0 to wait for a START_DAY command)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	shopDir := filepath.Join(*dataDir, "shops", *shopID)
	if err := os.MkdirAll(shopDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	sh, err := shop.New(shop.ConfigFromTuning(*shopID, tune), tune, cats, logger)
	if err != nil {
		logger.Fatalf("shop: %v", err)
	}

	// Optional read model (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(shopDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		sh.SetIndex(idx)
	}

	tickLog := persistlog.NewTickLogger(shopDir)
	defer tickLog.Close()
	sh.SetTickLogger(tickLog)

	// The opening day goes through the inbox so it lands in the tick log.
	if *day > 0 {
		sh.Inbox() <- shop.CommandEnvelope{Cmd: protocol.CmdMsg{
			Type:            protocol.TypeCmd,
			ProtocolVersion: protocol.Version,
			CmdID:           "boot",
			Cmd:             protocol.CmdStartDay,
			Day:             *day,
		}}
	}

	digests := protocol.CatalogDigests{
		ArchetypesDigest: cats.Archetypes.Digest,
		DaysDigest:       cats.Days.Digest,
		TuningDigest:     indexdb.TuningDigest(tune),
	}
	obsSrv := observer.NewServer(sh, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		writeMetrics(rw, *shopID, sh, idx)
	})
	mux.HandleFunc("/v1/state", obsSrv.StateHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())
	mux.HandleFunc("/v1/ws", ws.NewServer(sh, digests, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sh.Run(ctx)
	})
	g.Go(func() error {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx2)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("server stopped: %v", err)
	}
	logger.Printf("shutdown complete at tick %d", sh.CurrentTick())
}

func writeMetrics(rw http.ResponseWriter, shopID string, sh *shop.Shop, idx *indexdb.SQLiteIndex) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	st := sh.State()

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP slicehouse_shop_tick Current shop tick.\n")
	fmt.Fprintf(rw, "# TYPE slicehouse_shop_tick gauge\n")
	fmt.Fprintf(rw, "slicehouse_shop_tick{shop=%q} %d\n", shopID, sh.CurrentTick())

	fmt.Fprintf(rw, "# HELP slicehouse_shop_score Round score so far.\n")
	fmt.Fprintf(rw, "# TYPE slicehouse_shop_score gauge\n")
	fmt.Fprintf(rw, "slicehouse_shop_score{shop=%q,day=\"%d\"} %d\n", shopID, st.Day, st.TotalScore)

	fmt.Fprintf(rw, "# HELP slicehouse_round_stat Per-round counters.\n")
	fmt.Fprintf(rw, "# TYPE slicehouse_round_stat gauge\n")
	for _, kv := range []struct {
		name string
		v    int
	}{
		{"cuts", st.Stats.Cuts},
		{"perfect_cuts", st.Stats.PerfectCuts},
		{"miss_cuts", st.Stats.MissCuts},
		{"dropped_cuts", st.Stats.DroppedCuts},
		{"parts_severed", st.Stats.PartsSevered},
		{"parts_wasted", st.Stats.PartsWasted},
		{"orders_completed", st.Stats.OrdersCompleted},
		{"orders_expired", st.Stats.OrdersExpired},
	} {
		fmt.Fprintf(rw, "slicehouse_round_stat{shop=%q,metric=%q} %d\n", shopID, kv.name, kv.v)
	}

	if idx != nil {
		is := idx.Stats()
		fmt.Fprintf(rw, "# HELP slicehouse_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE slicehouse_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "slicehouse_index_queue_depth{shop=%q} %d\n", shopID, is.QueueDepth)
		fmt.Fprintf(rw, "# HELP slicehouse_index_drop_total Ticks dropped by the index writer.\n")
		fmt.Fprintf(rw, "# TYPE slicehouse_index_drop_total counter\n")
		fmt.Fprintf(rw, "slicehouse_index_drop_total{shop=%q} %d\n", shopID, is.DropTickTotal)
	}
}
