package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "slicehouse.ai/internal/persistence/log"
	"slicehouse.ai/internal/sim/catalogs"
	"slicehouse.ai/internal/sim/shop"
	"slicehouse.ai/internal/sim/tuning"
)

func main() {
	var (
		eventsDir  = flag.String("events", "", "events dir containing events-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		shopID     = flag.String("shop", "shop_1", "shop id")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	sh, err := shop.New(shop.ConfigFromTuning(*shopID, tune), tune, cats, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shop:", err)
		os.Exit(1)
	}

	files, err := persistlog.TickFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	var checked uint64
	for _, path := range files {
		if err := replayFile(sh, path, *toTick, &checked); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if *toTick != 0 && sh.CurrentTick() > *toTick {
			break
		}
	}
	st := sh.State()
	fmt.Printf("replay ok: checked=%d ticks day=%d score=%d completed=%d expired=%d\n",
		checked, st.Day, st.TotalScore, len(st.Completed), len(st.Expired))
}

func replayFile(sh *shop.Shop, path string, toTick uint64, checked *uint64) error {
	return persistlog.ScanTicks(path, func(entry shop.TickLogEntry) error {
		if toTick != 0 && entry.Tick > toTick {
			return persistlog.ErrStop
		}
		if entry.Tick != sh.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", sh.CurrentTick(), entry.Tick, filepath.Base(path))
		}
		tick, gotDigest := sh.StepOnce(entry.Commands)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
		}
		*checked++
		if gotDigest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
		}
		return nil
	})
}
