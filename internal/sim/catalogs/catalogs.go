package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/orders"
)

// Catalogs is the static content a shop runs on: customer archetypes and
// the order lists for each day.
type Catalogs struct {
	Archetypes ArchetypeCatalog
	Days       DayCatalog
}

type ArchetypeCatalog struct {
	ByID   map[string]orders.Archetype
	Digest string
}

type DayCatalog struct {
	ByDay  map[int]DayDef
	Digest string
}

type DayDef struct {
	Day    int        `json:"day"`
	Orders []OrderDef `json:"orders"`
}

type OrderDef struct {
	ID           string    `json:"id"`
	Customer     string    `json:"customer"`
	Archetype    string    `json:"archetype,omitempty"`
	TimeLimitSec float64   `json:"time_limit_sec"`
	Items        []ItemDef `json:"items"`
}

type ItemDef struct {
	Species    string `json:"species"`
	Part       string `json:"part"`
	Quantity   int    `json:"quantity"`
	MinQuality string `json:"min_quality,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadArchetypes(filepath.Join(configDir, "archetypes.json"), &c.Archetypes); err != nil {
		return nil, err
	}
	if err := loadDays(filepath.Join(configDir, "days"), &c.Days, c.Archetypes); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadArchetypes(path string, out *ArchetypeCatalog) error {
	out.ByID = map[string]orders.Archetype{}
	neutral := orders.NeutralArchetype()

	raw, err := os.ReadFile(path)
	if err != nil {
		// Allow missing: every customer is neutral.
		if os.IsNotExist(err) {
			out.ByID[neutral.ID] = neutral
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []orders.Archetype
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("archetypes.json: %w", err)
	}
	for _, a := range defs {
		if a.ID == "" {
			return fmt.Errorf("archetypes.json: empty id")
		}
		if _, dup := out.ByID[a.ID]; dup {
			return fmt.Errorf("archetypes.json: duplicate id %s", a.ID)
		}
		if a.Patience <= 0 {
			a.Patience = 1
		}
		if a.TipMultiplier == 0 {
			a.TipMultiplier = 1
		}
		if a.PrecisionBias == 0 {
			a.PrecisionBias = 1
		}
		out.ByID[a.ID] = a
	}
	if _, ok := out.ByID[neutral.ID]; !ok {
		out.ByID[neutral.ID] = neutral
	}
	return nil
}

func loadDays(dir string, out *DayCatalog, arch ArchetypeCatalog) error {
	out.ByDay = map[int]DayDef{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var concat bytes.Buffer
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		concat.Write(b)
		concat.WriteByte('\n')

		d, err := ParseDay(b)
		if err != nil {
			return fmt.Errorf("day %s: %w", filepath.Base(p), err)
		}
		for _, o := range d.Orders {
			if o.Archetype != "" {
				if _, ok := arch.ByID[o.Archetype]; !ok {
					return fmt.Errorf("day %s: order %s: unknown archetype %q%s",
						filepath.Base(p), o.ID, o.Archetype, hint(o.Archetype, archetypeIDs(arch)))
				}
			}
		}
		if _, dup := out.ByDay[d.Day]; dup {
			return fmt.Errorf("day %s: duplicate day %d", filepath.Base(p), d.Day)
		}
		out.ByDay[d.Day] = d
	}
	out.Digest = sha256Hex(concat.Bytes())
	return nil
}

// ParseDay validates a day document against the day schema and checks that
// every enum name is known.
func ParseDay(raw []byte) (DayDef, error) {
	var d DayDef
	if err := validateDay(raw); err != nil {
		return d, err
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, err
	}
	seen := map[string]bool{}
	for _, o := range d.Orders {
		if seen[o.ID] {
			return d, fmt.Errorf("duplicate order id %s", o.ID)
		}
		seen[o.ID] = true
		for i, it := range o.Items {
			if _, err := anatomy.ParseSpecies(it.Species); err != nil {
				return d, fmt.Errorf("order %s item %d: %w%s", o.ID, i, err, hint(it.Species, anatomy.SpeciesNames()))
			}
			if _, err := anatomy.ParsePart(it.Part); err != nil {
				return d, fmt.Errorf("order %s item %d: %w%s", o.ID, i, err, hint(it.Part, anatomy.PartNames()))
			}
			if it.MinQuality != "" {
				if _, err := anatomy.ParseQuality(it.MinQuality); err != nil {
					return d, fmt.Errorf("order %s item %d: %w%s", o.ID, i, err, hint(it.MinQuality, anatomy.QualityNames()))
				}
			}
		}
	}
	return d, nil
}

// Orders builds fresh orders for a day. Time limits are scaled by the
// customer's patience.
func (c *Catalogs) Orders(day int) ([]*orders.Order, error) {
	d, ok := c.Days.ByDay[day]
	if !ok {
		return nil, fmt.Errorf("no orders for day %d", day)
	}
	out := make([]*orders.Order, 0, len(d.Orders))
	for _, od := range d.Orders {
		a, ok := c.Archetypes.ByID[od.Archetype]
		if !ok {
			a = orders.NeutralArchetype()
		}
		limit := time.Duration(od.TimeLimitSec * a.Patience * float64(time.Second))
		o := &orders.Order{
			ID:        od.ID,
			Customer:  od.Customer,
			Archetype: a,
			TimeLimit: limit,
			Remaining: limit,
		}
		for _, it := range od.Items {
			sp, _ := anatomy.ParseSpecies(it.Species)
			pt, _ := anatomy.ParsePart(it.Part)
			q := anatomy.QualityLow
			if it.MinQuality != "" {
				q, _ = anatomy.ParseQuality(it.MinQuality)
			}
			o.Items = append(o.Items, orders.Item{Species: sp, Part: pt, Quantity: it.Quantity, MinQuality: q})
		}
		out = append(out, o)
	}
	return out, nil
}

// DayNumbers lists the configured days in ascending order.
func (c *Catalogs) DayNumbers() []int {
	out := make([]int, 0, len(c.Days.ByDay))
	for d := range c.Days.ByDay {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func archetypeIDs(a ArchetypeCatalog) []string {
	out := make([]string, 0, len(a.ByID))
	for id := range a.ByID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
